// Package metrics 提供 Prometheus 指标定义与 /metrics 服务
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/webshop/pkg/logger"
)

const namespace = "webshop"

// Metrics 指标集合
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	GRPCRequestsTotal   *prometheus.CounterVec
	GRPCRequestDuration *prometheus.HistogramVec

	OrdersTotal         prometheus.Counter
	OrdersRejectedTotal *prometheus.CounterVec
	ReviewsTotal        prometheus.Counter
	CacheRequestsTotal  *prometheus.CounterVec
	OutboxPublished     *prometheus.CounterVec
	OutboxFailed        *prometheus.CounterVec
}

// New 创建指标实例
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total gRPC requests",
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Orders committed",
		}),
		OrdersRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Orders rejected before commit",
		}, []string{"reason"}),
		ReviewsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Reviews submitted",
		}),
		CacheRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Product cache lookups",
		}, []string{"result"}),
		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox messages delivered to the broker",
		}, []string{"topic"}),
		OutboxFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_failed_total",
			Help:      "Outbox delivery attempts that failed",
		}, []string{"topic"}),
	}
}

// Register 将所有指标注册到 reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.OrdersTotal,
		m.OrdersRejectedTotal,
		m.ReviewsTotal,
		m.CacheRequestsTotal,
		m.OutboxPublished,
		m.OutboxFailed,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveGRPC 记录一次 gRPC 调用
func (m *Metrics) ObserveGRPC(method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// OrderPlaced 记录成功下单
func (m *Metrics) OrderPlaced() {
	if m != nil {
		m.OrdersTotal.Inc()
	}
}

// OrderRejected 记录下单被拒绝及原因
func (m *Metrics) OrderRejected(reason string) {
	if m != nil {
		m.OrdersRejectedTotal.WithLabelValues(reason).Inc()
	}
}

// ReviewSubmitted 记录提交评价
func (m *Metrics) ReviewSubmitted() {
	if m != nil {
		m.ReviewsTotal.Inc()
	}
}

// CacheLookup 记录缓存命中情况
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// OutboxDelivered 记录发件箱投递结果
func (m *Metrics) OutboxDelivered(topic string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.OutboxFailed.WithLabelValues(topic).Inc()
		return
	}
	m.OutboxPublished.WithLabelValues(topic).Inc()
}

// Server 独立的 Prometheus HTTP 服务
type Server struct {
	srv *http.Server
}

// NewServer 创建暴露 gatherer 的 HTTP 服务
func NewServer(addr, path string, gatherer prometheus.Gatherer) *Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
}

// Start 阻塞运行直到 Shutdown
func (s *Server) Start() error {
	logger.Info(context.Background(), "metrics server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
