// Package server 组装各上下文的仓储、应用服务与接口层，构建 HTTP 路由和 gRPC 服务
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	accountapp "github.com/wyfcoding/webshop/internal/account/application"
	accountdomain "github.com/wyfcoding/webshop/internal/account/domain"
	accountmysql "github.com/wyfcoding/webshop/internal/account/infrastructure/persistence/mysql"
	accounthttp "github.com/wyfcoding/webshop/internal/account/interfaces/http"
	catalogapp "github.com/wyfcoding/webshop/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/webshop/internal/catalog/domain"
	catalogmessaging "github.com/wyfcoding/webshop/internal/catalog/infrastructure/messaging"
	catalogmysql "github.com/wyfcoding/webshop/internal/catalog/infrastructure/persistence/mysql"
	catalogredis "github.com/wyfcoding/webshop/internal/catalog/infrastructure/persistence/redis"
	cataloggrpc "github.com/wyfcoding/webshop/internal/catalog/interfaces/grpc"
	cataloghttp "github.com/wyfcoding/webshop/internal/catalog/interfaces/http"
	orderapp "github.com/wyfcoding/webshop/internal/order/application"
	orderdomain "github.com/wyfcoding/webshop/internal/order/domain"
	"github.com/wyfcoding/webshop/internal/order/infrastructure/inventory"
	ordermessaging "github.com/wyfcoding/webshop/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/webshop/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/webshop/internal/order/interfaces/http"
	"github.com/wyfcoding/webshop/pkg/auth"
	"github.com/wyfcoding/webshop/pkg/cache"
	"github.com/wyfcoding/webshop/pkg/config"
	"github.com/wyfcoding/webshop/pkg/db"
	"github.com/wyfcoding/webshop/pkg/metrics"
	"github.com/wyfcoding/webshop/pkg/middleware"
	"github.com/wyfcoding/webshop/pkg/outbox"
	"github.com/wyfcoding/webshop/pkg/ratelimit"
	"github.com/wyfcoding/webshop/pkg/response"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Deps 外部资源。Cache 与 Metrics 可以为 nil
type Deps struct {
	Config  *config.Config
	DB      *db.DB
	Cache   *cache.RedisCache
	Metrics *metrics.Metrics
	Tokens  *auth.Manager
}

// App 组装完成的服务
type App struct {
	Router *gin.Engine
	GRPC   *grpc.Server
	Health *health.Server
}

// Models 需要迁移的全部表
func Models() []any {
	return []any{
		&accountdomain.User{},
		&catalogdomain.Product{},
		&catalogdomain.Review{},
		&ordermysql.OrderModel{},
		&outbox.Message{},
	}
}

// New 组装服务
func New(d Deps) *App {
	cfg := d.Config
	gdb := d.DB.DB
	store := outbox.NewStore(gdb)

	// 账户
	users := accountmysql.NewUserRepository(gdb)
	authenticator := accountapp.NewTokenAuthenticator(d.Tokens, users)
	requireAuth := middleware.RequireAuth(authenticator)
	optionalAuth := middleware.OptionalAuth(authenticator)

	// 商品目录
	products := catalogmysql.NewProductRepository(gdb)
	reviews := catalogmysql.NewReviewRepository(gdb)
	catalogEvents := catalogmessaging.NewOutboxPublisher(store)

	var (
		productCache catalogdomain.ProductCache
		listings     orderdomain.ListingInvalidator
	)
	if d.Cache != nil {
		pc := catalogredis.NewProductCache(d.Cache, cfg.Catalog.CacheTTL)
		productCache = pc
		listings = pc
	}
	catalogQuery := catalogapp.NewCatalogQueryService(products, productCache, d.Metrics)
	reviewQuery := catalogapp.NewReviewQueryService(products, reviews)
	reviewCmd := catalogapp.NewReviewCommandService(d.DB, products, reviews, catalogEvents, d.Metrics)

	// 订单
	orders := ordermysql.NewOrderRepository(gdb)
	orderCmd := orderapp.NewOrderCommandService(
		d.DB,
		orders,
		inventory.NewCatalogInventory(products, catalogEvents),
		ordermessaging.NewOutboxPublisher(store),
		listings,
		d.Metrics,
		orderapp.Options{VerifyTotal: cfg.Orders.VerifyTotal},
	)
	orderQuery := orderapp.NewOrderQueryService(orders)

	router := newRouter(d)
	api := router.Group("/api")
	if cfg.RateLimit.Enabled && d.Cache != nil {
		limiter := ratelimit.NewRedisRateLimiter(d.Cache.Client())
		api.Use(middleware.RateLimit(limiter, ratelimit.PerSecond(cfg.RateLimit.Rate, cfg.RateLimit.Burst)))
	}
	cataloghttp.NewCatalogHandler(catalogQuery, reviewQuery, reviewCmd, cfg.Media.URL).RegisterRoutes(api, requireAuth, optionalAuth)
	orderhttp.NewOrderHandler(orderCmd, orderQuery).RegisterRoutes(api, requireAuth)
	accounthttp.NewProfileHandler(accountapp.NewProfileService(users)).RegisterRoutes(api, requireAuth)

	grpcServer, healthServer := newGRPCServer(d)
	cataloggrpc.NewServer(grpcServer, catalogQuery, cfg.Media.URL)
	healthServer.SetServingStatus(cataloggrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &App{Router: router, GRPC: grpcServer, Health: healthServer}
}

func newRouter(d Deps) *gin.Engine {
	cfg := d.Config
	response.UseJSONFieldNames()

	router := gin.New()
	router.Use(
		otelgin.Middleware(cfg.ServiceName),
		middleware.RequestID(),
		middleware.Logging(d.Metrics),
		middleware.Recovery(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	router.GET("/health", func(c *gin.Context) {
		if err := d.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": cfg.ServiceName, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	for _, asset := range []config.AssetConfig{cfg.Static, cfg.Media} {
		if asset.URL != "" && asset.Root != "" {
			router.Static(asset.URL, asset.Root)
		}
	}
	return router
}

func newGRPCServer(d Deps) (*grpc.Server, *health.Server) {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.GRPCLoggingInterceptor(d.Metrics),
			middleware.GRPCRecoveryInterceptor(),
		),
	}
	if n := d.Config.GRPC.MaxConcurrentStreams; n > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(n))
	}
	s := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}
