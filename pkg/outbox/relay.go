package outbox

import (
	"context"
	"time"

	"github.com/wyfcoding/webshop/pkg/logger"
	"github.com/wyfcoding/webshop/pkg/metrics"
	"github.com/wyfcoding/webshop/pkg/mq"
)

// RelayConfig 中继配置
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// 单条消息的最大投递次数，超过后标记为 failed
	MaxAttempts int
	Retention   time.Duration
}

// Relay 轮询发件箱并投递到消息队列
type Relay struct {
	store     *Store
	publisher mq.Publisher
	metrics   *metrics.Metrics
	cfg       RelayConfig
}

// NewRelay 创建中继
func NewRelay(store *Store, publisher mq.Publisher, m *metrics.Metrics, cfg RelayConfig) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Relay{store: store, publisher: publisher, metrics: m, cfg: cfg}
}

// Run 阻塞运行直到 ctx 取消
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	logger.Info(ctx, "outbox relay started", "interval", r.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.WithoutCancel(ctx), "outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				logger.Error(ctx, "outbox batch failed", "error", err)
			}
		case <-cleanup.C:
			r.cleanup(ctx)
		}
	}
}

// ProcessBatch 投递一批待发送消息，返回成功条数。单条失败不影响后续消息
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	msgs, err := r.store.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range msgs {
		err := r.publisher.Publish(ctx, m.Topic, m.MessageKey, []byte(m.Payload))
		r.metrics.OutboxDelivered(m.Topic, err)
		if err != nil {
			logger.Warn(ctx, "outbox delivery failed", "id", m.ID, "topic", m.Topic, "attempt", m.Attempts+1, "error", err)
			abandon := m.Attempts+1 >= r.cfg.MaxAttempts
			if abandon {
				logger.Error(ctx, "outbox message abandoned", "id", m.ID, "topic", m.Topic, "attempts", m.Attempts+1)
			}
			if markErr := r.store.MarkFailed(ctx, m.ID, err, abandon); markErr != nil {
				return sent, markErr
			}
			continue
		}
		if err := r.store.MarkSent(ctx, m.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (r *Relay) cleanup(ctx context.Context) {
	if r.cfg.Retention <= 0 {
		return
	}
	n, err := r.store.Cleanup(ctx, time.Now().Add(-r.cfg.Retention))
	if err != nil {
		logger.Error(ctx, "outbox cleanup failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "outbox cleanup", "deleted", n)
	}
}
