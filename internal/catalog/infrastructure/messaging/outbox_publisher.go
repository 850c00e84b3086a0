package messaging

import (
	"context"

	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/pkg/outbox"
)

// outboxPublisher 基于 Outbox 模式的事件发布者实现
type outboxPublisher struct {
	store *outbox.Store
}

// NewOutboxPublisher 创建事件发布者
func NewOutboxPublisher(store *outbox.Store) domain.EventPublisher {
	return &outboxPublisher{store: store}
}

// Publish 写入发件箱，ctx 携带事务时与业务数据一同提交
func (p *outboxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return p.store.Add(ctx, topic, key, event)
}
