// Package messaging 订单事件发布
package messaging

import (
	"context"

	"github.com/wyfcoding/webshop/internal/order/domain"
	"github.com/wyfcoding/webshop/pkg/outbox"
)

type outboxPublisher struct {
	store *outbox.Store
}

// NewOutboxPublisher 创建基于发件箱的事件发布者
func NewOutboxPublisher(store *outbox.Store) domain.EventPublisher {
	return &outboxPublisher{store: store}
}

func (p *outboxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return p.store.Add(ctx, topic, key, event)
}
