package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TopicOrderCreated 订单创建事件主题
const TopicOrderCreated = "order.created"

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID   uint            `json:"order_id"`
	UserID    uint            `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Items     []LineItem      `json:"items"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
