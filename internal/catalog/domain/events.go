package domain

import (
	"context"
	"time"
)

// 事件主题
const (
	TopicReviewSubmitted     = "review.submitted"
	TopicProductStockChanged = "product.stock.changed"
)

// ReviewSubmittedEvent 评价提交事件
type ReviewSubmittedEvent struct {
	ReviewID  uint      `json:"review_id"`
	ProductID uint      `json:"product_id"`
	UserID    uint      `json:"user_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductStockChangedEvent 商品库存变更事件
type ProductStockChangedEvent struct {
	ProductID uint      `json:"product_id"`
	OldStock  int       `json:"old_stock"`
	NewStock  int       `json:"new_stock"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher 领域事件发布接口，ctx 中有事务时事件随事务提交
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
