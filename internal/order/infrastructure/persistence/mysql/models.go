package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/webshop/internal/order/domain"
)

// OrderModel 订单数据库模型，映射 orders 表
type OrderModel struct {
	ID        uint              `gorm:"column:id;primaryKey"`
	UserID    uint              `gorm:"column:user_id;index;not null;comment:下单用户"`
	Total     decimal.Decimal   `gorm:"column:total;type:decimal(10,2);not null;comment:提交的订单总价"`
	Items     []domain.LineItem `gorm:"column:items;type:text;serializer:json;not null;comment:订单行(id, quantity)"`
	CreatedAt time.Time         `gorm:"column:created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

func toOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		Items:     o.Items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:        m.ID,
		UserID:    m.UserID,
		Total:     m.Total,
		Items:     m.Items,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
