package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderRepository 订单仓储
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	// ListByUser 按创建顺序返回用户的全部订单
	ListByUser(ctx context.Context, userID uint) ([]*Order, error)
}

// Reservation 一次成功扣减的结果
type Reservation struct {
	ProductID uint
	UnitPrice decimal.Decimal
	Before    int
	After     int
}

// Inventory 库存扣减。ctx 中有事务时在该事务内执行；
// 失败时返回 ErrProductNotFound 或 ErrInsufficientStock
type Inventory interface {
	Reserve(ctx context.Context, productID uint, quantity int) (*Reservation, error)
}

// ListingInvalidator 库存变化后使商品列表缓存失效
type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}
