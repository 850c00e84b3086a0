// Package domain 订单领域模型
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidOrder 订单参数不合法
	ErrInvalidOrder = errors.New("invalid order")
	// ErrProductNotFound 订单引用了不存在的商品
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock 商品库存不足
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrTotalMismatch 提交的总价与按单价计算的结果不一致
	ErrTotalMismatch = errors.New("order total does not match item prices")
)

// 与 orders.total decimal(10,2) 列一致
const totalDecimalPlaces = 2

var maxTotal = decimal.New(1, 8)

// LineItem 订单行，按提交顺序保存
type LineItem struct {
	ProductID uint `json:"id"`
	Quantity  int  `json:"quantity"`
}

// Order 订单。Total 由调用方提交，创建后不再修改
type Order struct {
	ID        uint
	UserID    uint
	Total     decimal.Decimal
	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 校验并构造订单
func NewOrder(userID uint, total decimal.Decimal, items []LineItem) (*Order, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidOrder)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total must not be negative", ErrInvalidOrder)
	}
	if total.Exponent() < -totalDecimalPlaces {
		return nil, fmt.Errorf("%w: total has more than %d decimal places", ErrInvalidOrder, totalDecimalPlaces)
	}
	if total.GreaterThanOrEqual(maxTotal) {
		return nil, fmt.Errorf("%w: total has more than 8 integer digits", ErrInvalidOrder)
	}
	for i, item := range items {
		if item.ProductID == 0 {
			return nil, fmt.Errorf("%w: item %d has no product id", ErrInvalidOrder, i)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidOrder, i)
		}
	}

	lines := make([]LineItem, len(items))
	copy(lines, items)
	return &Order{UserID: userID, Total: total, Items: lines}, nil
}

// Date 下单日期，YYYY-MM-DD
func (o *Order) Date() string {
	return o.CreatedAt.Format(time.DateOnly)
}
