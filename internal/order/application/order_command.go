// Package application 订单应用服务
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/webshop/internal/order/domain"
	"github.com/wyfcoding/webshop/pkg/db"
	"github.com/wyfcoding/webshop/pkg/logger"
	"github.com/wyfcoding/webshop/pkg/metrics"
)

// PlaceOrderCommand 下单命令
type PlaceOrderCommand struct {
	UserID uint
	Total  decimal.Decimal
	Items  []domain.LineItem
}

// Options 下单行为开关
type Options struct {
	// VerifyTotal 为 true 时要求 Total 等于各行单价乘数量之和
	VerifyTotal bool
}

// OrderCommandService 处理下单命令
type OrderCommandService struct {
	tx        db.Transactor
	repo      domain.OrderRepository
	inventory domain.Inventory
	publisher domain.EventPublisher
	listings  domain.ListingInvalidator
	metrics   *metrics.Metrics
	opts      Options
}

// NewOrderCommandService 创建下单服务，listings 与 m 可以为 nil
func NewOrderCommandService(
	tx db.Transactor,
	repo domain.OrderRepository,
	inventory domain.Inventory,
	publisher domain.EventPublisher,
	listings domain.ListingInvalidator,
	m *metrics.Metrics,
	opts Options,
) *OrderCommandService {
	return &OrderCommandService{
		tx:        tx,
		repo:      repo,
		inventory: inventory,
		publisher: publisher,
		listings:  listings,
		metrics:   m,
		opts:      opts,
	}
}

// PlaceOrder 在一个事务里创建订单并依次扣减每一行的库存。
// 任意一行失败时整单回滚：订单不落库，已扣减的库存恢复
func (s *OrderCommandService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	order, err := domain.NewOrder(cmd.UserID, cmd.Total, cmd.Items)
	if err != nil {
		s.metrics.OrderRejected(rejectReason(err))
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}

		computed := decimal.Zero
		for _, item := range order.Items {
			r, err := s.inventory.Reserve(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			computed = computed.Add(r.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		if s.opts.VerifyTotal && !computed.Equal(order.Total) {
			return fmt.Errorf("%w: submitted %s, expected %s", domain.ErrTotalMismatch, order.Total.StringFixed(2), computed.StringFixed(2))
		}

		return s.publisher.Publish(ctx, domain.TopicOrderCreated, fmt.Sprint(order.ID), domain.OrderCreatedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Total:     order.Total,
			Items:     order.Items,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		reason := rejectReason(err)
		s.metrics.OrderRejected(reason)
		logger.Warn(ctx, "order rejected", "user_id", cmd.UserID, "reason", reason, "error", err)
		return nil, err
	}

	s.metrics.OrderPlaced()
	if s.listings != nil {
		if err := s.listings.Invalidate(ctx); err != nil {
			logger.Warn(ctx, "failed to invalidate product listings", "error", err)
		}
	}
	logger.Info(ctx, "order placed", "order_id", order.ID, "user_id", order.UserID, "total", order.Total.StringFixed(2), "lines", len(order.Items))
	return order, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		return "invalid"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrTotalMismatch):
		return "total_mismatch"
	default:
		return "error"
	}
}
