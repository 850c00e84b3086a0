package application

import (
	"context"

	"github.com/wyfcoding/webshop/internal/order/domain"
)

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// ListUserOrders 返回用户的全部订单，按下单先后排列
func (q *OrderQueryService) ListUserOrders(ctx context.Context, userID uint) ([]*domain.Order, error) {
	return q.repo.ListByUser(ctx, userID)
}
