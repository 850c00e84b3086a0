package application

import (
	"context"

	"github.com/wyfcoding/webshop/internal/catalog/domain"
)

// ReviewQueryService 评价查询服务
type ReviewQueryService struct {
	products domain.ProductRepository
	reviews  domain.ReviewRepository
}

// NewReviewQueryService 创建评价查询服务
func NewReviewQueryService(products domain.ProductRepository, reviews domain.ReviewRepository) *ReviewQueryService {
	return &ReviewQueryService{products: products, reviews: reviews}
}

// ListReviews 商品的全部评价
func (s *ReviewQueryService) ListReviews(ctx context.Context, productID uint) ([]*domain.Review, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.reviews.ListByProduct(ctx, productID)
}

// CanReview 匿名用户恒为 true；登录用户在尚未评价过该商品时为 true
func (s *ReviewQueryService) CanReview(ctx context.Context, productID uint, userID *uint) (bool, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return false, err
	}
	if userID == nil {
		return true, nil
	}
	exists, err := s.reviews.Exists(ctx, productID, *userID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *ReviewQueryService) requireProduct(ctx context.Context, id uint) error {
	ok, err := s.products.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProductNotFound
	}
	return nil
}
