package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/pkg/db"
	"github.com/wyfcoding/webshop/pkg/logger"
	"github.com/wyfcoding/webshop/pkg/metrics"
)

// SubmitReviewCommand 提交评价命令
type SubmitReviewCommand struct {
	ProductID uint
	UserID    uint
	Rating    int
	Title     string
	Content   string
}

// ReviewCommandService 评价命令服务
type ReviewCommandService struct {
	tx        db.Transactor
	products  domain.ProductRepository
	reviews   domain.ReviewRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
}

// NewReviewCommandService 创建评价命令服务
func NewReviewCommandService(
	tx db.Transactor,
	products domain.ProductRepository,
	reviews domain.ReviewRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
) *ReviewCommandService {
	return &ReviewCommandService{tx: tx, products: products, reviews: reviews, publisher: publisher, metrics: m}
}

// SubmitReview 校验并保存评价，同一用户对同一商品重复提交返回 ErrDuplicateReview
func (s *ReviewCommandService) SubmitReview(ctx context.Context, cmd SubmitReviewCommand) (*domain.Review, error) {
	review, err := domain.NewReview(cmd.ProductID, cmd.UserID, cmd.Rating, cmd.Title, cmd.Content)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.products.Exists(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrProductNotFound
		}

		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}

		return s.publisher.Publish(ctx, domain.TopicReviewSubmitted, fmt.Sprint(review.ID), domain.ReviewSubmittedEvent{
			ReviewID:  review.ID,
			ProductID: review.ProductID,
			UserID:    review.UserID,
			Rating:    review.Rating,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReviewSubmitted()
	logger.Info(ctx, "review submitted", "review_id", review.ID, "product_id", review.ProductID, "user_id", review.UserID)
	return review, nil
}
