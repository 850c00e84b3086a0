// Package mysql 商品目录的 GORM 仓储实现（MySQL/PostgreSQL/SQLite 通用）
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/pkg/db"
	"gorm.io/gorm"
)

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储
func NewProductRepository(gdb *gorm.DB) domain.ProductRepository {
	return &productRepository{db: gdb}
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	return db.Conn(ctx, r.db).Save(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := db.Conn(ctx, r.db).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&domain.Product{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *productRepository) List(ctx context.Context, category string) ([]*domain.Product, error) {
	q := db.Conn(ctx, r.db).Model(&domain.Product{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var products []*domain.Product
	if err := q.Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock 使用条件更新 stock = stock - qty WHERE stock >= qty，
// 并发下不会超卖；影响行数为 0 时再区分商品不存在与库存不足
func (r *productRepository) DecrementStock(ctx context.Context, id uint, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("decrement stock: quantity must be positive, got %d", qty)
	}
	conn := db.Conn(ctx, r.db)

	res := conn.Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.ErrInsufficientStock
	}
	return r.GetByID(ctx, id)
}

type reviewRepository struct{ db *gorm.DB }

// NewReviewRepository 创建评价仓储
func NewReviewRepository(gdb *gorm.DB) domain.ReviewRepository {
	return &reviewRepository{db: gdb}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	err := db.Conn(ctx, r.db).Create(review).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrDuplicateReview
	}
	return err
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uint) ([]*domain.Review, error) {
	var reviews []*domain.Review
	err := db.Conn(ctx, r.db).Where("product_id = ?", productID).Order("id ASC").Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) Exists(ctx context.Context, productID, userID uint) (bool, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&domain.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	return n > 0, err
}
