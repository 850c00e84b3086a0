package domain

import "context"

// ProductRepository 商品仓储
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	// GetByID 不存在时返回 ErrProductNotFound
	GetByID(ctx context.Context, id uint) (*Product, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// List 按 id 升序，category 为空时返回全部
	List(ctx context.Context, category string) ([]*Product, error)
	// DecrementStock 原子地扣减库存，库存不足时不做修改并返回 ErrInsufficientStock。
	// 返回扣减后的商品
	DecrementStock(ctx context.Context, id uint, qty int) (*Product, error)
}

// ReviewRepository 评价仓储
type ReviewRepository interface {
	// Create 违反 (user, product) 唯一约束时返回 ErrDuplicateReview
	Create(ctx context.Context, review *Review) error
	ListByProduct(ctx context.Context, productID uint) ([]*Review, error)
	Exists(ctx context.Context, productID, userID uint) (bool, error)
}

// ProductCache 商品列表缓存。version 在读取前获取，写入时带回，失效操作使旧版本整体作废
type ProductCache interface {
	Version(ctx context.Context) (int64, error)
	GetList(ctx context.Context, version int64, category string) ([]*Product, bool, error)
	SetList(ctx context.Context, version int64, category string, products []*Product) error
	Invalidate(ctx context.Context) error
}
