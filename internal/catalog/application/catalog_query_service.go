package application

import (
	"context"

	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/pkg/logger"
	"github.com/wyfcoding/webshop/pkg/metrics"
)

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	repo    domain.ProductRepository
	cache   domain.ProductCache
	metrics *metrics.Metrics
}

// NewCatalogQueryService 创建商品目录查询服务，cache 为 nil 时直接查库
func NewCatalogQueryService(repo domain.ProductRepository, cache domain.ProductCache, m *metrics.Metrics) *CatalogQueryService {
	return &CatalogQueryService{repo: repo, cache: cache, metrics: m}
}

// GetProduct 根据 ID 获取商品
func (s *CatalogQueryService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProducts 列出商品，优先读缓存。缓存故障时降级为查库
func (s *CatalogQueryService) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	if s.cache == nil {
		return s.repo.List(ctx, category)
	}

	version, err := s.cache.Version(ctx)
	if err != nil {
		logger.Warn(ctx, "product cache unavailable", "error", err)
		return s.repo.List(ctx, category)
	}

	products, hit, err := s.cache.GetList(ctx, version, category)
	if err != nil {
		logger.Warn(ctx, "product cache read failed", "error", err)
	}
	s.metrics.CacheLookup(hit)
	if hit {
		return products, nil
	}

	products, err = s.repo.List(ctx, category)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetList(ctx, version, category, products); err != nil {
		logger.Warn(ctx, "product cache write failed", "error", err)
	}
	return products, nil
}
