package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/pkg/cache"
)

const (
	genKey     = "catalog:products:gen"
	listPrefix = "catalog:products:v"
)

// ProductCache 基于版本号的商品列表缓存：失效时只递增版本号，旧版本的 key 由 TTL 回收
type ProductCache struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewProductCache 创建商品列表缓存
func NewProductCache(rc *cache.RedisCache, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{cache: rc, ttl: ttl}
}

var _ domain.ProductCache = (*ProductCache)(nil)

func (c *ProductCache) Version(ctx context.Context) (int64, error) {
	val, found, err := c.cache.Get(ctx, genKey)
	if err != nil || !found {
		return 0, err
	}
	v, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad cache generation %q: %w", val, err)
	}
	return v, nil
}

func (c *ProductCache) GetList(ctx context.Context, version int64, category string) ([]*domain.Product, bool, error) {
	var products []*domain.Product
	found, err := c.cache.GetJSON(ctx, listKey(version, category), &products)
	if err != nil || !found {
		return nil, false, err
	}
	return products, true, nil
}

func (c *ProductCache) SetList(ctx context.Context, version int64, category string, products []*domain.Product) error {
	if products == nil {
		products = []*domain.Product{}
	}
	return c.cache.SetJSON(ctx, listKey(version, category), products, c.ttl)
}

func (c *ProductCache) Invalidate(ctx context.Context) error {
	_, err := c.cache.Incr(ctx, genKey)
	return err
}

func listKey(version int64, category string) string {
	return listPrefix + strconv.FormatInt(version, 10) + ":" + category
}
