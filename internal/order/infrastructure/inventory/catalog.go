// Package inventory 基于商品目录的库存实现
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalog "github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/internal/order/domain"
)

// ReasonOrderPlaced 下单导致的库存变更
const ReasonOrderPlaced = "order_placed"

// CatalogInventory 直接扣减商品表库存，并写入 product.stock.changed 事件
type CatalogInventory struct {
	products  catalog.ProductRepository
	publisher catalog.EventPublisher
}

var _ domain.Inventory = (*CatalogInventory)(nil)

// NewCatalogInventory 创建库存适配器
func NewCatalogInventory(products catalog.ProductRepository, publisher catalog.EventPublisher) *CatalogInventory {
	return &CatalogInventory{products: products, publisher: publisher}
}

// Reserve 扣减库存
func (i *CatalogInventory) Reserve(ctx context.Context, productID uint, quantity int) (*domain.Reservation, error) {
	product, err := i.products.DecrementStock(ctx, productID, quantity)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return nil, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, productID)
	case errors.Is(err, catalog.ErrInsufficientStock):
		return nil, fmt.Errorf("%w: product %d, requested %d", domain.ErrInsufficientStock, productID, quantity)
	case err != nil:
		return nil, err
	}

	before := product.Stock + quantity
	if i.publisher != nil {
		event := catalog.ProductStockChangedEvent{
			ProductID: product.ID,
			OldStock:  before,
			NewStock:  product.Stock,
			Reason:    ReasonOrderPlaced,
			Timestamp: time.Now(),
		}
		if err := i.publisher.Publish(ctx, catalog.TopicProductStockChanged, fmt.Sprint(product.ID), event); err != nil {
			return nil, err
		}
	}

	return &domain.Reservation{
		ProductID: product.ID,
		UnitPrice: product.Price,
		Before:    before,
		After:     product.Stock,
	}, nil
}
