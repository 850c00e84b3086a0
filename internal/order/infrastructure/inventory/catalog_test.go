package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalog "github.com/wyfcoding/webshop/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/webshop/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/webshop/internal/order/domain"
	"github.com/wyfcoding/webshop/pkg/db/dbtest"
)

type recordingPublisher struct {
	events []catalog.ProductStockChangedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, event any) error {
	if topic == catalog.TopicProductStockChanged {
		p.events = append(p.events, event.(catalog.ProductStockChangedEvent))
	}
	return nil
}

func TestCatalogInventoryReserve(t *testing.T) {
	d := dbtest.New(t, &catalog.Product{})
	products := catalogmysql.NewProductRepository(d.DB)
	ctx := context.Background()

	p := &catalog.Product{Title: "mug", Price: decimal.RequireFromString("4.50"), Stock: 3}
	require.NoError(t, products.Save(ctx, p))

	pub := &recordingPublisher{}
	inv := NewCatalogInventory(products, pub)

	r, err := inv.Reserve(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Before)
	assert.Equal(t, 1, r.After)
	assert.True(t, r.UnitPrice.Equal(decimal.RequireFromString("4.5")))

	_, err = inv.Reserve(ctx, p.ID, 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = inv.Reserve(ctx, 777, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	require.Len(t, pub.events, 1)
	assert.Equal(t, catalog.ProductStockChangedEvent{
		ProductID: p.ID, OldStock: 3, NewStock: 1, Reason: ReasonOrderPlaced, Timestamp: pub.events[0].Timestamp,
	}, pub.events[0])
}
