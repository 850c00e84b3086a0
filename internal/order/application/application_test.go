package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	catalog "github.com/wyfcoding/webshop/internal/catalog/domain"
	catalogmessaging "github.com/wyfcoding/webshop/internal/catalog/infrastructure/messaging"
	catalogmysql "github.com/wyfcoding/webshop/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/webshop/internal/order/domain"
	"github.com/wyfcoding/webshop/internal/order/infrastructure/inventory"
	"github.com/wyfcoding/webshop/internal/order/infrastructure/messaging"
	"github.com/wyfcoding/webshop/internal/order/infrastructure/persistence/mysql"
	"github.com/wyfcoding/webshop/pkg/db"
	"github.com/wyfcoding/webshop/pkg/db/dbtest"
	"github.com/wyfcoding/webshop/pkg/metrics"
	"github.com/wyfcoding/webshop/pkg/outbox"
)

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

type orderSuite struct {
	suite.Suite
	ctx      context.Context
	db       *db.DB
	products catalog.ProductRepository
	orders   domain.OrderRepository
	listings *countingInvalidator
	metrics  *metrics.Metrics
	mug      *catalog.Product
	lamp     *catalog.Product
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(orderSuite))
}

func (s *orderSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = dbtest.New(s.T(), &catalog.Product{}, &mysql.OrderModel{}, &outbox.Message{})
	s.products = catalogmysql.NewProductRepository(s.db.DB)
	s.orders = mysql.NewOrderRepository(s.db.DB)
	s.listings = &countingInvalidator{}
	s.metrics = metrics.New()

	s.mug = &catalog.Product{Title: "mug", Price: decimal.RequireFromString("9.99"), Stock: 5}
	s.lamp = &catalog.Product{Title: "lamp", Price: decimal.RequireFromString("25.00"), Stock: 1}
	s.Require().NoError(s.products.Save(s.ctx, s.mug))
	s.Require().NoError(s.products.Save(s.ctx, s.lamp))
}

func (s *orderSuite) service(opts Options) *OrderCommandService {
	store := outbox.NewStore(s.db.DB)
	inv := inventory.NewCatalogInventory(s.products, catalogmessaging.NewOutboxPublisher(store))
	return NewOrderCommandService(s.db, s.orders, inv, messaging.NewOutboxPublisher(store), s.listings, s.metrics, opts)
}

func (s *orderSuite) stock(p *catalog.Product) int {
	got, err := s.products.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	return got.Stock
}

func (s *orderSuite) countOrders() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&mysql.OrderModel{}).Count(&n).Error)
	return n
}

func (s *orderSuite) countEvents(topic string) int64 {
	var n int64
	s.Require().NoError(s.db.Model(&outbox.Message{}).Where("topic = ?", topic).Count(&n).Error)
	return n
}

func (s *orderSuite) TestPlaceOrderDecrementsStock() {
	order, err := s.service(Options{}).PlaceOrder(s.ctx, PlaceOrderCommand{
		UserID: 1,
		Total:  decimal.RequireFromString("44.98"),
		Items:  []domain.LineItem{{ProductID: s.mug.ID, Quantity: 2}, {ProductID: s.lamp.ID, Quantity: 1}},
	})
	s.Require().NoError(err)
	s.NotZero(order.ID)
	s.Equal("44.98", order.Total.StringFixed(2))

	s.Equal(3, s.stock(s.mug))
	s.Equal(0, s.stock(s.lamp))

	listed, err := NewOrderQueryService(s.orders).ListUserOrders(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(order.Items, listed[0].Items)

	s.EqualValues(1, s.countEvents(domain.TopicOrderCreated))
	s.EqualValues(2, s.countEvents(catalog.TopicProductStockChanged))
	var event outbox.Message
	s.Require().NoError(s.db.Where("topic = ?", domain.TopicOrderCreated).First(&event).Error)
	s.Equal(fmt.Sprint(order.ID), event.MessageKey)
	s.Equal(1, s.listings.calls)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OrdersTotal))
}

func (s *orderSuite) TestUnknownProductRollsBackEverything() {
	_, err := s.service(Options{}).PlaceOrder(s.ctx, PlaceOrderCommand{
		UserID: 1,
		Total:  decimal.NewFromInt(10),
		Items:  []domain.LineItem{{ProductID: s.mug.ID, Quantity: 2}, {ProductID: 9999, Quantity: 1}},
	})
	s.ErrorIs(err, domain.ErrProductNotFound)

	s.Equal(5, s.stock(s.mug), "earlier line restored")
	s.Zero(s.countOrders())
	s.Zero(s.countEvents(domain.TopicOrderCreated))
	s.Zero(s.countEvents(catalog.TopicProductStockChanged))
	s.Zero(s.listings.calls)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OrdersRejectedTotal.WithLabelValues("product_not_found")))
}

func (s *orderSuite) TestInsufficientStockRejected() {
	_, err := s.service(Options{}).PlaceOrder(s.ctx, PlaceOrderCommand{
		UserID: 1,
		Total:  decimal.NewFromInt(10),
		Items:  []domain.LineItem{{ProductID: s.mug.ID, Quantity: 1}, {ProductID: s.lamp.ID, Quantity: 2}},
	})
	s.ErrorIs(err, domain.ErrInsufficientStock)

	s.Equal(5, s.stock(s.mug))
	s.Equal(1, s.stock(s.lamp))
	s.Zero(s.countOrders())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OrdersRejectedTotal.WithLabelValues("insufficient_stock")))
}

func (s *orderSuite) TestDuplicateLinesAreCumulative() {
	svc := s.service(Options{})
	_, err := svc.PlaceOrder(s.ctx, PlaceOrderCommand{
		UserID: 1,
		Total:  decimal.Zero,
		Items:  []domain.LineItem{{ProductID: s.mug.ID, Quantity: 3}, {ProductID: s.mug.ID, Quantity: 3}},
	})
	s.ErrorIs(err, domain.ErrInsufficientStock)
	s.Equal(5, s.stock(s.mug))

	_, err = svc.PlaceOrder(s.ctx, PlaceOrderCommand{
		UserID: 1,
		Total:  decimal.Zero,
		Items:  []domain.LineItem{{ProductID: s.mug.ID, Quantity: 2}, {ProductID: s.mug.ID, Quantity: 3}},
	})
	s.Require().NoError(err)
	s.Equal(0, s.stock(s.mug))
}

func (s *orderSuite) TestConcurrentOrdersForLastUnit() {
	svc := s.service(Options{})

	const buyers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := range buyers {
		wg.Add(1)
		go func(user uint) {
			defer wg.Done()
			_, err := svc.PlaceOrder(s.ctx, PlaceOrderCommand{
				UserID: user,
				Total:  decimal.RequireFromString("25.00"),
				Items:  []domain.LineItem{{ProductID: s.lamp.ID, Quantity: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if s.ErrorIs(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}(uint(i + 1))
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(buyers-1, rejected)
	s.Equal(0, s.stock(s.lamp))
	s.EqualValues(1, s.countOrders())
}

func (s *orderSuite) TestVerifyTotal() {
	svc := s.service(Options{VerifyTotal: true})

	_, err := svc.PlaceOrder(s.ctx, PlaceOrderCommand{
		UserID: 1,
		Total:  decimal.RequireFromString("1.00"),
		Items:  []domain.LineItem{{ProductID: s.mug.ID, Quantity: 2}},
	})
	s.ErrorIs(err, domain.ErrTotalMismatch)
	s.Equal(5, s.stock(s.mug))
	s.Zero(s.countOrders())

	_, err = svc.PlaceOrder(s.ctx, PlaceOrderCommand{
		UserID: 1,
		Total:  decimal.RequireFromString("19.98"),
		Items:  []domain.LineItem{{ProductID: s.mug.ID, Quantity: 2}},
	})
	s.NoError(err)
}

func (s *orderSuite) TestInvalidCommand() {
	_, err := s.service(Options{}).PlaceOrder(s.ctx, PlaceOrderCommand{UserID: 1, Total: decimal.NewFromInt(1)})
	s.ErrorIs(err, domain.ErrInvalidOrder)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OrdersRejectedTotal.WithLabelValues("invalid")))
}
