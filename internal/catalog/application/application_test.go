package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/internal/catalog/infrastructure/messaging"
	"github.com/wyfcoding/webshop/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/webshop/pkg/db"
	"github.com/wyfcoding/webshop/pkg/db/dbtest"
	"github.com/wyfcoding/webshop/pkg/metrics"
	"github.com/wyfcoding/webshop/pkg/outbox"
)

// memCache is an in-process domain.ProductCache.
type memCache struct {
	version int64
	lists   map[string][]*domain.Product
	failGet bool
}

func newMemCache() *memCache { return &memCache{lists: map[string][]*domain.Product{}} }

func key(v int64, c string) string { return fmt.Sprintf("%d:%s", v, c) }

func (m *memCache) Version(context.Context) (int64, error) {
	if m.failGet {
		return 0, errors.New("redis down")
	}
	return m.version, nil
}

func (m *memCache) GetList(_ context.Context, v int64, c string) ([]*domain.Product, bool, error) {
	p, ok := m.lists[key(v, c)]
	return p, ok, nil
}

func (m *memCache) SetList(_ context.Context, v int64, c string, p []*domain.Product) error {
	m.lists[key(v, c)] = p
	return nil
}

func (m *memCache) Invalidate(context.Context) error {
	m.version++
	return nil
}

type catalogSuite struct {
	suite.Suite
	ctx      context.Context
	db       *db.DB
	products domain.ProductRepository
	metrics  *metrics.Metrics
	commands *ReviewCommandService
	reviews  *ReviewQueryService
	product  *domain.Product
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(catalogSuite))
}

func (s *catalogSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = dbtest.New(s.T(), &domain.Product{}, &domain.Review{}, &outbox.Message{})
	s.products = mysql.NewProductRepository(s.db.DB)
	reviewRepo := mysql.NewReviewRepository(s.db.DB)
	s.metrics = metrics.New()

	publisher := messaging.NewOutboxPublisher(outbox.NewStore(s.db.DB))
	s.commands = NewReviewCommandService(s.db, s.products, reviewRepo, publisher, s.metrics)
	s.reviews = NewReviewQueryService(s.products, reviewRepo)

	s.product = &domain.Product{Title: "mug", Category: "kitchen", Price: decimal.RequireFromString("9.99"), Stock: 10}
	s.Require().NoError(s.products.Save(s.ctx, s.product))
}

func (s *catalogSuite) submit(userID uint) error {
	_, err := s.commands.SubmitReview(s.ctx, SubmitReviewCommand{
		ProductID: s.product.ID,
		UserID:    userID,
		Rating:    5,
		Title:     "Great mug",
		Content:   "Keeps coffee warm.",
	})
	return err
}

func (s *catalogSuite) TestEligibilityFlipsAfterSubmission() {
	user := uint(1)

	ok, err := s.reviews.CanReview(s.ctx, s.product.ID, &user)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.submit(user))

	ok, err = s.reviews.CanReview(s.ctx, s.product.ID, &user)
	s.Require().NoError(err)
	s.False(ok)

	other := uint(2)
	ok, err = s.reviews.CanReview(s.ctx, s.product.ID, &other)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *catalogSuite) TestReviewEventKeyedByReview() {
	review, err := s.commands.SubmitReview(s.ctx, SubmitReviewCommand{
		ProductID: s.product.ID,
		UserID:    3,
		Rating:    4,
		Title:     "Solid",
		Content:   "Does the job.",
	})
	s.Require().NoError(err)

	var event outbox.Message
	s.Require().NoError(s.db.Where("topic = ?", domain.TopicReviewSubmitted).First(&event).Error)
	s.Equal(fmt.Sprint(review.ID), event.MessageKey)
}

func (s *catalogSuite) TestAnonymousCanAlwaysReview() {
	s.Require().NoError(s.submit(1))
	ok, err := s.reviews.CanReview(s.ctx, s.product.ID, nil)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *catalogSuite) TestCanReviewUnknownProduct() {
	_, err := s.reviews.CanReview(s.ctx, 999, nil)
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *catalogSuite) TestSecondReviewRejected() {
	s.Require().NoError(s.submit(1))
	s.ErrorIs(s.submit(1), domain.ErrDuplicateReview)

	list, err := s.reviews.ListReviews(s.ctx, s.product.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	var events int64
	s.Require().NoError(s.db.Model(&outbox.Message{}).Where("topic = ?", domain.TopicReviewSubmitted).Count(&events).Error)
	s.EqualValues(1, events, "rejected review leaves no event behind")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReviewsTotal))
}

func (s *catalogSuite) TestSubmitValidation() {
	cases := []SubmitReviewCommand{
		{ProductID: s.product.ID, UserID: 1, Rating: 0, Title: "t", Content: "c"},
		{ProductID: s.product.ID, UserID: 1, Rating: 6, Title: "t", Content: "c"},
		{ProductID: s.product.ID, UserID: 1, Rating: 3, Title: "  ", Content: "c"},
		{ProductID: s.product.ID, UserID: 1, Rating: 3, Title: "t", Content: ""},
	}
	for _, cmd := range cases {
		_, err := s.commands.SubmitReview(s.ctx, cmd)
		s.ErrorIs(err, domain.ErrInvalidReview)
	}

	_, err := s.commands.SubmitReview(s.ctx, SubmitReviewCommand{ProductID: 999, UserID: 1, Rating: 3, Title: "t", Content: "c"})
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *catalogSuite) TestListProductsUsesCache() {
	cache := newMemCache()
	q := NewCatalogQueryService(s.products, cache, s.metrics)

	first, err := q.ListProducts(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	// a row written behind the cache's back is invisible until invalidation
	s.Require().NoError(s.products.Save(s.ctx, &domain.Product{Title: "pan", Price: decimal.NewFromInt(20), Stock: 1}))
	cached, err := q.ListProducts(s.ctx, "")
	s.Require().NoError(err)
	s.Len(cached, 1)

	s.Require().NoError(cache.Invalidate(s.ctx))
	fresh, err := q.ListProducts(s.ctx, "")
	s.Require().NoError(err)
	s.Len(fresh, 2)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheRequestsTotal.WithLabelValues("hit")))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.CacheRequestsTotal.WithLabelValues("miss")))
}

func (s *catalogSuite) TestListProductsFallsBackWhenCacheDown() {
	cache := newMemCache()
	cache.failGet = true
	q := NewCatalogQueryService(s.products, cache, nil)

	list, err := q.ListProducts(s.ctx, "kitchen")
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Empty(cache.lists)
}
