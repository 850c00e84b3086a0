package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wyfcoding/webshop/internal/catalog/application"
	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/internal/catalog/infrastructure/messaging"
	"github.com/wyfcoding/webshop/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/webshop/pkg/auth"
	"github.com/wyfcoding/webshop/pkg/db/dbtest"
	"github.com/wyfcoding/webshop/pkg/middleware"
	"github.com/wyfcoding/webshop/pkg/outbox"
	"github.com/wyfcoding/webshop/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	response.UseJSONFieldNames()
}

// tokens maps bearer tokens straight to user ids.
type tokens map[string]uint

func (t tokens) Authenticate(_ context.Context, token string) (uint, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: unknown token", auth.ErrInvalidToken)
}

type handlerSuite struct {
	suite.Suite
	router *gin.Engine
	mug    *domain.Product
	lamp   *domain.Product
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(handlerSuite))
}

func (s *handlerSuite) SetupTest() {
	d := dbtest.New(s.T(), &domain.Product{}, &domain.Review{}, &outbox.Message{})
	products := mysql.NewProductRepository(d.DB)
	reviews := mysql.NewReviewRepository(d.DB)
	publisher := messaging.NewOutboxPublisher(outbox.NewStore(d.DB))

	ctx := context.Background()
	s.mug = &domain.Product{Title: "Mug", Description: "Stoneware", Category: "kitchen", Price: decimal.RequireFromString("9.9"), Image: "products/mug.jpg", Stock: 4}
	s.lamp = &domain.Product{Title: "Lamp", Category: "living", Price: decimal.NewFromInt(25), Stock: 0}
	s.Require().NoError(products.Save(ctx, s.mug))
	s.Require().NoError(products.Save(ctx, s.lamp))

	h := NewCatalogHandler(
		application.NewCatalogQueryService(products, nil, nil),
		application.NewReviewQueryService(products, reviews),
		application.NewReviewCommandService(d, products, reviews, publisher, nil),
		"/media/",
	)
	auth := tokens{"alice": 1, "bob": 2}
	s.router = gin.New()
	h.RegisterRoutes(s.router.Group("/api"), middleware.RequireAuth(auth), middleware.OptionalAuth(auth))
}

func (s *handlerSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *handlerSuite) TestListProducts() {
	w := s.do(http.MethodGet, "/api/products/", "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[
		{"id":1,"title":"Mug","description":"Stoneware","category":"kitchen","price":"9.90","image":"/media/products/mug.jpg","stock":4},
		{"id":2,"title":"Lamp","description":"","category":"living","price":"25.00","image":null,"stock":0}
	]`, w.Body.String())

	w = s.do(http.MethodGet, "/api/products/?category=living", "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"title":"Lamp"`)
	s.NotContains(w.Body.String(), `"title":"Mug"`)

	w = s.do(http.MethodGet, "/api/products/?category=garden", "", "")
	s.JSONEq(`[]`, w.Body.String())
}

func (s *handlerSuite) TestGetProduct() {
	w := s.do(http.MethodGet, "/api/products/1/", "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"title":"Mug"`)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/products/99/", "", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/products/abc/", "", "").Code)
}

func (s *handlerSuite) TestReviewLifecycle() {
	w := s.do(http.MethodGet, "/api/products/1/can_review/", "alice", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"can_review":true}`, w.Body.String())

	body := `{"product":1,"rating":4,"title":"Solid","content":"Holds a lot of tea."}`
	w = s.do(http.MethodPost, "/api/reviews/submit_review/", "alice", body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"message":"Review submitted successfully."}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/products/1/can_review/", "alice", "")
	s.JSONEq(`{"can_review":false}`, w.Body.String())
	w = s.do(http.MethodGet, "/api/products/1/can_review/", "bob", "")
	s.JSONEq(`{"can_review":true}`, w.Body.String())
	w = s.do(http.MethodGet, "/api/products/1/can_review/", "", "")
	s.JSONEq(`{"can_review":true}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/reviews/submit_review/", "alice", body)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/products/1/reviews/", "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[{"product":1,"user":1,"rating":4,"title":"Solid","content":"Holds a lot of tea."}]`, w.Body.String())
}

func (s *handlerSuite) TestReviewsForUnknownProduct() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/products/99/reviews/", "", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/products/99/can_review/", "", "").Code)

	w := s.do(http.MethodPost, "/api/reviews/submit_review/", "alice", `{"product":99,"rating":4,"title":"t","content":"c"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `Invalid pk \"99\"`)
}

func (s *handlerSuite) TestSubmitReviewAuthAndValidation() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/reviews/submit_review/", "", `{}`).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/products/1/can_review/", "mallory", "").Code)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"rating too high", `{"product":1,"rating":6,"title":"t","content":"c"}`, "rating"},
		{"rating missing", `{"product":1,"title":"t","content":"c"}`, "rating"},
		{"title missing", `{"product":1,"rating":3,"content":"c"}`, "title"},
		{"content missing", `{"product":1,"rating":3,"title":"t"}`, "content"},
		{"blank title", `{"product":1,"rating":3,"title":"   ","content":"c"}`, "invalid review"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/api/reviews/submit_review/", "alice", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
			s.Contains(w.Body.String(), tt.want)
		})
	}
}

func TestImageURLJoin(t *testing.T) {
	h := &CatalogHandler{mediaURL: "https://cdn.example/media"}
	resp := h.toProductResponse(&domain.Product{Image: "/products/a.png", Price: decimal.NewFromInt(1)})
	require.NotNil(t, resp.Image)
	assert.Equal(t, "https://cdn.example/media/products/a.png", *resp.Image)
}
