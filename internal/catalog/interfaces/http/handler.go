// Package http 商品目录与评价的 HTTP 接口
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/webshop/internal/catalog/application"
	"github.com/wyfcoding/webshop/internal/catalog/domain"
	"github.com/wyfcoding/webshop/pkg/middleware"
	"github.com/wyfcoding/webshop/pkg/response"
)

// CatalogHandler 商品与评价 HTTP 处理器
type CatalogHandler struct {
	products *application.CatalogQueryService
	reviews  *application.ReviewQueryService
	commands *application.ReviewCommandService
	mediaURL string
}

// NewCatalogHandler 创建处理器，mediaURL 用于拼接商品图片地址
func NewCatalogHandler(
	products *application.CatalogQueryService,
	reviews *application.ReviewQueryService,
	commands *application.ReviewCommandService,
	mediaURL string,
) *CatalogHandler {
	return &CatalogHandler{products: products, reviews: reviews, commands: commands, mediaURL: mediaURL}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth, optionalAuth gin.HandlerFunc) {
	products := api.Group("/products")
	{
		products.GET("/", h.ListProducts)
		products.GET("/:id/", h.GetProduct)
		products.GET("/:id/reviews/", h.ListReviews)
		products.GET("/:id/can_review/", optionalAuth, h.CanReview)
	}
	api.POST("/reviews/submit_review/", requireAuth, h.SubmitReview)
}

// ProductResponse 商品
type ProductResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       string  `json:"price"`
	Image       *string `json:"image"`
	Stock       int     `json:"stock"`
}

// ReviewResponse 评价
type ReviewResponse struct {
	Product uint   `json:"product"`
	User    uint   `json:"user"`
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SubmitReviewRequest 提交评价请求，用户取自令牌
type SubmitReviewRequest struct {
	Product uint   `json:"product" binding:"required,min=1"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
}

func (h *CatalogHandler) toProductResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
	}
	if url := p.ImageURL(h.mediaURL); url != "" {
		resp.Image = &url
	}
	return resp
}

// ListProducts 商品列表，支持 ?category= 过滤
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, h.toProductResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toProductResponse(p))
}

// ListReviews 商品评价列表
func (h *CatalogHandler) ListReviews(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	reviews, err := h.reviews.ListReviews(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		resp = append(resp, ReviewResponse{Product: r.ProductID, User: r.UserID, Rating: r.Rating, Title: r.Title, Content: r.Content})
	}
	c.JSON(http.StatusOK, resp)
}

// CanReview 当前用户能否评价该商品
func (h *CatalogHandler) CanReview(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var user *uint
	if uid, authenticated := middleware.CurrentUser(c); authenticated {
		user = &uid
	}
	can, err := h.reviews.CanReview(c.Request.Context(), id, user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_review": can})
}

// SubmitReview 提交评价
func (h *CatalogHandler) SubmitReview(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	_, err := h.commands.SubmitReview(c.Request.Context(), application.SubmitReviewCommand{
		ProductID: req.Product,
		UserID:    userID,
		Rating:    req.Rating,
		Title:     req.Title,
		Content:   req.Content,
	})
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		// 引用的商品不存在属于请求体校验错误
		response.Error(c, http.StatusBadRequest, fmt.Sprintf("product: Invalid pk \"%d\" - object does not exist.", req.Product))
		return
	case err != nil:
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review submitted successfully."})
}

func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.NotFound(c)
		return 0, false
	}
	return uint(id), true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		response.NotFound(c)
	case errors.Is(err, domain.ErrDuplicateReview):
		response.Error(c, http.StatusConflict, "You have already reviewed this product.")
	case errors.Is(err, domain.ErrInvalidReview):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.InternalError(c, err)
	}
}
