// Package http 订单 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/webshop/internal/order/application"
	"github.com/wyfcoding/webshop/internal/order/domain"
	"github.com/wyfcoding/webshop/pkg/middleware"
	"github.com/wyfcoding/webshop/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	cmd   *application.OrderCommandService
	query *application.OrderQueryService
}

// NewOrderHandler 创建 HTTP 处理器
func NewOrderHandler(cmd *application.OrderCommandService, query *application.OrderQueryService) *OrderHandler {
	return &OrderHandler{cmd: cmd, query: query}
}

// RegisterRoutes 注册路由，auth 为必需鉴权中间件
func (h *OrderHandler) RegisterRoutes(api *gin.RouterGroup, auth gin.HandlerFunc) {
	api.POST("/orders/", auth, h.CreateOrder)
	api.GET("/profile/orders/", auth, h.ListMyOrders)
}

// OrderItemRequest 订单行
type OrderItemRequest struct {
	ID       uint `json:"id" binding:"required,min=1"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest 创建订单请求，total 可以是数字或字符串
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Total *decimal.Decimal   `json:"total" binding:"required"`
}

// OrderResponse 订单响应
type OrderResponse struct {
	Total string            `json:"total"`
	Items []domain.LineItem `json:"items"`
	Date  string            `json:"date"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{Total: o.Total.StringFixed(2), Items: o.Items, Date: o.Date()}
}

// CreateOrder 创建订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItem{ProductID: it.ID, Quantity: it.Quantity})
	}

	order, err := h.cmd.PlaceOrder(c.Request.Context(), application.PlaceOrderCommand{
		UserID: userID,
		Total:  *req.Total,
		Items:  items,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// ListMyOrders 当前用户的订单列表
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)

	orders, err := h.query.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, resp)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrTotalMismatch):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.InternalError(c, err)
	}
}
