// Package http 账户 HTTP 接口
package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/webshop/internal/account/application"
	"github.com/wyfcoding/webshop/internal/account/domain"
	"github.com/wyfcoding/webshop/pkg/middleware"
	"github.com/wyfcoding/webshop/pkg/response"
)

// ProfileHandler 用户资料 HTTP 处理器
type ProfileHandler struct {
	profiles *application.ProfileService
}

// NewProfileHandler 创建处理器
func NewProfileHandler(profiles *application.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes 注册路由，auth 为必需鉴权中间件
func (h *ProfileHandler) RegisterRoutes(api *gin.RouterGroup, auth gin.HandlerFunc) {
	profile := api.Group("/profile", auth)
	{
		profile.GET("/", h.GetProfile)
		profile.POST("/update_shipping_info/", h.UpdateShippingInfo)
	}
}

// ProfileResponse 用户资料
type ProfileResponse struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// ShippingInfoRequest 收货信息，缺省字段按空字符串处理
type ShippingInfoRequest struct {
	Address    string `json:"address" binding:"max=255"`
	City       string `json:"city" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
}

// GetProfile 当前用户资料
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)

	u, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{
		ID:         u.ID,
		Username:   u.Username,
		Address:    u.Address,
		City:       u.City,
		PostalCode: u.PostalCode,
	})
}

// UpdateShippingInfo 更新收货信息
func (h *ProfileHandler) UpdateShippingInfo(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)

	var req ShippingInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err)
		return
	}

	err := h.profiles.UpdateShippingInfo(c.Request.Context(), userID, domain.ShippingInfo{
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shipping info updated"})
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		response.NotFound(c)
		return
	}
	response.InternalError(c, err)
}
