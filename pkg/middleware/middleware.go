// Package middleware 提供 Gin 与 gRPC 的通用中间件（请求 ID、日志、panic 恢复、CORS、鉴权、限流）
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/webshop/pkg/auth"
	"github.com/wyfcoding/webshop/pkg/contextx"
	"github.com/wyfcoding/webshop/pkg/logger"
	"github.com/wyfcoding/webshop/pkg/metrics"
	"github.com/wyfcoding/webshop/pkg/response"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestID 沿用客户端传入的 X-Request-ID，没有时生成新的，并写入 context 与响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(contextx.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logging 记录访问日志并上报 HTTP 指标，m 可以为 nil
func Logging(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, route, status, elapsed)

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"client_ip", c.ClientIP(),
			"size", c.Writer.Size(),
			"duration", elapsed,
		}
		if uid, ok := contextx.UserID(c.Request.Context()); ok {
			args = append(args, "user_id", uid)
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(ctx, "http request", args...)
		case status >= http.StatusBadRequest:
			logger.Warn(ctx, "http request", args...)
		default:
			logger.Info(ctx, "http request", args...)
		}
	}
}

// Recovery 捕获 panic 并返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				response.InternalError(c, fmt.Errorf("panic: %v", rec))
			}
		}()
		c.Next()
	}
}

// CORS 对 allowedOrigins 中的来源回显 Origin 并允许携带凭证；
// "*" 允许任意来源，但未显式列出的来源不下发 Allow-Credentials
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAny := slices.Contains(allowedOrigins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			listed := slices.Contains(allowedOrigins, origin)
			if listed || allowAny {
				h := c.Writer.Header()
				if listed {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Add("Vary", "Origin")
				} else {
					h.Set("Access-Control-Allow-Origin", "*")
				}
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, Origin, X-Requested-With, "+RequestIDHeader)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Authenticator 校验访问令牌并返回对应的有效用户 ID。
// 凭证无效时返回包装了 auth.ErrInvalidToken 的错误，其余错误按服务端故障处理
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// RequireAuth 要求合法的 Bearer 令牌
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return authenticate(a, true)
}

// OptionalAuth 无 Authorization 头时按匿名用户处理，令牌无效时仍返回 401
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return authenticate(a, false)
}

func authenticate(a Authenticator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				response.Unauthorized(c, "Authentication credentials were not provided.")
				return
			}
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, "Authorization header must contain a bearer token.")
			return
		}

		userID, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				response.InternalError(c, err)
				return
			}
			logger.Debug(c.Request.Context(), "token rejected", "error", err)
			response.Unauthorized(c, "Given token not valid for any token type")
			return
		}

		c.Request = c.Request.WithContext(contextx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// CurrentUser 返回当前认证用户
func CurrentUser(c *gin.Context) (uint, bool) {
	return contextx.UserID(c.Request.Context())
}
