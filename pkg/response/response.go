// Package response 统一 HTTP 错误响应格式 {"detail": "..."}
package response

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/wyfcoding/webshop/pkg/contextx"
	"github.com/wyfcoding/webshop/pkg/logger"
)

// Detail 错误响应体
type Detail struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

// Error 以 status 中止请求并返回 detail
func Error(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, Detail{Detail: detail})
}

// BadRequest 绑定或校验失败
func BadRequest(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, ValidationMessage(err))
}

// NotFound 资源不存在
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Not found.")
}

// Unauthorized 未认证或令牌无效
func Unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	Error(c, http.StatusUnauthorized, detail)
}

// InternalError 记录错误并返回 500，响应中附带 request_id 便于排查
func InternalError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	logger.Error(ctx, "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Detail{
		Detail:    "Internal server error",
		RequestID: contextx.RequestID(ctx),
	})
}

// ValidationMessage 将 validator 错误转换为可读信息，其余错误原样返回
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + ": This field is required."
	case "min", "gte", "gt":
		return fe.Field() + ": Ensure this value is greater than or equal to " + fe.Param() + "."
	case "max", "lte", "lt":
		return fe.Field() + ": Ensure this value is less than or equal to " + fe.Param() + "."
	default:
		return fe.Field() + ": Invalid value."
	}
}

var registerOnce sync.Once

// UseJSONFieldNames 让校验错误使用 json 字段名而不是 Go 字段名
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
}
