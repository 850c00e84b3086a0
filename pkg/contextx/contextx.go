// Package contextx 在 context 中携带事务、请求 ID 与当前用户
package contextx

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey int

const (
	txKey ctxKey = iota
	requestIDKey
	userIDKey
)

// WithTx 将事务句柄放入 context，仓储层通过 GetTx 复用同一事务
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTx 取出 context 中的事务，不存在时返回 nil
func GetTx(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return nil
	}
	tx, _ := ctx.Value(txKey).(*gorm.DB)
	return tx
}

// WithRequestID 写入请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID 读取请求 ID
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithUserID 写入已认证用户 ID
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID 读取已认证用户 ID，匿名请求返回 false
func UserID(ctx context.Context) (uint, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok
}
