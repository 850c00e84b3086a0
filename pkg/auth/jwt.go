// Package auth 校验并签发 HS256 访问令牌，载荷中的 user_id 标识当前用户
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 令牌缺失、过期、签名错误或载荷不合法
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims 访问令牌载荷
type Claims struct {
	TokenType string `json:"token_type"`
	UserID    any    `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager 负责令牌签发与校验
type Manager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewManager 创建令牌管理器
func NewManager(secret string, lifetime time.Duration) *Manager {
	return &Manager{secret: []byte(secret), lifetime: lifetime, now: time.Now}
}

// Issue 为用户签发访问令牌
func (m *Manager) Issue(userID uint) (string, error) {
	now := m.now()
	claims := Claims{
		TokenType: "access",
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify 校验令牌并返回用户 ID
func (m *Manager) Verify(token string) (uint, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != "" && claims.TokenType != "access" {
		return 0, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.TokenType)
	}

	id, err := parseUserID(claims.UserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// user_id 可能是数字或字符串
func parseUserID(v any) (uint, error) {
	switch id := v.(type) {
	case float64:
		if id <= 0 || id != float64(uint(id)) {
			return 0, fmt.Errorf("bad user_id %v", id)
		}
		return uint(id), nil
	case string:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil || n == 0 {
			return 0, fmt.Errorf("bad user_id %q", id)
		}
		return uint(n), nil
	default:
		return 0, errors.New("missing user_id")
	}
}
