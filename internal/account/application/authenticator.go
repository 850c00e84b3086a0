package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/webshop/internal/account/domain"
	"github.com/wyfcoding/webshop/pkg/auth"
)

// ErrInactiveUser 账户已停用
var ErrInactiveUser = errors.New("user is inactive")

// TokenAuthenticator 校验令牌签名后再确认用户存在且处于启用状态
type TokenAuthenticator struct {
	tokens *auth.Manager
	users  domain.UserRepository
}

// NewTokenAuthenticator 创建认证器
func NewTokenAuthenticator(tokens *auth.Manager, users domain.UserRepository) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens, users: users}
}

// Authenticate 返回令牌对应的用户 ID。
// 凭证问题（令牌无效、用户不存在或已停用）都包装为 auth.ErrInvalidToken，其余错误原样返回
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (uint, error) {
	userID, err := a.tokens.Verify(token)
	if err != nil {
		return 0, err
	}
	user, err := a.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return 0, fmt.Errorf("%w: %w", auth.ErrInvalidToken, err)
	case err != nil:
		return 0, fmt.Errorf("load user %d: %w", userID, err)
	}
	if !user.IsActive {
		return 0, fmt.Errorf("%w: %w", auth.ErrInvalidToken, ErrInactiveUser)
	}
	return user.ID, nil
}
