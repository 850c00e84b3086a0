// Package application 账户应用服务
package application

import (
	"context"

	"github.com/wyfcoding/webshop/internal/account/domain"
	"github.com/wyfcoding/webshop/pkg/logger"
)

// ProfileService 用户资料与收货信息
type ProfileService struct {
	users domain.UserRepository
}

// NewProfileService 创建资料服务
func NewProfileService(users domain.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// GetProfile 返回用户资料
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateShippingInfo 覆盖收货信息，未提供的字段写为空字符串
func (s *ProfileService) UpdateShippingInfo(ctx context.Context, userID uint, info domain.ShippingInfo) error {
	if err := s.users.UpdateShipping(ctx, userID, info); err != nil {
		return err
	}
	logger.Info(ctx, "shipping info updated", "user_id", userID)
	return nil
}
