// Package mysql 用户仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/webshop/internal/account/domain"
	"github.com/wyfcoding/webshop/pkg/db"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(gdb *gorm.DB) domain.UserRepository {
	return &userRepository{db: gdb}
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	return db.Conn(ctx, r.db).Save(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := db.Conn(ctx, r.db).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdateShipping(ctx context.Context, id uint, info domain.ShippingInfo) error {
	// map 形式的 Updates 才会写入空字符串
	res := db.Conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"address":     info.Address,
		"city":        info.City,
		"postal_code": info.PostalCode,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
