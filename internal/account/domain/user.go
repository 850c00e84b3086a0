// Package domain 账户领域模型
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// User 用户。注册与密码由外部身份系统维护，本服务只读写收货信息
type User struct {
	ID         uint      `gorm:"column:id;primaryKey"`
	Username   string    `gorm:"column:username;type:varchar(150);uniqueIndex;not null"`
	Email      string    `gorm:"column:email;type:varchar(254)"`
	Password   string    `gorm:"column:password;type:varchar(128)"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	Address    string    `gorm:"column:address;type:varchar(255)"`
	City       string    `gorm:"column:city;type:varchar(100)"`
	PostalCode string    `gorm:"column:postal_code;type:varchar(20)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// ShippingInfo 收货信息
type ShippingInfo struct {
	Address    string
	City       string
	PostalCode string
}

// Shipping 当前收货信息
func (u *User) Shipping() ShippingInfo {
	return ShippingInfo{Address: u.Address, City: u.City, PostalCode: u.PostalCode}
}

// UserRepository 用户仓储
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	// GetByID 不存在时返回 ErrUserNotFound
	GetByID(ctx context.Context, id uint) (*User, error)
	// UpdateShipping 整体覆盖三个收货字段
	UpdateShipping(ctx context.Context, id uint, info ShippingInfo) error
}
