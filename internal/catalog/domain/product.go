// Package domain 商品目录领域模型：商品、评价及其仓储接口
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock 库存不足以扣减
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product 商品
type Product struct {
	ID          uint            `gorm:"column:id;primaryKey" json:"id"`
	Title       string          `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	Category    string          `gorm:"column:category;type:varchar(255);index" json:"category"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	// 相对媒体根目录的路径，例如 products/mug.jpg
	Image     string    `gorm:"column:image;type:varchar(255)" json:"image"`
	Stock     int       `gorm:"column:stock;not null;default:0" json:"stock"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// ImageURL 图片的访问地址，未设置图片时返回空串
func (p *Product) ImageURL(mediaURL string) string {
	if p.Image == "" {
		return ""
	}
	return strings.TrimSuffix(mediaURL, "/") + "/" + strings.TrimPrefix(p.Image, "/")
}
