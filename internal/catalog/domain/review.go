package domain

import (
	"errors"
	"strings"
	"time"
)

// 评分范围
const (
	MinRating = 1
	MaxRating = 5
)

var (
	// ErrDuplicateReview 同一用户对同一商品只能评价一次
	ErrDuplicateReview = errors.New("review already submitted for this product")
	// ErrInvalidReview 评价字段不合法
	ErrInvalidReview = errors.New("invalid review")
)

// Review 商品评价，(user_id, product_id) 唯一
type Review struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	ProductID uint      `gorm:"column:product_id;not null;index;uniqueIndex:idx_reviews_user_product,priority:2"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_reviews_user_product,priority:1"`
	Rating    int       `gorm:"column:rating;not null"`
	Title     string    `gorm:"column:title;type:varchar(255);not null"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }

// NewReview 校验并构造评价
func NewReview(productID, userID uint, rating int, title, content string) (*Review, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	switch {
	case productID == 0 || userID == 0:
		return nil, ErrInvalidReview
	case rating < MinRating || rating > MaxRating:
		return nil, ErrInvalidReview
	case title == "" || len([]rune(title)) > 255:
		return nil, ErrInvalidReview
	case content == "":
		return nil, ErrInvalidReview
	}
	return &Review{ProductID: productID, UserID: userID, Rating: rating, Title: title, Content: content}, nil
}
