// Package outbox 实现事务性发件箱：事件与业务数据在同一事务写入，由 Relay 异步投递到消息队列
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wyfcoding/webshop/pkg/db"
	"gorm.io/gorm"
)

// 消息状态
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	// StatusFailed 重试次数耗尽，不再投递
	StatusFailed = "failed"
)

const maxErrorLen = 500

// Message 发件箱消息
type Message struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Topic      string    `gorm:"column:topic;type:varchar(100);index;not null"`
	MessageKey string    `gorm:"column:message_key;type:varchar(100)"`
	Payload    string    `gorm:"column:payload;type:text;not null"`
	Status     string    `gorm:"column:status;type:varchar(20);index;default:'pending'"`
	Attempts   int       `gorm:"column:attempts;default:0"`
	LastError  string    `gorm:"column:last_error;type:varchar(500)"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "outbox_messages"
}

// Store 发件箱存储
type Store struct {
	db *gorm.DB
}

// NewStore 创建发件箱存储
func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Add 序列化事件并写入发件箱。ctx 中有事务时随事务提交
func (s *Store) Add(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := Message{
		ID:         uuid.NewString(),
		Topic:      topic,
		MessageKey: key,
		Payload:    string(payload),
		Status:     StatusPending,
	}
	return db.Conn(ctx, s.db).Create(&msg).Error
}

// Pending 读取待投递消息，失败次数少的优先，同次数按写入顺序
func (s *Store) Pending(ctx context.Context, limit int) ([]Message, error) {
	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("attempts ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// MarkSent 标记为已投递
func (s *Store) MarkSent(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&Message{}).Where("id = ?", id).
		Updates(map[string]any{"status": StatusSent, "updated_at": time.Now()}).Error
}

// MarkFailed 记录一次失败的投递。abandon 为 true 时转为 failed，不再投递
func (s *Store) MarkFailed(ctx context.Context, id string, cause error, abandon bool) error {
	updates := map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": truncate(cause.Error(), maxErrorLen),
		"updated_at": time.Now(),
	}
	if abandon {
		updates["status"] = StatusFailed
	}
	return s.db.WithContext(ctx).Model(&Message{}).Where("id = ?", id).Updates(updates).Error
}

// Failed 读取已放弃投递的消息
func (s *Store) Failed(ctx context.Context, limit int) ([]Message, error) {
	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusFailed).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// truncate 按字符边界截断到至多 n 字节
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Cleanup 删除 before 之前已投递的消息
func (s *Store) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", StatusSent, before).
		Delete(&Message{})
	return res.RowsAffected, res.Error
}
