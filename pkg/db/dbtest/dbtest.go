// Package dbtest 为测试提供 SQLite 数据库
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/webshop/pkg/db"
)

// New 打开一个单连接的内存数据库并迁移给定模型。
// 单连接保证内存库在整个测试期间存活，事务之间不会并行，
// 需要真实并发时使用 NewConcurrent
func New(t testing.TB, models ...any) *db.DB {
	t.Helper()
	return open(t, "file::memory:?_pragma=foreign_keys(1)", 1, models)
}

// NewConcurrent 在临时目录中打开文件数据库（WAL + busy_timeout），
// conns 个连接可以同时执行语句
func NewConcurrent(t testing.TB, conns int, models ...any) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)", path)
	return open(t, dsn, conns, models)
}

func open(t testing.TB, dsn string, conns int, models []any) *db.DB {
	t.Helper()

	d, err := db.Open(context.Background(), db.Config{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: conns,
		MaxIdleConns: conns,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	if len(models) > 0 {
		require.NoError(t, d.AutoMigrate(models...))
	}
	return d
}
