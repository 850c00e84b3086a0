package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/webshop/pkg/contextx"
	"github.com/wyfcoding/webshop/pkg/db"
	"github.com/wyfcoding/webshop/pkg/db/dbtest"
)

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

func count(t *testing.T, d *db.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, d.Model(&widget{}).Count(&n).Error)
	return n
}

func TestWithTxCommits(t *testing.T) {
	d := dbtest.New(t, &widget{})

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		require.NotNil(t, contextx.GetTx(ctx))
		return db.Conn(ctx, d.DB).Create(&widget{Name: "a"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count(t, d))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	d := dbtest.New(t, &widget{})
	boom := errors.New("boom")

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		if err := db.Conn(ctx, d.DB).Create(&widget{Name: "a"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, count(t, d))
}

func TestWithTxReusesOuterTransaction(t *testing.T) {
	d := dbtest.New(t, &widget{})

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		outer := contextx.GetTx(ctx)
		return d.WithTx(ctx, func(inner context.Context) error {
			assert.Same(t, outer, contextx.GetTx(inner))
			return nil
		})
	})
	require.NoError(t, err)
}

func TestIsDuplicateKey(t *testing.T) {
	d := dbtest.New(t, &widget{})
	require.NoError(t, d.Create(&widget{Name: "a"}).Error)

	err := d.Create(&widget{Name: "a"}).Error
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKey(err))
	assert.False(t, db.IsDuplicateKey(errors.New("other")))
	assert.False(t, db.IsDuplicateKey(nil))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := db.Open(context.Background(), db.Config{Driver: "oracle"})
	require.Error(t, err)
}
