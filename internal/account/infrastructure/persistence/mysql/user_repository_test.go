package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/webshop/internal/account/domain"
	"github.com/wyfcoding/webshop/pkg/db/dbtest"
)

func TestUserRepository(t *testing.T) {
	d := dbtest.New(t, &domain.User{})
	repo := NewUserRepository(d.DB)
	ctx := context.Background()

	u := &domain.User{Username: "alice", IsActive: true, Address: "1 Main St", City: "Springfield", PostalCode: "12345"}
	require.NoError(t, repo.Save(ctx, u))

	require.NoError(t, repo.UpdateShipping(ctx, u.ID, domain.ShippingInfo{City: "Shelbyville"}))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShippingInfo{City: "Shelbyville"}, got.Shipping(), "omitted fields are cleared")

	_, err = repo.GetByID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdateShipping(ctx, 404, domain.ShippingInfo{}), domain.ErrUserNotFound)
}
