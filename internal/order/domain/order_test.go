package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	items := []LineItem{{ProductID: 1, Quantity: 2}}

	tests := []struct {
		name    string
		userID  uint
		total   string
		items   []LineItem
		wantErr bool
	}{
		{"valid", 1, "19.98", items, false},
		{"zero total", 1, "0", items, false},
		{"anonymous", 0, "1", items, true},
		{"negative total", 1, "-1", items, true},
		{"no items", 1, "1", nil, true},
		{"zero quantity", 1, "1", []LineItem{{ProductID: 1, Quantity: 0}}, true},
		{"missing product", 1, "1", []LineItem{{Quantity: 1}}, true},
		{"two decimal places", 1, "9.99", items, false},
		{"three decimal places", 1, "9.987", items, true},
		{"trailing zero beyond cents", 1, "9.990", items, true},
		{"largest total", 1, "99999999.99", items, false},
		{"nine integer digits", 1, "100000000", items, true},
		{"far too large", 1, "123456789012.00", items, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder(tt.userID, decimal.RequireFromString(tt.total), tt.items)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOrder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, o.UserID)
		})
	}
}

func TestNewOrderCopiesItems(t *testing.T) {
	items := []LineItem{{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 3}}
	o, err := NewOrder(1, decimal.NewFromInt(4), items)
	require.NoError(t, err)

	items[0].Quantity = 99
	assert.Equal(t, []LineItem{{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 3}}, o.Items)
}

func TestOrderDate(t *testing.T) {
	o := &Order{CreatedAt: time.Date(2024, 3, 9, 23, 10, 0, 0, time.UTC)}
	assert.Equal(t, "2024-03-09", o.Date())
}
