package catalog

import (
	"testing"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, stock, minStock int64) *Product {
	t.Helper()
	p, err := NewProduct(uuid.New(), "Test Product", "SKU-001",
		decimal.NewFromInt(100), decimal.NewFromInt(stock), decimal.NewFromInt(minStock))
	require.NoError(t, err)
	return p
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		min     int64
		want    StockStatus
	}{
		{"above threshold", 10, 5, StatusInStock},
		{"just above threshold", 6, 5, StatusInStock},
		{"at threshold", 5, 5, StatusLowStock},
		{"below threshold", 2, 5, StatusLowStock},
		{"empty", 0, 5, StatusOutOfStock},
		{"no threshold set", 1, 0, StatusInStock},
		{"empty without threshold", 0, 0, StatusOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusFor(decimal.NewFromInt(tt.current), decimal.NewFromInt(tt.min))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProduct_DerivesStatus(t *testing.T) {
	p := newTestProduct(t, 3, 5)
	assert.Equal(t, StatusLowStock, p.Status)
}

func TestNewProduct_Invalid(t *testing.T) {
	_, err := NewProduct(uuid.New(), "", "SKU-001",
		decimal.NewFromInt(100), decimal.NewFromInt(10), decimal.NewFromInt(5))
	assert.Error(t, err)

	_, err = NewProduct(uuid.New(), "Name", "SKU-001",
		decimal.NewFromInt(100), decimal.NewFromInt(-1), decimal.NewFromInt(5))
	assert.Error(t, err)
}

func TestProduct_DecreaseStock(t *testing.T) {
	p := newTestProduct(t, 10, 5)

	err := p.DecreaseStock(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.True(t, p.CurrentStock.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, StatusInStock, p.Status)

	err = p.DecreaseStock(decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, p.CurrentStock.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, StatusLowStock, p.Status)

	err = p.DecreaseStock(decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, p.CurrentStock.IsZero())
	assert.Equal(t, StatusOutOfStock, p.Status)
}

func TestProduct_DecreaseStock_Insufficient(t *testing.T) {
	p := newTestProduct(t, 2, 5)

	err := p.DecreaseStock(decimal.NewFromInt(3))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	// Balance untouched on failure
	assert.True(t, p.CurrentStock.Equal(decimal.NewFromInt(2)))
}

func TestProduct_DecreaseStock_InvalidQuantity(t *testing.T) {
	p := newTestProduct(t, 10, 5)

	assert.Error(t, p.DecreaseStock(decimal.Zero))
	assert.Error(t, p.DecreaseStock(decimal.NewFromInt(-1)))
}

func TestProduct_IncreaseStock(t *testing.T) {
	p := newTestProduct(t, 0, 5)
	assert.Equal(t, StatusOutOfStock, p.Status)

	err := p.IncreaseStock(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, StatusLowStock, p.Status)

	err = p.IncreaseStock(decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.True(t, p.CurrentStock.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, StatusInStock, p.Status)
}
