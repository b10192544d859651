package sales

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSale(t *testing.T) *Sale {
	t.Helper()
	sale, err := NewSale(uuid.New(), uuid.New(), "FR A/0001", "A", 1, PaymentCash)
	require.NoError(t, err)
	return sale
}

func TestPaymentMethod_IsValid(t *testing.T) {
	tests := []struct {
		method PaymentMethod
		valid  bool
	}{
		{PaymentCash, true},
		{PaymentCard, true},
		{PaymentMobile, true},
		{PaymentTransfer, true},
		{PaymentMethod("cheque"), false},
		{PaymentMethod(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.method.IsValid())
		})
	}
}

func TestNewSale_Invalid(t *testing.T) {
	_, err := NewSale(uuid.New(), uuid.New(), "", "A", 1, PaymentCash)
	assert.Error(t, err)

	_, err = NewSale(uuid.New(), uuid.New(), "FR A/0001", "A", 1, PaymentMethod("barter"))
	assert.Error(t, err)
}

func TestSale_AddItem(t *testing.T) {
	sale := newTestSale(t)

	item, err := sale.AddItem(uuid.New(), decimal.NewFromInt(3), decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, item.Total.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, sale.ID, item.SaleID)
	assert.Equal(t, 1, sale.ItemCount())
}

func TestSale_AddItem_Invalid(t *testing.T) {
	sale := newTestSale(t)

	_, err := sale.AddItem(uuid.New(), decimal.Zero, decimal.NewFromInt(100), decimal.Zero)
	assert.Error(t, err)

	_, err = sale.AddItem(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(-1), decimal.Zero)
	assert.Error(t, err)
}

func TestSale_SetAmounts_SealsHash(t *testing.T) {
	sale := newTestSale(t)
	sale.SetAmounts(
		decimal.NewFromInt(300), decimal.Zero, decimal.Zero,
		decimal.NewFromInt(300), decimal.NewFromInt(500), decimal.NewFromInt(200),
	)

	require.Len(t, sale.HashCode, 16)
	want := ComputeHashCode(sale.ReceiptNumber, sale.CreatedAt, decimal.NewFromInt(300), sale.FiscalNumber)
	assert.Equal(t, want, sale.HashCode)
}

func TestComputeHashCode_Deterministic(t *testing.T) {
	ts := time.Date(2026, time.September, 1, 9, 30, 0, 0, time.UTC)
	a := ComputeHashCode("FR A/0001", ts, decimal.NewFromInt(300), 1)
	b := ComputeHashCode("FR A/0001", ts, decimal.NewFromInt(300), 1)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestComputeHashCode_SensitiveToInputs(t *testing.T) {
	ts := time.Date(2026, time.September, 1, 9, 30, 0, 0, time.UTC)
	base := ComputeHashCode("FR A/0001", ts, decimal.NewFromInt(300), 1)

	assert.NotEqual(t, base, ComputeHashCode("FR A/0002", ts, decimal.NewFromInt(300), 1))
	assert.NotEqual(t, base, ComputeHashCode("FR A/0001", ts.Add(time.Second), decimal.NewFromInt(300), 1))
	assert.NotEqual(t, base, ComputeHashCode("FR A/0001", ts, decimal.NewFromInt(301), 1))
	assert.NotEqual(t, base, ComputeHashCode("FR A/0001", ts, decimal.NewFromInt(300), 2))
}
