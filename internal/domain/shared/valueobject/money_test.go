package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), USD)
	require.NoError(t, err)
	assert.Equal(t, USD, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestMoney_Add(t *testing.T) {
	a := NewMoneyMZNFromFloat(100.50)
	b := NewMoneyMZNFromFloat(49.50)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(150)))
}

func TestMoney_Add_CurrencyMismatch(t *testing.T) {
	a := NewMoneyMZNFromFloat(100)
	b, err := NewMoney(decimal.NewFromInt(100), USD)
	require.NoError(t, err)

	_, err = a.Add(b)
	assert.Error(t, err)
}

func TestMoney_Sub(t *testing.T) {
	a := NewMoneyMZNFromFloat(1000)
	b := NewMoneyMZNFromFloat(50)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(950)))
}

func TestMoney_Mul(t *testing.T) {
	m := NewMoneyMZNFromFloat(50)
	doubled := m.Mul(decimal.NewFromInt(2))
	assert.True(t, doubled.Amount().Equal(decimal.NewFromInt(100)))
}

func TestMoney_Comparisons(t *testing.T) {
	small := NewMoneyMZNFromFloat(10)
	big := NewMoneyMZNFromFloat(20)

	assert.True(t, small.LessThan(big))
	assert.False(t, big.LessThan(small))
	assert.True(t, ZeroMoney().IsZero())
	assert.True(t, small.Equal(NewMoneyMZNFromFloat(10)))

	neg, err := ZeroMoney().Sub(small)
	require.NoError(t, err)
	assert.True(t, neg.IsNegative())
}

func TestMoney_String(t *testing.T) {
	m := NewMoneyMZNFromFloat(1234.5)
	assert.Equal(t, "1234.50 MZN", m.String())
}
