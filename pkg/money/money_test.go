package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionBreakdownExact(t *testing.T) {
	got := Commission(
		decimal.NewFromInt(100),
		decimal.NewFromInt(10),
		decimal.NewFromInt(20),
	)

	assert.Equal(t, "10.00", Cents(got.DiscountAmount))
	assert.Equal(t, "90.00", Cents(got.Subtotal))
	assert.Equal(t, "76.50", Cents(got.CommissionBase))
	assert.Equal(t, "15.30", Cents(got.Commission))
}

func TestCommissionZeroDiscount(t *testing.T) {
	got := Commission(decimal.NewFromInt(50), decimal.Zero, decimal.NewFromInt(10))
	require.True(t, got.Subtotal.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "4.25", Cents(got.Commission))
}

func TestCommissionZeroItems(t *testing.T) {
	got := Commission(decimal.Zero, decimal.NewFromInt(10), decimal.NewFromInt(20))
	assert.True(t, got.Commission.IsZero())
}

func TestFlatShippingChargeIsSingleSource(t *testing.T) {
	assert.Equal(t, "9.99", Cents(FlatShippingCharge))
}

func TestProfitUsesMarginFactor(t *testing.T) {
	assert.Equal(t, "85.00", Cents(Profit(decimal.NewFromInt(100))))
}
