// Package money centralizes the business constants and currency arithmetic
// shared by the commission, profit, and shipping surfaces. The 85% gross
// margin assumption and the flat shipping charge live here and nowhere else.
package money

import "github.com/shopspring/decimal"

var (
	// GrossMarginFactor is the share of the discounted subtotal treated as
	// profit: a fixed 15% cost-of-goods assumption.
	GrossMarginFactor = decimal.RequireFromString("0.85")

	// FlatShippingCharge is the shipping fee collected on every order.
	FlatShippingCharge = decimal.RequireFromString("9.99")

	hundred = decimal.NewFromInt(100)
)

// CommissionBreakdown carries every intermediate of the affiliate
// commission computation so reports can show their work.
type CommissionBreakdown struct {
	ItemsTotal     decimal.Decimal `json:"items_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	CommissionBase decimal.Decimal `json:"commission_base"`
	Commission     decimal.Decimal `json:"commission"`
}

// Commission computes the affiliate payout for an order:
// discount comes off the items total, the margin factor converts the
// discounted subtotal into the profit pool, and the affiliate takes
// sharePercent of that pool.
func Commission(itemsTotal, discountPercent, sharePercent decimal.Decimal) CommissionBreakdown {
	discountAmount := itemsTotal.Mul(discountPercent).Div(hundred)
	subtotal := itemsTotal.Sub(discountAmount)
	base := subtotal.Mul(GrossMarginFactor)
	commission := base.Mul(sharePercent).Div(hundred)
	return CommissionBreakdown{
		ItemsTotal:     itemsTotal,
		DiscountAmount: discountAmount,
		Subtotal:       subtotal,
		CommissionBase: base,
		Commission:     commission,
	}
}

// Profit returns the house profit pool for a discounted subtotal.
func Profit(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(GrossMarginFactor)
}

// Cents renders a decimal amount rounded to the cent.
func Cents(d decimal.Decimal) string {
	return d.StringFixed(2)
}
