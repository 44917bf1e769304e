package affiliates

import (
	"github.com/shopspring/decimal"

	"github.com/onyxprocessing/opsdash-backend/pkg/airtable"
)

const (
	fieldCode     = "Code"
	fieldShare    = "share"
	fieldDiscount = "discount"
	fieldName     = "name"
	fieldEmail    = "email"
)

// Affiliate is a referral partner. Share is their percent of the profit
// pool on referred orders; Discount is the percent taken off the
// customer's subtotal when their code is applied.
type Affiliate struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name,omitempty"`
	Email    string          `json:"email,omitempty"`
	Share    decimal.Decimal `json:"share"`
	Discount decimal.Decimal `json:"discount"`
}

func affiliateFromRecord(rec airtable.Record) Affiliate {
	return Affiliate{
		ID:       rec.ID,
		Code:     rec.String(fieldCode),
		Name:     rec.String(fieldName),
		Email:    rec.String(fieldEmail),
		Share:    decimal.NewFromFloat(rec.Float(fieldShare)),
		Discount: decimal.NewFromFloat(rec.Float(fieldDiscount)),
	}
}
