package payments

import "time"

// VerifyInput identifies the order being checked plus whatever payment
// handles the order record carries. PaymentIntentID may be empty; absence
// does not mean unpaid, it just forces the customer-lookup path.
type VerifyInput struct {
	OrderID         string
	PaymentIntentID string
	Email           string
	Name            string
}

// PaymentDetails surfaces the charge facts shown on the order detail view.
type PaymentDetails struct {
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Verification is the oracle's answer. MatchCount discloses how many
// candidate payments matched when the lookup had to fall back to a broad
// receipt-email search; the details always describe the single best match.
type Verification struct {
	Verified   bool            `json:"verified"`
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	MatchCount int             `json:"matchCount,omitempty"`
	Details    *PaymentDetails `json:"details,omitempty"`
}
