package orders

import (
	"time"

	"github.com/onyxprocessing/opsdash-backend/internal/payments"
)

// ListInput captures the order list query.
type ListInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// OrderSummary is one row of the triage list.
type OrderSummary struct {
	ID              string    `json:"id"`
	CheckoutID      string    `json:"checkoutId"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Status          string    `json:"status"`
	Total           string    `json:"total"`
	ItemCount       int       `json:"itemCount"`
	Completed       bool      `json:"completed"`
	Partial         bool      `json:"partial"`
	Shipped         bool      `json:"shipped"`
	Tracking        string    `json:"tracking,omitempty"`
	PaymentVerified bool      `json:"paymentVerified"`
	PaymentStatus   string    `json:"paymentStatus,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// OrderList is one ranked page plus pagination facts about the full set.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
}

// OrderDetail pairs the full order with its payment verification.
type OrderDetail struct {
	Order          Order                 `json:"order"`
	PartialDetails map[string]Progress   `json:"partialDetails,omitempty"`
	Payment        payments.Verification `json:"payment"`
}

// UpdateInput is a sparse patch; nil fields are left untouched.
type UpdateInput struct {
	Status                *string
	Tracking              *string
	Notes                 *string
	ConfirmationEmailSent *bool
	ShippingEmailSent     *bool
	StripePaymentID       *string
}

// FulfillmentInput is a staff fulfillment edit. Entries are keyed by the
// wire form "{productId}-{selectedWeight}". A tracking number supplied
// here persists in the same write as the derived flags.
type FulfillmentInput struct {
	Entries  map[string]Progress
	Tracking *string
}
