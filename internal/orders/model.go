package orders

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/onyxprocessing/opsdash-backend/pkg/airtable"
	"github.com/onyxprocessing/opsdash-backend/pkg/enums"
)

// Record store column names for the orders table.
const (
	fieldCheckoutID            = "checkoutId"
	fieldFirstName             = "firstname"
	fieldLastName              = "lastname"
	fieldEmail                 = "email"
	fieldPhone                 = "phone"
	fieldAddress               = "address"
	fieldCity                  = "city"
	fieldState                 = "state"
	fieldZip                   = "zip"
	fieldStatus                = "status"
	fieldTotal                 = "total"
	fieldCartItems             = "cartItems"
	fieldCompleted             = "completed"
	fieldPartial               = "partial"
	fieldPartialDetails        = "partialDetails"
	fieldTracking              = "tracking"
	fieldShipped               = "shipped"
	fieldStripePaymentID       = "stripePaymentId"
	fieldConfirmationEmailSent = "confirmationEmailSent"
	fieldShippingEmailSent     = "shippingEmailSent"
	fieldNotes                 = "notes"
	fieldAffiliateCode         = "affiliateCode"
	fieldCreatedAt             = "createdAt"
	fieldUpdatedAt             = "updatedAt"
)

// Order is one checkout session, the unit of fulfillment and payment
// tracking. The record store is the sole owner; nothing here survives
// a request.
type Order struct {
	ID         string `json:"id"`
	CheckoutID string `json:"checkoutId"`

	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`

	Status    enums.OrderStatus `json:"status"`
	Total     decimal.Decimal   `json:"total"`
	CartItems []CartItem        `json:"cartItems"`

	Completed      bool                        `json:"completed"`
	Partial        bool                        `json:"partial"`
	PartialDetails map[FulfillmentKey]Progress `json:"-"`
	Tracking       string                      `json:"tracking,omitempty"`
	Shipped        bool                        `json:"shipped"`

	StripePaymentID string `json:"stripePaymentId,omitempty"`

	ConfirmationEmailSent bool   `json:"confirmationEmailSent"`
	ShippingEmailSent     bool   `json:"shippingEmailSent"`
	Notes                 string `json:"notes,omitempty"`
	AffiliateCode         string `json:"affiliateCode,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartItem is one product+weight+quantity entry in the order's cart
// snapshot. The embedded product data is denormalized at checkout time
// and may be stale relative to the live catalog.
type CartItem struct {
	ProductID      int             `json:"productId"`
	SelectedWeight string          `json:"selectedWeight"`
	Quantity       int             `json:"quantity"`
	Product        ProductSnapshot `json:"product"`
}

// ProductSnapshot is the cart-time copy of the purchased product.
type ProductSnapshot struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Type  string          `json:"type,omitempty"`
}

// FulfillmentKey identifies the granularity at which shipped quantities
// are tracked. Two cart lines with the same product+weight share one
// entry; repeated identical lines are not individually trackable.
type FulfillmentKey struct {
	ProductID int
	Weight    string
}

func (k FulfillmentKey) String() string {
	return fmt.Sprintf("%d-%s", k.ProductID, k.Weight)
}

// ParseFulfillmentKey decodes the store's "{productId}-{weight}" form.
// Only the first dash separates the id; weights may contain dashes.
func ParseFulfillmentKey(raw string) (FulfillmentKey, error) {
	idx := strings.Index(raw, "-")
	if idx <= 0 {
		return FulfillmentKey{}, fmt.Errorf("malformed fulfillment key %q", raw)
	}
	id, err := strconv.Atoi(raw[:idx])
	if err != nil {
		return FulfillmentKey{}, fmt.Errorf("malformed fulfillment key %q: %w", raw, err)
	}
	return FulfillmentKey{ProductID: id, Weight: raw[idx+1:]}, nil
}

// Progress tracks shipped units against ordered units for one key.
type Progress struct {
	Fulfilled int `json:"fulfilled"`
	Total     int `json:"total"`
}

// Key returns the fulfillment key for a cart line.
func (c CartItem) Key() FulfillmentKey {
	return FulfillmentKey{ProductID: c.ProductID, Weight: c.SelectedWeight}
}

// orderFromRecord maps a raw field bag into an Order. Decoding is
// deliberately tolerant: staff edit these rows by hand, and a malformed
// cell must rank as lowest priority rather than break the whole list.
func orderFromRecord(rec airtable.Record) Order {
	order := Order{
		ID:                    rec.ID,
		CheckoutID:            rec.String(fieldCheckoutID),
		FirstName:             rec.String(fieldFirstName),
		LastName:              rec.String(fieldLastName),
		Email:                 rec.String(fieldEmail),
		Phone:                 rec.String(fieldPhone),
		Address:               rec.String(fieldAddress),
		City:                  rec.String(fieldCity),
		State:                 rec.String(fieldState),
		Zip:                   rec.String(fieldZip),
		Status:                enums.OrderStatus(rec.String(fieldStatus)),
		Completed:             rec.Bool(fieldCompleted),
		Partial:               rec.Bool(fieldPartial),
		Tracking:              rec.String(fieldTracking),
		Shipped:               rec.Bool(fieldShipped),
		StripePaymentID:       rec.String(fieldStripePaymentID),
		ConfirmationEmailSent: rec.Bool(fieldConfirmationEmailSent),
		ShippingEmailSent:     rec.Bool(fieldShippingEmailSent),
		Notes:                 rec.String(fieldNotes),
		AffiliateCode:         rec.String(fieldAffiliateCode),
		CreatedAt:             rec.Time(fieldCreatedAt),
		UpdatedAt:             rec.Time(fieldUpdatedAt),
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = rec.CreatedTime
	}

	if total, err := decimal.NewFromString(rec.String(fieldTotal)); err == nil {
		order.Total = total
	}

	if raw := rec.String(fieldCartItems); raw != "" {
		var items []CartItem
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			order.CartItems = items
		}
	}

	if raw := rec.String(fieldPartialDetails); raw != "" {
		var encoded map[string]Progress
		if err := json.Unmarshal([]byte(raw), &encoded); err == nil {
			order.PartialDetails = decodePartialDetails(encoded)
		}
	}

	return order
}

func decodePartialDetails(encoded map[string]Progress) map[FulfillmentKey]Progress {
	details := make(map[FulfillmentKey]Progress, len(encoded))
	for raw, progress := range encoded {
		key, err := ParseFulfillmentKey(raw)
		if err != nil {
			continue
		}
		details[key] = progress
	}
	return details
}

func encodePartialDetails(details map[FulfillmentKey]Progress) (string, error) {
	encoded := make(map[string]Progress, len(details))
	for key, progress := range details {
		encoded[key.String()] = progress
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
