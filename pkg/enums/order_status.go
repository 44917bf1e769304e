package enums

import "fmt"

// OrderStatus tracks how far a checkout session progressed. The wire values
// are the stages the storefront writes into the record store; StatusPlaced
// keeps its historical "payment_selection" value, which marks an order as
// placed and awaiting (or mid) payment.
type OrderStatus string

const (
	OrderStatusPersonalInfo OrderStatus = "personal_info"
	OrderStatusShippingInfo OrderStatus = "shipping_info"
	OrderStatusPlaced       OrderStatus = "payment_selection"
	OrderStatusCompleted    OrderStatus = "completed"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPersonalInfo,
	OrderStatusShippingInfo,
	OrderStatusPlaced,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
