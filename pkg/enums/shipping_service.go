package enums

import "fmt"

// ShippingService is the USPS service level requested for a label.
type ShippingService string

const (
	ShippingServiceFirst    ShippingService = "First"
	ShippingServicePriority ShippingService = "Priority"
	ShippingServiceExpress  ShippingService = "Express"
)

var validShippingServices = []ShippingService{
	ShippingServiceFirst,
	ShippingServicePriority,
	ShippingServiceExpress,
}

// String implements fmt.Stringer.
func (s ShippingService) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingService.
func (s ShippingService) IsValid() bool {
	for _, candidate := range validShippingServices {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingService converts raw input into a ShippingService.
func ParseShippingService(value string) (ShippingService, error) {
	for _, candidate := range validShippingServices {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping service %q", value)
}
