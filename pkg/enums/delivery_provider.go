package enums

import "fmt"

// DeliveryProvider identifies who fulfils an order. It is fixed at order
// creation based on destination eligibility and never changes afterwards.
type DeliveryProvider string

const (
	DeliveryProviderCarrier     DeliveryProvider = "carrier"
	DeliveryProviderSelfHandled DeliveryProvider = "self_handled"
)

var validDeliveryProviders = []DeliveryProvider{
	DeliveryProviderCarrier,
	DeliveryProviderSelfHandled,
}

// String implements fmt.Stringer.
func (p DeliveryProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known DeliveryProvider.
func (p DeliveryProvider) IsValid() bool {
	for _, candidate := range validDeliveryProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseDeliveryProvider converts raw input into a DeliveryProvider.
func ParseDeliveryProvider(value string) (DeliveryProvider, error) {
	for _, candidate := range validDeliveryProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery provider %q", value)
}
