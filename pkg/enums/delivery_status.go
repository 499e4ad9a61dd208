package enums

import "fmt"

// DeliveryStatus is the externally-observed physical shipment signal.
// Uppercase values are intentional; they match the carrier API surface.
type DeliveryStatus string

const (
	DeliveryStatusPending         DeliveryStatus = "PENDING"
	DeliveryStatusShipmentCreated DeliveryStatus = "SHIPMENT_CREATED"
	DeliveryStatusInTransit       DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusOutForDelivery  DeliveryStatus = "OUT_FOR_DELIVERY"
	DeliveryStatusDelivered       DeliveryStatus = "DELIVERED"
	DeliveryStatusRTO             DeliveryStatus = "RTO"
	DeliveryStatusPrePickupCancel DeliveryStatus = "PRE_PICKUP_CANCEL"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusShipmentCreated,
	DeliveryStatusInTransit,
	DeliveryStatusOutForDelivery,
	DeliveryStatusDelivered,
	DeliveryStatusRTO,
	DeliveryStatusPrePickupCancel,
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
