package lifecycle

import (
	"fmt"

	"github.com/chowlabs/chow-backend/pkg/enums"
)

// Derive maps the pair of signal columns onto the canonical lifecycle status.
// Delivery facts outrank payment facts: a parcel that physically arrived is
// delivered no matter what the gateway last said. Unknown signal values are a
// programming error and surface as one, never as a silent default.
func Derive(delivery enums.DeliveryStatus, payment enums.PaymentStatus) (enums.OrderStatus, error) {
	if !delivery.IsValid() {
		return "", fmt.Errorf("derive: unknown delivery status %q", delivery)
	}
	if !payment.IsValid() {
		return "", fmt.Errorf("derive: unknown payment status %q", payment)
	}

	switch delivery {
	case enums.DeliveryStatusPrePickupCancel:
		return enums.OrderStatusCancelled, nil
	case enums.DeliveryStatusDelivered:
		return enums.OrderStatusDelivered, nil
	case enums.DeliveryStatusRTO:
		return enums.OrderStatusCancelled, nil
	case enums.DeliveryStatusOutForDelivery, enums.DeliveryStatusInTransit:
		return enums.OrderStatusShipped, nil
	}

	switch payment {
	case enums.PaymentStatusFailed:
		return enums.OrderStatusFailed, nil
	case enums.PaymentStatusPaid:
		return enums.OrderStatusConfirmed, nil
	}

	return enums.OrderStatusPending, nil
}
