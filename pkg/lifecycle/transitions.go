package lifecycle

import (
	"fmt"

	apperrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/enums"
)

// transitionTable is the directed edge set over delivery signals. Edges back
// to PENDING and out of DELIVERED exist only for administrative corrections;
// they carry no side effects.
var transitionTable = map[enums.DeliveryStatus][]enums.DeliveryStatus{
	enums.DeliveryStatusPending: {
		enums.DeliveryStatusShipmentCreated,
		enums.DeliveryStatusOutForDelivery,
		enums.DeliveryStatusPrePickupCancel,
	},
	enums.DeliveryStatusShipmentCreated: {
		enums.DeliveryStatusInTransit,
		enums.DeliveryStatusOutForDelivery,
		enums.DeliveryStatusDelivered,
		enums.DeliveryStatusRTO,
		enums.DeliveryStatusPrePickupCancel,
	},
	enums.DeliveryStatusInTransit: {
		enums.DeliveryStatusOutForDelivery,
		enums.DeliveryStatusDelivered,
		enums.DeliveryStatusRTO,
	},
	enums.DeliveryStatusOutForDelivery: {
		enums.DeliveryStatusDelivered,
		enums.DeliveryStatusRTO,
		enums.DeliveryStatusPrePickupCancel,
		enums.DeliveryStatusPending,
	},
	enums.DeliveryStatusDelivered: {
		enums.DeliveryStatusOutForDelivery,
		enums.DeliveryStatusPrePickupCancel,
		enums.DeliveryStatusPending,
	},
	enums.DeliveryStatusRTO: {
		enums.DeliveryStatusPrePickupCancel,
	},
	enums.DeliveryStatusPrePickupCancel: {},
}

// AllowedNext returns the delivery signals reachable from current. An unset
// current signal may only move to PENDING.
func AllowedNext(current enums.DeliveryStatus) []enums.DeliveryStatus {
	if current == "" {
		return []enums.DeliveryStatus{enums.DeliveryStatusPending}
	}
	next, ok := transitionTable[current]
	if !ok {
		return nil
	}
	out := make([]enums.DeliveryStatus, len(next))
	copy(out, next)
	return out
}

// ValidateTransition reports whether current -> requested is a legal edge.
// Denials carry the violated edge in the error details.
func ValidateTransition(current, requested enums.DeliveryStatus) error {
	if !requested.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown delivery status %q", requested))
	}
	for _, allowed := range AllowedNext(current) {
		if allowed == requested {
			return nil
		}
	}
	return apperrors.New(apperrors.CodeStateConflict, "delivery transition not allowed").
		WithDetails(map[string]string{
			"from": current.String(),
			"to":   requested.String(),
		})
}
