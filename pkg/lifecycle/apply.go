package lifecycle

import (
	"time"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	apperrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/enums"
)

// SignalUpdate is a partial update against an order's signal columns. Nil
// fields are untouched.
type SignalUpdate struct {
	Delivery *enums.DeliveryStatus
	Payment  *enums.PaymentStatus
}

// Changes is the exact field set the caller must persist in one atomic write.
// A zero Changes value means the update was a no-op.
type Changes struct {
	Delivery *enums.DeliveryStatus
	Payment  *enums.PaymentStatus
	Status   *enums.OrderStatus

	ConfirmedAt *time.Time
	CancelledAt *time.Time
	DeliveredAt *time.Time
}

// Empty reports whether there is nothing to persist.
func (c Changes) Empty() bool {
	return c.Delivery == nil && c.Payment == nil && c.Status == nil &&
		c.ConfirmedAt == nil && c.CancelledAt == nil && c.DeliveredAt == nil
}

// Updates renders the change set as column updates for the guarded write.
func (c Changes) Updates() map[string]any {
	out := map[string]any{}
	if c.Delivery != nil {
		out["delivery_status"] = *c.Delivery
	}
	if c.Payment != nil {
		out["payment_status"] = *c.Payment
	}
	if c.Status != nil {
		out["status"] = *c.Status
	}
	if c.ConfirmedAt != nil {
		out["confirmed_at"] = *c.ConfirmedAt
	}
	if c.CancelledAt != nil {
		out["cancelled_at"] = *c.CancelledAt
	}
	if c.DeliveredAt != nil {
		out["delivered_at"] = *c.DeliveredAt
	}
	return out
}

// ApplySignals runs the full reconciliation pipeline against an in-memory
// order and returns the field set to persist. It performs no I/O.
//
// Repeated identical signals are dropped before any validation so at-least-once
// webhook delivery is a safe no-op. Permission and transition failures are
// returned before anything else runs, and invariants are checked against the
// prospective merged state so an invalid combination is never persisted.
func ApplySignals(order *models.Order, update SignalUpdate, source enums.UpdateSource, now time.Time) (Changes, error) {
	if order == nil {
		return Changes{}, apperrors.New(apperrors.CodeInternal, "nil order")
	}

	// Drop fields that repeat the current value.
	if update.Delivery != nil && *update.Delivery == order.DeliveryStatus {
		update.Delivery = nil
	}
	if update.Payment != nil && *update.Payment == order.PaymentStatus {
		update.Payment = nil
	}
	if update.Delivery == nil && update.Payment == nil {
		return Changes{}, nil
	}

	perms := PermissionsFor(order.DeliveryProvider, source)
	if update.Delivery != nil && !perms.Delivery {
		return Changes{}, apperrors.New(apperrors.CodeForbidden, "source may not mutate the delivery signal").
			WithDetails(map[string]string{
				"source":   source.String(),
				"provider": order.DeliveryProvider.String(),
			})
	}
	if update.Payment != nil && !perms.Payment {
		return Changes{}, apperrors.New(apperrors.CodeForbidden, "source may not mutate the payment signal").
			WithDetails(map[string]string{
				"source":   source.String(),
				"provider": order.DeliveryProvider.String(),
			})
	}

	if update.Delivery != nil {
		if err := ValidateTransition(order.DeliveryStatus, *update.Delivery); err != nil {
			return Changes{}, err
		}
	}

	prospective := *order
	if update.Delivery != nil {
		prospective.DeliveryStatus = *update.Delivery
	}
	if update.Payment != nil {
		prospective.PaymentStatus = *update.Payment
	}

	derived, err := Derive(prospective.DeliveryStatus, prospective.PaymentStatus)
	if err != nil {
		return Changes{}, apperrors.Wrap(apperrors.CodeInternal, err, "deriving lifecycle status")
	}
	prospective.Status = derived

	if err := CheckInvariants(&prospective); err != nil {
		return Changes{}, err
	}

	changes := Changes{
		Delivery: update.Delivery,
		Payment:  update.Payment,
	}
	if derived != order.Status {
		changes.Status = &derived
	}

	if update.Delivery != nil && *update.Delivery == enums.DeliveryStatusDelivered && order.DeliveredAt == nil {
		t := now
		changes.DeliveredAt = &t
	}
	if derived == enums.OrderStatusCancelled && order.CancelledAt == nil {
		t := now
		changes.CancelledAt = &t
	}
	if update.Payment != nil && *update.Payment == enums.PaymentStatusPaid && order.ConfirmedAt == nil {
		t := now
		changes.ConfirmedAt = &t
	}

	return changes, nil
}
