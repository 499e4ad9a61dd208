package lifecycle

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	apperrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/enums"
)

// CheckInvariants verifies the consistency rules every committed order must
// satisfy. All violations are collected before returning so operators see the
// full picture, not just the first failure.
func CheckInvariants(order *models.Order) error {
	if order == nil {
		return apperrors.New(apperrors.CodeInternal, "nil order")
	}

	var violations error

	derived, err := Derive(order.DeliveryStatus, order.PaymentStatus)
	if err != nil {
		violations = multierr.Append(violations, err)
	} else if order.Status != derived {
		violations = multierr.Append(violations, fmt.Errorf(
			"status %q does not match derived %q", order.Status, derived))
	}

	hasWaybill := order.Waybill != nil && *order.Waybill != ""

	if order.DeliveryProvider == enums.DeliveryProviderSelfHandled && hasWaybill {
		violations = multierr.Append(violations, errors.New(
			"self-handled order carries a waybill"))
	}

	if order.DeliveryProvider == enums.DeliveryProviderCarrier {
		switch order.DeliveryStatus {
		case enums.DeliveryStatusDelivered:
			if !hasWaybill || order.ShipmentAttempts == 0 {
				violations = multierr.Append(violations, errors.New(
					"carrier order marked delivered without a created shipment"))
			}
		case enums.DeliveryStatusRTO:
			if !hasWaybill {
				violations = multierr.Append(violations, errors.New(
					"carrier order marked RTO without a created shipment"))
			}
		}
	}

	if order.LogisticsLossPaise < 0 {
		violations = multierr.Append(violations, errors.New(
			"logistics loss is negative"))
	}

	if violations == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.CodeInvariant, violations, "order invariant violated")
}
