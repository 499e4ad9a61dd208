package lifecycle

import (
	"testing"

	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	apperrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/enums"
)

func consistentOrder() *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		DeliveryProvider: enums.DeliveryProviderCarrier,
		PaymentStatus:    enums.PaymentStatusPending,
		DeliveryStatus:   enums.DeliveryStatusPending,
		Status:           enums.OrderStatusPending,
	}
}

func TestCheckInvariantsConsistentOrder(t *testing.T) {
	if err := CheckInvariants(consistentOrder()); err != nil {
		t.Fatalf("expected consistent order to pass, got %v", err)
	}
}

func TestCheckInvariantsStatusDrift(t *testing.T) {
	order := consistentOrder()
	order.Status = enums.OrderStatusConfirmed

	err := CheckInvariants(order)
	if !apperrors.IsCode(err, apperrors.CodeInvariant) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestCheckInvariantsSelfHandledWaybill(t *testing.T) {
	waybill := "DHL123"
	order := consistentOrder()
	order.DeliveryProvider = enums.DeliveryProviderSelfHandled
	order.Waybill = &waybill

	err := CheckInvariants(order)
	if !apperrors.IsCode(err, apperrors.CodeInvariant) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestCheckInvariantsDeliveredWithoutShipment(t *testing.T) {
	order := consistentOrder()
	order.DeliveryStatus = enums.DeliveryStatusDelivered
	order.Status = enums.OrderStatusDelivered

	err := CheckInvariants(order)
	if !apperrors.IsCode(err, apperrors.CodeInvariant) {
		t.Fatalf("expected invariant violation, got %v", err)
	}

	waybill := "WB42"
	order.Waybill = &waybill
	order.ShipmentAttempts = 1
	if err := CheckInvariants(order); err != nil {
		t.Fatalf("expected delivered order with shipment to pass, got %v", err)
	}
}

func TestCheckInvariantsRTOWithoutShipment(t *testing.T) {
	order := consistentOrder()
	order.DeliveryStatus = enums.DeliveryStatusRTO
	order.Status = enums.OrderStatusCancelled

	err := CheckInvariants(order)
	if !apperrors.IsCode(err, apperrors.CodeInvariant) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}
