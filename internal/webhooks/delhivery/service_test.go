package delhiverywebhook

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
)

type appliedSignal struct {
	waybill string
	status  enums.DeliveryStatus
}

type stubOrders struct {
	applied []appliedSignal
	err     error
}

func (s *stubOrders) UpdateSignalsByWaybill(ctx context.Context, waybill string, delivery enums.DeliveryStatus) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.applied = append(s.applied, appliedSignal{waybill: waybill, status: delivery})
	return &models.Order{}, nil
}

func newTestService(t *testing.T, orders *stubOrders) *Service {
	t.Helper()

	log := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(orders, log, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func scanEvent(status string) *Event {
	return &Event{Shipment: Shipment{
		AWB:    "WB123456",
		Status: ScanStatus{Status: status},
	}}
}

func TestHandleEventAppliesMappedStatus(t *testing.T) {
	orders := &stubOrders{}
	svc := newTestService(t, orders)

	if err := svc.HandleEvent(context.Background(), scanEvent("Out for Delivery")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(orders.applied) != 1 {
		t.Fatalf("expected one signal, got %d", len(orders.applied))
	}
	got := orders.applied[0]
	if got.waybill != "WB123456" || got.status != enums.DeliveryStatusOutForDelivery {
		t.Fatalf("wrong signal applied: %+v", got)
	}
}

func TestHandleEventIgnoresUnmappedStatus(t *testing.T) {
	orders := &stubOrders{}
	svc := newTestService(t, orders)

	if err := svc.HandleEvent(context.Background(), scanEvent("Handed to Vendor")); err != nil {
		t.Fatalf("unmapped statuses must be acknowledged, got %v", err)
	}
	if len(orders.applied) != 0 {
		t.Fatalf("unmapped status must not produce a signal")
	}
}

func TestHandleEventAcksUnknownWaybill(t *testing.T) {
	orders := &stubOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	svc := newTestService(t, orders)

	if err := svc.HandleEvent(context.Background(), scanEvent("Delivered")); err != nil {
		t.Fatalf("unknown waybills must be acknowledged, got %v", err)
	}
}

func TestHandleEventAcksStaleTransition(t *testing.T) {
	orders := &stubOrders{err: pkgerrors.New(pkgerrors.CodeStateConflict, "delivery transition not allowed")}
	svc := newTestService(t, orders)

	if err := svc.HandleEvent(context.Background(), scanEvent("In Transit")); err != nil {
		t.Fatalf("stale transitions must be acknowledged, got %v", err)
	}
}

func TestHandleEventSurfacesWriteFailures(t *testing.T) {
	orders := &stubOrders{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	svc := newTestService(t, orders)

	if err := svc.HandleEvent(context.Background(), scanEvent("Delivered")); err == nil {
		t.Fatalf("infrastructure failures must propagate for carrier retry")
	}
}

func TestHandleEventRejectsMissingWaybill(t *testing.T) {
	svc := newTestService(t, &stubOrders{})

	err := svc.HandleEvent(context.Background(), &Event{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
