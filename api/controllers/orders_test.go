package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ordersvc "github.com/chowlabs/chow-backend/internal/orders"
	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/delhivery"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/lifecycle"
	"github.com/chowlabs/chow-backend/pkg/logger"
)

type stubOrderService struct {
	order *models.Order
}

func (s stubOrderService) GetOrder(context.Context, uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (stubOrderService) ListOrders(context.Context, ordersvc.ListParams) (*ordersvc.ListResult, error) {
	return &ordersvc.ListResult{}, nil
}

func (stubOrderService) UpdateSignals(context.Context, uuid.UUID, lifecycle.SignalUpdate, enums.UpdateSource) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubOrderService) UpdateSignalsByWaybill(context.Context, string, enums.DeliveryStatus) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

type stubTracker struct {
	info   *delhivery.TrackingInfo
	err    error
	called int
}

func (s *stubTracker) Track(_ context.Context, waybill string) (*delhivery.TrackingInfo, error) {
	s.called++
	if s.err != nil {
		return nil, s.err
	}
	info := *s.info
	info.Waybill = waybill
	return &info, nil
}

func carrierOrder() *models.Order {
	waybill := "WB123456"
	return &models.Order{
		ID:               uuid.New(),
		DeliveryProvider: enums.DeliveryProviderCarrier,
		PaymentStatus:    enums.PaymentStatusPaid,
		DeliveryStatus:   enums.DeliveryStatusInTransit,
		Status:           enums.OrderStatusShipped,
		Waybill:          &waybill,
	}
}

func trackOrder(t *testing.T, svc ordersvc.Service, tracker ShipmentTracker, orderID uuid.UUID) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	log := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	r := chi.NewRouter()
	r.Get("/orders/{orderId}/track", OrderTrack(svc, tracker, log))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String()+"/track", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, envelope.Data
}

func TestOrderTrackEnrichesCarrierOrders(t *testing.T) {
	order := carrierOrder()
	tracker := &stubTracker{info: &delhivery.TrackingInfo{RawStatus: "Out for Delivery", Location: "Gorakhpur Hub"}}

	rec, data := trackOrder(t, stubOrderService{order: order}, tracker, order.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if tracker.called != 1 {
		t.Fatalf("tracker called %d times, want 1", tracker.called)
	}
	if got := data["carrier_status"]; got != "Out for Delivery" {
		t.Errorf("carrier_status = %v, want Out for Delivery", got)
	}
	if got := data["carrier_delivery_status"]; got != string(enums.DeliveryStatusOutForDelivery) {
		t.Errorf("carrier_delivery_status = %v, want %s", got, enums.DeliveryStatusOutForDelivery)
	}
	if got := data["waybill"]; got != "WB123456" {
		t.Errorf("waybill = %v, want WB123456", got)
	}
}

func TestOrderTrackSkipsCarrierForSelfHandled(t *testing.T) {
	order := carrierOrder()
	order.DeliveryProvider = enums.DeliveryProviderSelfHandled
	order.Waybill = nil
	tracker := &stubTracker{info: &delhivery.TrackingInfo{RawStatus: "In Transit"}}

	rec, data := trackOrder(t, stubOrderService{order: order}, tracker, order.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if tracker.called != 0 {
		t.Fatalf("tracker called %d times, want 0", tracker.called)
	}
	if _, present := data["carrier_status"]; present {
		t.Error("carrier_status should not be set for self-handled orders")
	}
}

func TestOrderTrackToleratesCarrierFailure(t *testing.T) {
	order := carrierOrder()
	tracker := &stubTracker{err: pkgerrors.New(pkgerrors.CodeDependency, "carrier timeout")}

	rec, data := trackOrder(t, stubOrderService{order: order}, tracker, order.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := data["delivery_status"]; got != string(enums.DeliveryStatusInTransit) {
		t.Errorf("delivery_status = %v, want %s", got, enums.DeliveryStatusInTransit)
	}
	if _, present := data["carrier_status"]; present {
		t.Error("carrier_status should be absent when the carrier lookup fails")
	}
}

func TestOrderTrackUnknownOrder(t *testing.T) {
	rec, _ := trackOrder(t, stubOrderService{}, nil, uuid.New())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
