package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/api/responses"
	ordersvc "github.com/chowlabs/chow-backend/internal/orders"
	"github.com/chowlabs/chow-backend/pkg/delhivery"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
)

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return id, nil
}

// OrderDetail returns a single order with its line items.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.GetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ShipmentTracker is the slice of the carrier client the tracking endpoint uses.
type ShipmentTracker interface {
	Track(ctx context.Context, waybill string) (*delhivery.TrackingInfo, error)
}

// OrderTrack exposes the delivery-facing slice of an order for customers. For
// carrier orders with a waybill it also asks the carrier for the latest scan;
// carrier failures degrade to the stored signals rather than erroring the call.
func OrderTrack(svc ordersvc.Service, tracker ShipmentTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.GetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		tracking := map[string]any{
			"order_id":        order.ID,
			"status":          order.Status,
			"delivery_status": order.DeliveryStatus,
			"provider":        order.DeliveryProvider,
			"waybill":         order.Waybill,
			"delivered_at":    order.DeliveredAt,
		}
		if tracker != nil && order.DeliveryProvider == enums.DeliveryProviderCarrier && order.Waybill != nil {
			info, err := tracker.Track(ctx, *order.Waybill)
			if err != nil {
				logg.Warn(logg.WithOrderID(ctx, order.ID.String()), "carrier tracking lookup failed")
			} else {
				tracking["carrier_status"] = info.RawStatus
				tracking["carrier_location"] = info.Location
				if mapped, ok := delhivery.MapStatus(info.RawStatus); ok {
					tracking["carrier_delivery_status"] = mapped
				}
			}
		}
		responses.WriteSuccess(w, tracking)
	}
}
