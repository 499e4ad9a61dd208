package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/api/responses"
	"github.com/chowlabs/chow-backend/api/validators"
	ordersvc "github.com/chowlabs/chow-backend/internal/orders"
	paymentsvc "github.com/chowlabs/chow-backend/internal/payments"
	shipmentsvc "github.com/chowlabs/chow-backend/internal/shipments"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/lifecycle"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/pagination"
)

// AdminListOrders lists orders with optional status/customer filters and
// cursor pagination.
func AdminListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params := ordersvc.ListParams{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params.Limit = limit

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}
		if raw := r.URL.Query().Get("delivery_status"); raw != "" {
			status, err := enums.ParseDeliveryStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status filter"))
				return
			}
			params.DeliveryStatus = &status
		}
		if raw := r.URL.Query().Get("customer_id"); raw != "" {
			customerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id filter"))
				return
			}
			params.CustomerID = &customerID
		}

		result, err := svc.ListOrders(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminUpdateOrderSignals applies delivery and/or payment signals to an
// order on behalf of an operator.
func AdminUpdateOrderSignals(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload ordersvc.SignalUpdateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if payload.DeliveryStatus == nil && payload.PaymentStatus == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one signal is required"))
			return
		}

		var update lifecycle.SignalUpdate
		if payload.DeliveryStatus != nil {
			status, err := enums.ParseDeliveryStatus(*payload.DeliveryStatus)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status"))
				return
			}
			update.Delivery = &status
		}
		if payload.PaymentStatus != nil {
			status, err := enums.ParsePaymentStatus(*payload.PaymentStatus)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
				return
			}
			update.Payment = &status
		}

		order, err := svc.UpdateSignals(ctx, orderID, update, enums.UpdateSourceAdmin)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type reconcilePaymentPayload struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	AmountPaise      int64  `json:"amount_paise"`
}

// AdminReconcilePayment confirms a payment the webhook and the verify
// callback both missed, from gateway ids the operator looked up.
func AdminReconcilePayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload reconcilePaymentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.ConfirmPayment(ctx, paymentsvc.ConfirmInput{
			OrderID:          orderID,
			GatewayOrderID:   payload.GatewayOrderID,
			GatewayPaymentID: payload.GatewayPaymentID,
			AmountPaise:      payload.AmountPaise,
			Source:           enums.PaymentSourceManual,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminCreateShipment books a carrier shipment for one order immediately
// instead of waiting for the sweep.
func AdminCreateShipment(svc shipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.CreateForOrder(ctx, orderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "created"})
	}
}

// AdminShipmentRetrySweep triggers the retry sweep on demand.
func AdminShipmentRetrySweep(svc shipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result, err := svc.RetrySweep(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminNeedsIntervention lists orders that exhausted their shipment
// attempts and wait on an operator.
func AdminNeedsIntervention(svc shipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.NeedsIntervention(ctx, limit, cursor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
