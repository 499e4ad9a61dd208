package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/api/responses"
	"github.com/chowlabs/chow-backend/api/validators"
	checkoutsvc "github.com/chowlabs/chow-backend/internal/checkout"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/types"
)

type cartLinePayload struct {
	ItemID string `json:"item_id" validate:"required,uuid4"`
	Qty    int    `json:"qty" validate:"required,min=1"`
}

type quotePayload struct {
	Address types.Address     `json:"address" validate:"required"`
	Lines   []cartLinePayload `json:"lines" validate:"required,min=1,dive"`
}

type createOrderPayload struct {
	CustomerID string            `json:"customer_id" validate:"required,uuid4"`
	Address    types.Address     `json:"address" validate:"required"`
	Lines      []cartLinePayload `json:"lines" validate:"required,min=1,dive"`
}

func decodeCartLines(payload []cartLinePayload) ([]checkoutsvc.CartLine, error) {
	lines := make([]checkoutsvc.CartLine, 0, len(payload))
	for _, line := range payload {
		itemID, err := uuid.Parse(line.ItemID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item id").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
		lines = append(lines, checkoutsvc.CartLine{ItemID: itemID, Qty: line.Qty})
	}
	return lines, nil
}

// ListItems returns the active catalog.
func ListItems(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		items, err := svc.ListItems(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CheckoutQuote prices a cart for a destination without creating anything.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload quotePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lines, err := decodeCartLines(payload.Lines)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		quote, err := svc.QuoteDelivery(ctx, checkoutsvc.QuoteInput{
			Address: payload.Address,
			Lines:   lines,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutCreateOrder creates a pending order from the cart. Payment and
// stock movement happen later, at confirmation.
func CheckoutCreateOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload createOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		customerID, err := uuid.Parse(payload.CustomerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}
		lines, err := decodeCartLines(payload.Lines)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.CreateOrder(ctx, checkoutsvc.CreateOrderInput{
			CustomerID: customerID,
			Address:    payload.Address,
			Lines:      lines,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
