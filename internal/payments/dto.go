package payments

import (
	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/pkg/enums"
)

// CheckoutSession is what the storefront needs to open the gateway widget.
type CheckoutSession struct {
	OrderID        uuid.UUID `json:"order_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	GatewayKeyID   string    `json:"gateway_key_id"`
	AmountPaise    int64     `json:"amount_paise"`
	Currency       string    `json:"currency"`
}

// ConfirmInput identifies a captured payment. OrderID may be zero when the
// caller only knows the gateway order, as webhooks do.
type ConfirmInput struct {
	OrderID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	AmountPaise      int64
	Source           enums.PaymentSource
}

// FailInput records a failed or abandoned payment attempt.
type FailInput struct {
	GatewayOrderID string
	Reason         string
	Source         enums.PaymentSource
}

// VerifyInput carries the checkout callback fields signed by the gateway.
type VerifyInput struct {
	OrderID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}
