package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/pkg/enums"
)

// PaymentAttempt records every gateway interaction against an order, keyed by
// the gateway's payment identifier when one exists.
type PaymentAttempt struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	GatewayOrderID   string              `gorm:"column:gateway_order_id;not null"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id;uniqueIndex:idx_payment_attempts_gateway_payment_id"`
	Source           enums.PaymentSource `gorm:"column:source;type:text;not null"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	AmountPaise      int64               `gorm:"column:amount_paise;not null"`
	ErrorReason      *string             `gorm:"column:error_reason"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
}
