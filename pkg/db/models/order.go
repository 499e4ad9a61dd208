package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/pkg/enums"
	"github.com/chowlabs/chow-backend/pkg/types"
)

// Order is the single source of truth for an order's lifecycle. The derived
// Status column is never written directly by handlers; it always comes out of
// the lifecycle derivation over the payment and delivery signal columns.
type Order struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`

	Currency      enums.Currency    `gorm:"column:currency;type:text;not null;default:'INR'"`
	PaymentMode   enums.PaymentMode `gorm:"column:payment_mode;type:text;not null;default:'PREPAID'"`
	SubtotalPaise int64             `gorm:"column:subtotal_paise;not null"`
	TaxPaise      int64             `gorm:"column:tax_paise;not null;default:0"`
	ShippingPaise int64             `gorm:"column:shipping_paise;not null;default:0"`
	TotalPaise    int64             `gorm:"column:total_paise;not null"`

	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	DeliveryStatus enums.DeliveryStatus `gorm:"column:delivery_status;type:text;not null;default:'PENDING'"`
	Status         enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`

	DeliveryProvider enums.DeliveryProvider `gorm:"column:delivery_provider;type:text;not null"`
	DeliveryAddress  types.Address          `gorm:"column:delivery_address;type:jsonb;serializer:json;not null"`

	Waybill           *string `gorm:"column:waybill"`
	ShipmentAttempts  int     `gorm:"column:shipment_attempts;not null;default:0"`
	ShipmentLastError *string `gorm:"column:shipment_last_error"`

	// One-way idempotency flags for the restock side effects.
	RestockHandled bool `gorm:"column:restock_handled;not null;default:false"`
	CancelHandled  bool `gorm:"column:cancel_handled;not null;default:false"`

	LogisticsLossPaise int64 `gorm:"column:logistics_loss_paise;not null;default:0"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`

	// Version is the optimistic lock token; every guarded update bumps it.
	Version int `gorm:"column:version;not null;default:1"`

	Items           []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentAttempts []PaymentAttempt `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
