package checkout

import (
	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/pkg/enums"
	"github.com/chowlabs/chow-backend/pkg/types"
)

// CartLine is one requested item with a quantity.
type CartLine struct {
	ItemID uuid.UUID `json:"item_id"`
	Qty    int       `json:"qty"`
}

// QuoteInput asks for a delivery quote against a destination address.
type QuoteInput struct {
	Address types.Address
	Lines   []CartLine
}

// Quote is the priced answer. Provider tells the customer who would deliver;
// a non-serviceable destination never reaches order creation.
type Quote struct {
	Provider      enums.DeliveryProvider `json:"provider"`
	SubtotalPaise int64                  `json:"subtotal_paise"`
	TaxPaise      int64                  `json:"tax_paise"`
	ShippingPaise int64                  `json:"shipping_paise"`
	TotalPaise    int64                  `json:"total_paise"`
	WeightGrams   int                    `json:"weight_grams"`
}

// CreateOrderInput creates a pending order for a customer cart.
type CreateOrderInput struct {
	CustomerID uuid.UUID
	Address    types.Address
	Lines      []CartLine
}
