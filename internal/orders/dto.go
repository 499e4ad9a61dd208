package orders

import (
	"github.com/google/uuid"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	"github.com/chowlabs/chow-backend/pkg/pagination"
)

// ListParams carries admin list filters and the pagination cursor.
type ListParams struct {
	Status         *enums.OrderStatus
	DeliveryStatus *enums.DeliveryStatus
	CustomerID     *uuid.UUID
	Limit          int
	Cursor         string
}

// ListResult wraps a page of orders with the cursor for the next page.
type ListResult struct {
	Orders []models.Order `json:"orders"`
	Cursor string         `json:"cursor"`
}

// ListQuery is the repository-level form of ListParams with a decoded cursor.
type ListQuery struct {
	Status         *enums.OrderStatus
	DeliveryStatus *enums.DeliveryStatus
	CustomerID     *uuid.UUID
	Limit          int
	Cursor         *pagination.Cursor
}

// SignalUpdateInput is the external form of a signal mutation request. Raw
// strings are parsed into enums before the lifecycle pipeline sees them.
type SignalUpdateInput struct {
	DeliveryStatus *string `json:"delivery_status"`
	PaymentStatus  *string `json:"payment_status"`
}
