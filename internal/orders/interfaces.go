package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their lines.
// Every write that races with another actor goes through a guarded SQL
// statement; nothing here updates an order without a version or flag check.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderByWaybill(ctx context.Context, waybill string) (*models.Order, error)
	ListOrders(ctx context.Context, params ListQuery) ([]models.Order, *pagination.Cursor, error)
	UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, version int, updates map[string]any) error
	ClaimRestock(ctx context.Context, orderID uuid.UUID) (bool, error)
	ClaimCancel(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindShipmentRetryCandidates(ctx context.Context, maxAttempts, limit int) ([]models.Order, error)
	FindNeedingIntervention(ctx context.Context, maxAttempts int, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	CreatePaymentAttempt(ctx context.Context, attempt *models.PaymentAttempt) error
	UpdatePaymentAttempt(ctx context.Context, attemptID uuid.UUID, updates map[string]any) error
	FindPaymentAttemptByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentAttempt, error)
	FindPaymentAttemptByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.PaymentAttempt, error)
}
