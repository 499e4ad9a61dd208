package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByWaybill(ctx context.Context, waybill string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("waybill = ?", waybill).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, params ListQuery) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.DeliveryStatus != nil {
		query = query.Where("delivery_status = ?", *params.DeliveryStatus)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// UpdateOrderGuarded applies column updates only when the caller still holds
// the current version, bumping the version in the same statement. Zero rows
// affected means another writer got there first.
func (r *repository) UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, version int, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	merged := make(map[string]any, len(updates)+1)
	for column, value := range updates {
		merged[column] = value
	}
	merged["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", orderID, version).
		Updates(merged)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently").
			WithDetails(map[string]any{"order_id": orderID, "version": version})
	}
	return nil
}

func (r *repository) ClaimRestock(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET restock_handled = TRUE,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND restock_handled = FALSE
	`, orderID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ClaimCancel(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET cancel_handled = TRUE,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND cancel_handled = FALSE
	`, orderID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindShipmentRetryCandidates(ctx context.Context, maxAttempts, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", enums.OrderStatusConfirmed).
		Where("delivery_provider = ?", enums.DeliveryProviderCarrier).
		Where("waybill IS NULL").
		// Zero-attempt orders are included: if the process dies between
		// the payment commit and the async trigger, the sweep is the only
		// path that ever books their shipment.
		Where("shipment_attempts < ?", maxAttempts).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindNeedingIntervention(ctx context.Context, maxAttempts int, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", enums.OrderStatusConfirmed).
		Where("delivery_provider = ?", enums.DeliveryProviderCarrier).
		Where("waybill IS NULL").
		Where("shipment_attempts >= ?", maxAttempts)
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, nil, err
		}
		if cursor != nil {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) CreatePaymentAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *repository) UpdatePaymentAttempt(ctx context.Context, attemptID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentAttempt{}).
		Where("id = ?", attemptID).
		Updates(updates).Error
}

func (r *repository) FindPaymentAttemptByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		Order("created_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *repository) FindPaymentAttemptByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("gateway_payment_id = ?", gatewayPaymentID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
