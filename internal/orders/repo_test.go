package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/pagination"
	"github.com/chowlabs/chow-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price_paise INTEGER NOT NULL,
  weight_grams INTEGER NOT NULL,
  stock_qty INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  payment_mode TEXT NOT NULL DEFAULT 'PREPAID',
  subtotal_paise INTEGER NOT NULL,
  tax_paise INTEGER NOT NULL DEFAULT 0,
  shipping_paise INTEGER NOT NULL DEFAULT 0,
  total_paise INTEGER NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  delivery_status TEXT NOT NULL DEFAULT 'PENDING',
  status TEXT NOT NULL DEFAULT 'pending',
  delivery_provider TEXT NOT NULL,
  delivery_address TEXT NOT NULL,
  waybill TEXT,
  shipment_attempts INTEGER NOT NULL DEFAULT 0,
  shipment_last_error TEXT,
  restock_handled INTEGER NOT NULL DEFAULT 0,
  cancel_handled INTEGER NOT NULL DEFAULT 0,
  logistics_loss_paise INTEGER NOT NULL DEFAULT 0,
  confirmed_at DATETIME,
  cancelled_at DATETIME,
  delivered_at DATETIME,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_paise INTEGER NOT NULL,
  unit_weight_grams INTEGER NOT NULL,
  total_paise INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	paymentAttempts := `
CREATE TABLE IF NOT EXISTS payment_attempts (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  gateway_order_id TEXT NOT NULL,
  gateway_payment_id TEXT,
  source TEXT NOT NULL,
  status TEXT NOT NULL,
  amount_paise INTEGER NOT NULL,
  error_reason TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	require.NoError(t, db.Exec(paymentAttempts).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, mutate func(*models.Order)) *models.Order {
	t.Helper()

	now := time.Now().UTC()
	order := &models.Order{
		ID:               uuid.New(),
		CustomerID:       uuid.New(),
		Currency:         "INR",
		PaymentMode:      "PREPAID",
		SubtotalPaise:    50000,
		ShippingPaise:    7000,
		TotalPaise:       57000,
		PaymentStatus:    enums.PaymentStatusPending,
		DeliveryStatus:   enums.DeliveryStatusPending,
		Status:           enums.OrderStatusPending,
		DeliveryProvider: enums.DeliveryProviderCarrier,
		DeliveryAddress: types.Address{
			FirstName: "Asha",
			LastName:  "Verma",
			Street:    "14 MG Road",
			City:      "Gorakhpur",
			State:     "UP",
			Pincode:   "273001",
			Phone:     "9876543210",
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedOrderItem(t *testing.T, db *gorm.DB, orderID uuid.UUID, qty int) *models.OrderItem {
	t.Helper()

	line := &models.OrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		ItemID:          uuid.New(),
		Name:            "Paneer Tikka Kit",
		Qty:             qty,
		UnitPricePaise:  25000,
		UnitWeightGrams: 400,
		TotalPaise:      int64(qty) * 25000,
	}
	require.NoError(t, db.Create(line).Error)
	return line
}

func TestUpdateOrderGuarded(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"status":         enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)

	var updated models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&updated).Error)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, order.Version+1, updated.Version)
}

func TestUpdateOrderGuardedStaleVersion(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	require.NoError(t, repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
		"payment_status": enums.PaymentStatusPaid,
	}))

	// Second writer still holds the old version.
	err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
		"payment_status": enums.PaymentStatusFailed,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var updated models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&updated).Error)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
}

func TestClaimRestockIsOneShot(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	claimed, err := repo.ClaimRestock(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimRestock(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimCancelIsOneShot(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)

	claimed, err := repo.ClaimCancel(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimCancel(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestFindOrderPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)
	seedOrderItem(t, db, order.ID, 2)
	seedOrderItem(t, db, order.ID, 1)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)
}

func TestFindOrderByWaybill(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	waybill := "WB" + uuid.NewString()[:8]
	order := seedOrder(t, db, func(o *models.Order) {
		o.Waybill = &waybill
		o.DeliveryStatus = enums.DeliveryStatusShipmentCreated
		o.Status = enums.OrderStatusConfirmed
		o.PaymentStatus = enums.PaymentStatusPaid
	})

	found, err := repo.FindOrderByWaybill(ctx, waybill)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindOrderByWaybill(ctx, "WB-missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListOrdersFiltersAndPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		seedOrder(t, db, func(o *models.Order) {
			o.CustomerID = customerID
			o.CreatedAt = created
			o.UpdatedAt = created
		})
	}

	rows, next, err := repo.ListOrders(ctx, ListQuery{CustomerID: &customerID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, next)

	rows, next, err = repo.ListOrders(ctx, ListQuery{CustomerID: &customerID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Nil(t, next)
}

func TestFindShipmentRetryCandidates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	retryable := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusConfirmed
		o.PaymentStatus = enums.PaymentStatusPaid
		o.ShipmentAttempts = 1
	})
	exhausted := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusConfirmed
		o.PaymentStatus = enums.PaymentStatusPaid
		o.ShipmentAttempts = 3
	})
	// Paid but never attempted: the post-payment trigger can be lost to a
	// crash, so the sweep has to pick these up too.
	untried := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusConfirmed
		o.PaymentStatus = enums.PaymentStatusPaid
		o.ShipmentAttempts = 0
	})
	unpaid := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusPending
		o.PaymentStatus = enums.PaymentStatusPending
		o.ShipmentAttempts = 0
	})

	rows, err := repo.FindShipmentRetryCandidates(ctx, 3, 50)
	require.NoError(t, err)

	ids := map[uuid.UUID]bool{}
	for _, row := range rows {
		ids[row.ID] = true
	}
	assert.True(t, ids[retryable.ID])
	assert.True(t, ids[untried.ID])
	assert.False(t, ids[exhausted.ID])
	assert.False(t, ids[unpaid.ID])
}

func TestFindNeedingIntervention(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	stuck := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusConfirmed
		o.PaymentStatus = enums.PaymentStatusPaid
		o.ShipmentAttempts = 3
	})
	retrying := seedOrder(t, db, func(o *models.Order) {
		o.Status = enums.OrderStatusConfirmed
		o.PaymentStatus = enums.PaymentStatusPaid
		o.ShipmentAttempts = 2
	})

	rows, _, err := repo.FindNeedingIntervention(ctx, 3, pagination.Params{Limit: 50})
	require.NoError(t, err)

	ids := map[uuid.UUID]bool{}
	for _, row := range rows {
		ids[row.ID] = true
	}
	assert.True(t, ids[stuck.ID])
	assert.False(t, ids[retrying.ID])
}

func TestPaymentAttemptLookups(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, nil)
	gatewayOrderID := "order_" + uuid.NewString()[:8]
	attempt := &models.PaymentAttempt{
		ID:             uuid.New(),
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrderID,
		Source:         enums.PaymentSourceWebhook,
		Status:         enums.PaymentStatusPending,
		AmountPaise:    57000,
	}
	require.NoError(t, repo.CreatePaymentAttempt(ctx, attempt))

	found, err := repo.FindPaymentAttemptByGatewayOrderID(ctx, gatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, found.ID)

	paymentID := "pay_" + uuid.NewString()[:8]
	require.NoError(t, repo.UpdatePaymentAttempt(ctx, attempt.ID, map[string]any{
		"gateway_payment_id": paymentID,
		"status":             enums.PaymentStatusPaid,
	}))

	found, err = repo.FindPaymentAttemptByGatewayPaymentID(ctx, paymentID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, found.ID)
	assert.Equal(t, enums.PaymentStatusPaid, found.Status)
}
