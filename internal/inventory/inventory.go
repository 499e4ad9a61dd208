package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
)

// Inventory moves catalog stock with guarded writes. Decrements never take a
// row below zero and restocks are plain additions; both run inside the
// caller's transaction.
type Inventory interface {
	Decrement(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) error
	Restock(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) error
}

type inventoryImpl struct{}

// New exposes the default guarded-SQL inventory implementation.
func New() Inventory {
	return inventoryImpl{}
}

func (inventoryImpl) Decrement(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE items
		SET stock_qty = stock_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_qty >= ?
	`, qty, itemID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for item").
			WithDetails(map[string]any{"item_id": itemID, "qty": qty})
	}
	return nil
}

func (inventoryImpl) Restock(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for restock")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE items
		SET stock_qty = stock_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, itemID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found for restock").
			WithDetails(map[string]any{"item_id": itemID})
	}
	return nil
}
