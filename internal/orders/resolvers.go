package orders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/lifecycle"
)

// resolveRTO compensates a returned shipment. The restock flag is claimed
// with a single guarded flip so a replayed webhook can never restock twice,
// and the logistics loss is booked as a multiple of the forward shipping fee.
func (s *service) resolveRTO(ctx context.Context, repo Repository, tx *gorm.DB, order *models.Order, changes lifecycle.Changes) error {
	if !stockWasDecremented(order, changes) {
		return nil
	}

	claimed, err := repo.ClaimRestock(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim restock flag")
	}
	if !claimed {
		return nil
	}

	if err := s.restockLines(ctx, tx, order); err != nil {
		return err
	}

	loss := decimal.NewFromInt(order.ShippingPaise).
		Mul(decimal.NewFromFloat(s.cfg.RTOLossMultiplier)).
		Round(0).
		IntPart()

	// The signal update already bumped the version once inside this
	// transaction, so the guard targets the bumped value.
	if err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version+1, map[string]any{
		"logistics_loss_paise": loss,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "book logistics loss")
	}
	return nil
}

// resolveCancel returns stock for a cancellation before pickup. No loss is
// booked because nothing ever shipped.
func (s *service) resolveCancel(ctx context.Context, repo Repository, tx *gorm.DB, order *models.Order, changes lifecycle.Changes) error {
	if !stockWasDecremented(order, changes) {
		return nil
	}

	claimed, err := repo.ClaimCancel(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim cancel flag")
	}
	if !claimed {
		return nil
	}

	return s.restockLines(ctx, tx, order)
}

func (s *service) restockLines(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, line := range order.Items {
		if err := s.inventory.Restock(ctx, tx, line.ItemID, line.Qty); err != nil {
			return err
		}
	}
	return nil
}

// stockWasDecremented reports whether the payment ever reached paid, which
// is the only point stock is taken. Unpaid orders have nothing to return.
func stockWasDecremented(order *models.Order, changes lifecycle.Changes) bool {
	payment := order.PaymentStatus
	if changes.Payment != nil {
		payment = *changes.Payment
	}
	return payment == enums.PaymentStatusPaid
}
