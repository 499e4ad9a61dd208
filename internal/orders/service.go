package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/internal/inventory"
	"github.com/chowlabs/chow-backend/pkg/config"
	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/lifecycle"
	"github.com/chowlabs/chow-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// signalUpdateRetries bounds how often a signal update is retried after
// losing an optimistic concurrency race.
const signalUpdateRetries = 3

// Service owns every order state mutation. Signal updates run the full
// reconciliation pipeline and persist through the version-guarded write, so
// two concurrent updates can never splice an inconsistent state together.
type Service interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateSignals(ctx context.Context, orderID uuid.UUID, update lifecycle.SignalUpdate, source enums.UpdateSource) (*models.Order, error)
	UpdateSignalsByWaybill(ctx context.Context, waybill string, delivery enums.DeliveryStatus) (*models.Order, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory inventory.Inventory
	cfg       config.DeliveryConfig
	now       func() time.Time
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, inv inventory.Inventory, cfg config.DeliveryConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: inv,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, params ListParams) (*ListResult, error) {
	query := ListQuery{
		Status:         params.Status,
		DeliveryStatus: params.DeliveryStatus,
		CustomerID:     params.CustomerID,
		Limit:          params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListOrders(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Orders: rows, Cursor: cursor}, nil
}

func (s *service) UpdateSignals(ctx context.Context, orderID uuid.UUID, update lifecycle.SignalUpdate, source enums.UpdateSource) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown update source")
	}

	var result *models.Order
	var err error
	for attempt := 0; attempt < signalUpdateRetries; attempt++ {
		result, err = s.applySignalUpdate(ctx, orderID, update, source)
		if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			break
		}
	}
	return result, err
}

func (s *service) UpdateSignalsByWaybill(ctx context.Context, waybill string, delivery enums.DeliveryStatus) (*models.Order, error) {
	if waybill == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waybill required")
	}

	order, err := s.repo.FindOrderByWaybill(ctx, waybill)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for waybill")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by waybill")
	}

	return s.UpdateSignals(ctx, order.ID, lifecycle.SignalUpdate{Delivery: &delivery}, enums.UpdateSourceWebhook)
}

// applySignalUpdate runs one load-validate-persist round. The pure pipeline
// decides everything in memory; the guarded write makes it stick only if the
// order has not moved underneath us.
func (s *service) applySignalUpdate(ctx context.Context, orderID uuid.UUID, update lifecycle.SignalUpdate, source enums.UpdateSource) (*models.Order, error) {
	var result *models.Order

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		changes, err := lifecycle.ApplySignals(order, update, source, s.now().UTC())
		if err != nil {
			return err
		}
		if changes.Empty() {
			result = order
			return nil
		}

		if err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, changes.Updates()); err != nil {
			return err
		}

		if changes.Delivery != nil {
			switch *changes.Delivery {
			case enums.DeliveryStatusRTO:
				if err := s.resolveRTO(ctx, repo, tx, order, changes); err != nil {
					return err
				}
			case enums.DeliveryStatusPrePickupCancel:
				if err := s.resolveCancel(ctx, repo, tx, order, changes); err != nil {
					return err
				}
			}
		}

		fresh, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		result = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
