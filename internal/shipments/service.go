package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/internal/orders"
	"github.com/chowlabs/chow-backend/pkg/config"
	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/delhivery"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/lifecycle"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/metrics"
	"github.com/chowlabs/chow-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// carrier is the slice of the courier client this service needs.
type carrier interface {
	CreateShipment(ctx context.Context, req delhivery.ShipmentRequest) (*delhivery.Shipment, error)
}

// sweepBatchSize caps how many stuck orders one sweep round touches.
const sweepBatchSize = 50

// SweepResult summarizes one retry sweep round.
type SweepResult struct {
	Scanned   int
	Created   int
	Failed    int
	Exhausted int
}

// Service books carrier shipments for paid orders. Attempts are bounded; an
// order that burns through the cap stops retrying and waits for a human.
type Service interface {
	CreateForOrder(ctx context.Context, orderID uuid.UUID) error
	RetrySweep(ctx context.Context) (SweepResult, error)
	NeedsIntervention(ctx context.Context, limit int, cursor string) (*orders.ListResult, error)
}

type service struct {
	repo    orders.Repository
	tx      txRunner
	carrier carrier
	cfg     config.ShipmentsConfig
	metrics *metrics.ShipmentMetrics
	log     *logger.Logger
	now     func() time.Time
}

// NewService builds the shipments service with the required dependencies.
func NewService(repo orders.Repository, tx txRunner, courier carrier, cfg config.ShipmentsConfig, m *metrics.ShipmentMetrics, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if courier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &service{
		repo:    repo,
		tx:      tx,
		carrier: courier,
		cfg:     cfg,
		metrics: m,
		log:     log,
		now:     time.Now,
	}, nil
}

// CreateForOrder books a shipment for one confirmed carrier order. Success
// pins the waybill and moves the delivery signal to SHIPMENT_CREATED in a
// single guarded write; failure burns one bounded attempt and records the
// carrier's reason.
func (s *service) CreateForOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Waybill != nil {
		// Shipment already exists; the trigger or sweep fired twice.
		return nil
	}
	if err := s.checkPreconditions(order); err != nil {
		return err
	}

	shipment, carrierErr := s.carrier.CreateShipment(ctx, buildShipmentRequest(order))
	if carrierErr != nil {
		s.metrics.IncAttempt("failure")
		if recordErr := s.recordFailure(ctx, order, carrierErr); recordErr != nil {
			return recordErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, carrierErr, "create carrier shipment")
	}

	if err := s.recordSuccess(ctx, order, shipment.Waybill); err != nil {
		return err
	}
	s.metrics.IncAttempt("success")
	return nil
}

// RetrySweep re-drives shipment creation for orders that failed at least
// once but still have attempts left. Errors count and log; one bad order
// never stalls the rest of the batch.
func (s *service) RetrySweep(ctx context.Context) (SweepResult, error) {
	candidates, err := s.repo.FindShipmentRetryCandidates(ctx, s.cfg.MaxAttempts, sweepBatchSize)
	if err != nil {
		return SweepResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find retry candidates")
	}

	result := SweepResult{Scanned: len(candidates)}
	for _, order := range candidates {
		logCtx := s.log.WithOrderID(ctx, order.ID.String())
		if err := s.CreateForOrder(logCtx, order.ID); err != nil {
			result.Failed++
			if order.ShipmentAttempts+1 >= s.cfg.MaxAttempts {
				result.Exhausted++
			}
			s.log.Warn(logCtx, "shipment retry failed: "+err.Error())
			continue
		}
		result.Created++
	}

	s.metrics.AddSwept(result.Scanned)
	return result, nil
}

func (s *service) NeedsIntervention(ctx context.Context, limit int, cursor string) (*orders.ListResult, error) {
	rows, next, err := s.repo.FindNeedingIntervention(ctx, s.cfg.MaxAttempts, pagination.Params{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find orders needing intervention")
	}

	out := &orders.ListResult{Orders: rows}
	if next != nil {
		out.Cursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) checkPreconditions(order *models.Order) error {
	if order.DeliveryProvider != enums.DeliveryProviderCarrier {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not carrier fulfilled")
	}
	if order.PaymentStatus != enums.PaymentStatusPaid || order.Status != enums.OrderStatusConfirmed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid and confirmed").
			WithDetails(map[string]any{
				"status":         order.Status,
				"payment_status": order.PaymentStatus,
			})
	}
	if order.ShipmentAttempts >= s.cfg.MaxAttempts {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment attempts exhausted, manual intervention required").
			WithDetails(map[string]any{"attempts": order.ShipmentAttempts})
	}
	return nil
}

func (s *service) recordSuccess(ctx context.Context, order *models.Order, waybill string) error {
	created := enums.DeliveryStatusShipmentCreated
	if err := lifecycle.ValidateTransition(order.DeliveryStatus, created); err != nil {
		return err
	}
	derived, err := lifecycle.Derive(created, order.PaymentStatus)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deriving lifecycle status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		return repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
			"waybill":             waybill,
			"delivery_status":     created,
			"status":              derived,
			"shipment_attempts":   order.ShipmentAttempts + 1,
			"shipment_last_error": nil,
		})
	})
}

func (s *service) recordFailure(ctx context.Context, order *models.Order, carrierErr error) error {
	message := carrierErr.Error()
	if len(message) > 500 {
		message = message[:500]
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		return repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
			"shipment_attempts":   order.ShipmentAttempts + 1,
			"shipment_last_error": message,
		})
	})
}

func buildShipmentRequest(order *models.Order) delhivery.ShipmentRequest {
	quantity := 0
	weight := 0
	names := make([]string, 0, len(order.Items))
	for _, line := range order.Items {
		quantity += line.Qty
		weight += line.Qty * line.UnitWeightGrams
		names = append(names, line.Name)
	}

	return delhivery.ShipmentRequest{
		OrderID:          order.ID.String(),
		ConsigneeName:    order.DeliveryAddress.FullName(),
		Address:          order.DeliveryAddress.Street,
		Pincode:          order.DeliveryAddress.Pincode,
		City:             order.DeliveryAddress.City,
		State:            order.DeliveryAddress.State,
		Phone:            order.DeliveryAddress.Phone,
		PaymentMode:      order.PaymentMode.String(),
		TotalPaise:       order.TotalPaise,
		TotalQuantity:    quantity,
		TotalWeightGrams: weight,
		ItemsDescription: strings.Join(names, ", "),
	}
}
