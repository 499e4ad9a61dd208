package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowlabs/chow-backend/internal/inventory"
	"github.com/chowlabs/chow-backend/internal/orders"
	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/lifecycle"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// gateway is the slice of the payment gateway client this service needs.
type gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	VerifyCheckout(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// ShipmentTrigger kicks off carrier shipment creation once payment lands.
// It runs after the confirmation commits; failures are retried by the sweep,
// never bubbled back to the payment path.
type ShipmentTrigger interface {
	CreateForOrder(ctx context.Context, orderID uuid.UUID) error
}

// Service handles the money side of the order lifecycle. Confirmation is the
// single place stock is decremented, and it is idempotent across all three
// observation paths (webhook, checkout verification, manual).
type Service interface {
	CreateGatewaySession(ctx context.Context, orderID uuid.UUID) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error)
	MarkFailed(ctx context.Context, input FailInput) error
	VerifyAndConfirm(ctx context.Context, input VerifyInput) (*models.Order, error)
}

type service struct {
	repo      orders.Repository
	tx        txRunner
	inventory inventory.Inventory
	gateway   gateway
	shipments ShipmentTrigger
	log       *logger.Logger
	keyID     string
	now       func() time.Time
}

// NewService builds the payments service with the required dependencies.
// shipments may be nil when no carrier fulfilment is configured.
func NewService(repo orders.Repository, tx txRunner, inv inventory.Inventory, gw gateway, shipments ShipmentTrigger, log *logger.Logger, keyID string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: inv,
		gateway:   gw,
		shipments: shipments,
		log:       log,
		keyID:     keyID,
		now:       time.Now,
	}, nil
}

func (s *service) CreateGatewaySession(ctx context.Context, orderID uuid.UUID) (*CheckoutSession, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]any{"payment_status": order.PaymentStatus})
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, order.TotalPaise, order.Currency.String(), order.ID.String())
	if err != nil {
		return nil, err
	}

	attempt := &models.PaymentAttempt{
		ID:             uuid.New(),
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		Source:         enums.PaymentSourceManual,
		Status:         enums.PaymentStatusPending,
		AmountPaise:    order.TotalPaise,
	}
	if err := s.repo.CreatePaymentAttempt(ctx, attempt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment attempt")
	}

	return &CheckoutSession{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		GatewayKeyID:   s.keyID,
		AmountPaise:    order.TotalPaise,
		Currency:       order.Currency.String(),
	}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmInput) (*models.Order, error) {
	if input.GatewayPaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway payment id required")
	}
	if !input.Source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment source")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.resolveOrder(ctx, repo, input.OrderID, input.GatewayOrderID)
		if err != nil {
			return err
		}

		// Replayed confirmation. The first observation already took
		// stock and moved the order.
		if order.PaymentStatus == enums.PaymentStatusPaid {
			result = order
			return nil
		}
		if order.Status == enums.OrderStatusCancelled || order.PaymentStatus == enums.PaymentStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment captured for a cancelled order").
				WithDetails(map[string]any{
					"order_id":       order.ID,
					"payment_status": order.PaymentStatus,
				})
		}
		if input.AmountPaise > 0 && input.AmountPaise != order.TotalPaise {
			return pkgerrors.New(pkgerrors.CodeValidation, "captured amount does not match order total").
				WithDetails(map[string]any{
					"captured_paise": input.AmountPaise,
					"order_paise":    order.TotalPaise,
				})
		}

		// All lines or nothing. A single short line aborts the whole
		// confirmation and the customer keeps their money's worth.
		for _, line := range order.Items {
			if err := s.inventory.Decrement(ctx, tx, line.ItemID, line.Qty); err != nil {
				return err
			}
		}

		paid := enums.PaymentStatusPaid
		derived, err := lifecycle.Derive(order.DeliveryStatus, paid)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deriving lifecycle status")
		}

		updates := map[string]any{
			"payment_status": paid,
			"status":         derived,
		}
		if order.ConfirmedAt == nil {
			updates["confirmed_at"] = s.now().UTC()
		}
		if err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, updates); err != nil {
			return err
		}

		if err := s.recordAttemptOutcome(ctx, repo, order, input, enums.PaymentStatusPaid, nil); err != nil {
			return err
		}

		fresh, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		result = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.triggerShipment(ctx, result)
	return result, nil
}

func (s *service) MarkFailed(ctx context.Context, input FailInput) error {
	if input.GatewayOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.resolveOrder(ctx, repo, uuid.Nil, input.GatewayOrderID)
		if err != nil {
			return err
		}

		// A failure event after a successful capture is stale noise
		// from the gateway.
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return nil
		}
		if order.PaymentStatus == enums.PaymentStatusFailed {
			return nil
		}

		failed := enums.PaymentStatusFailed
		derived, err := lifecycle.Derive(order.DeliveryStatus, failed)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deriving lifecycle status")
		}

		if err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
			"payment_status": failed,
			"status":         derived,
		}); err != nil {
			return err
		}

		reason := input.Reason
		return s.recordAttemptOutcome(ctx, repo, order, ConfirmInput{
			GatewayOrderID: input.GatewayOrderID,
			Source:         input.Source,
		}, enums.PaymentStatusFailed, &reason)
	})
}

// VerifyAndConfirm validates the checkout callback signature before treating
// the payment as captured. A bad signature falls back to asking the gateway
// directly, so a flaky client cannot forge a confirmation and a mangled
// callback cannot lose a real one.
func (s *service) VerifyAndConfirm(ctx context.Context, input VerifyInput) (*models.Order, error) {
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order and payment ids required")
	}

	if !s.gateway.VerifyCheckout(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		payment, err := s.gateway.FetchPayment(ctx, input.GatewayPaymentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "payment signature invalid and gateway lookup failed")
		}
		if !payment.Captured() || payment.OrderID != input.GatewayOrderID {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature invalid")
		}
	}

	return s.ConfirmPayment(ctx, ConfirmInput{
		OrderID:          input.OrderID,
		GatewayOrderID:   input.GatewayOrderID,
		GatewayPaymentID: input.GatewayPaymentID,
		Source:           enums.PaymentSourceVerification,
	})
}

func (s *service) loadOrder(ctx context.Context, repo orders.Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// resolveOrder locates the order either directly or through the payment
// attempt recorded when the gateway session was created.
func (s *service) resolveOrder(ctx context.Context, repo orders.Repository, orderID uuid.UUID, gatewayOrderID string) (*models.Order, error) {
	if orderID != uuid.Nil {
		return s.loadOrder(ctx, repo, orderID)
	}
	if gatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id or gateway order id required")
	}

	attempt, err := repo.FindPaymentAttemptByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for gateway order").
				WithDetails(map[string]any{"gateway_order_id": gatewayOrderID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment attempt")
	}
	return s.loadOrder(ctx, repo, attempt.OrderID)
}

func (s *service) recordAttemptOutcome(ctx context.Context, repo orders.Repository, order *models.Order, input ConfirmInput, status enums.PaymentStatus, reason *string) error {
	updates := map[string]any{
		"status": status,
		"source": input.Source,
	}
	if input.GatewayPaymentID != "" {
		updates["gateway_payment_id"] = input.GatewayPaymentID
	}
	if reason != nil {
		updates["error_reason"] = *reason
	}

	if input.GatewayOrderID != "" {
		attempt, err := repo.FindPaymentAttemptByGatewayOrderID(ctx, input.GatewayOrderID)
		if err == nil {
			return repo.UpdatePaymentAttempt(ctx, attempt.ID, updates)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment attempt")
		}
	}

	// Confirmation can arrive for a session this service never issued,
	// for example after a data migration. Record it rather than drop it.
	attempt := &models.PaymentAttempt{
		ID:             uuid.New(),
		OrderID:        order.ID,
		GatewayOrderID: input.GatewayOrderID,
		Source:         input.Source,
		Status:         status,
		AmountPaise:    order.TotalPaise,
		ErrorReason:    reason,
	}
	if input.GatewayPaymentID != "" {
		attempt.GatewayPaymentID = &input.GatewayPaymentID
	}
	return repo.CreatePaymentAttempt(ctx, attempt)
}

// triggerShipment starts carrier shipment creation in the background. The
// retry sweep picks up anything that fails here.
func (s *service) triggerShipment(ctx context.Context, order *models.Order) {
	if s.shipments == nil || order == nil {
		return
	}
	if order.DeliveryProvider != enums.DeliveryProviderCarrier {
		return
	}
	if order.Status != enums.OrderStatusConfirmed || order.Waybill != nil {
		return
	}

	orderID := order.ID
	logCtx := s.log.WithOrderID(context.WithoutCancel(ctx), orderID.String())
	go func() {
		if err := s.shipments.CreateForOrder(logCtx, orderID); err != nil {
			s.log.Error(logCtx, "shipment creation after payment failed", err)
		}
	}()
}
