package razorpaywebhook

import (
	"context"

	"github.com/chowlabs/chow-backend/internal/payments"
	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/metrics"
)

type paymentService interface {
	ConfirmPayment(ctx context.Context, input payments.ConfirmInput) (*models.Order, error)
	MarkFailed(ctx context.Context, input payments.FailInput) error
}

// Event is the gateway's webhook envelope. Only the payment entity is read;
// everything else the gateway sends is ignored.
type Event struct {
	EventID string  `json:"event_id"`
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

type Payload struct {
	Payment PaymentWrapper `json:"payment"`
}

type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	AmountPaise      int64  `json:"amount"`
	Status           string `json:"status"`
	ErrorDescription string `json:"error_description"`
}

type Service struct {
	payments paymentService
	metrics  *metrics.ShipmentMetrics
}

func NewService(payments paymentService, shipMetrics *metrics.ShipmentMetrics) (*Service, error) {
	if payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	return &Service{payments: payments, metrics: shipMetrics}, nil
}

// HandleEvent applies a gateway payment event. Unknown event types are
// acknowledged without action so the gateway stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway event required")
	}

	entity := event.Payload.Payment.Entity

	switch event.Event {
	case "payment.captured":
		if entity.OrderID == "" || entity.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment entity incomplete")
		}
		_, err := s.payments.ConfirmPayment(ctx, payments.ConfirmInput{
			GatewayOrderID:   entity.OrderID,
			GatewayPaymentID: entity.ID,
			AmountPaise:      entity.AmountPaise,
			Source:           enums.PaymentSourceWebhook,
		})
		if err != nil {
			s.metrics.IncWebhook("razorpay", "failed")
			return err
		}
		s.metrics.IncWebhook("razorpay", "processed")
		return nil
	case "payment.failed":
		if entity.OrderID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment entity incomplete")
		}
		reason := entity.ErrorDescription
		if reason == "" {
			reason = "payment failed at gateway"
		}
		if err := s.payments.MarkFailed(ctx, payments.FailInput{
			GatewayOrderID: entity.OrderID,
			Reason:         reason,
			Source:         enums.PaymentSourceWebhook,
		}); err != nil {
			s.metrics.IncWebhook("razorpay", "failed")
			return err
		}
		s.metrics.IncWebhook("razorpay", "processed")
		return nil
	default:
		s.metrics.IncWebhook("razorpay", "ignored")
		return nil
	}
}
