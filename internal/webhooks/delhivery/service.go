package delhiverywebhook

import (
	"context"
	"fmt"

	"github.com/chowlabs/chow-backend/pkg/db/models"
	"github.com/chowlabs/chow-backend/pkg/delhivery"
	"github.com/chowlabs/chow-backend/pkg/enums"
	pkgerrors "github.com/chowlabs/chow-backend/pkg/errors"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/metrics"
)

type signalUpdater interface {
	UpdateSignalsByWaybill(ctx context.Context, waybill string, delivery enums.DeliveryStatus) (*models.Order, error)
}

// Event mirrors the carrier's scan push payload.
type Event struct {
	Shipment Shipment `json:"Shipment"`
}

type Shipment struct {
	AWB    string     `json:"AWB"`
	Status ScanStatus `json:"Status"`
}

type ScanStatus struct {
	Status       string `json:"Status"`
	StatusType   string `json:"StatusType"`
	Instructions string `json:"Instructions"`
}

type Service struct {
	orders  signalUpdater
	log     *logger.Logger
	metrics *metrics.ShipmentMetrics
}

func NewService(orders signalUpdater, log *logger.Logger, shipMetrics *metrics.ShipmentMetrics) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{orders: orders, log: log, metrics: shipMetrics}, nil
}

// HandleEvent applies a carrier scan to the matching order. Scans that do
// not map to a delivery signal, or that reference a waybill we do not know,
// are logged and acknowledged so the carrier does not retry them forever.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil || event.Shipment.AWB == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "carrier event missing waybill")
	}

	ctx = s.log.WithWaybill(ctx, event.Shipment.AWB)

	mapped, ok := delhivery.MapStatus(event.Shipment.Status.Status)
	if !ok {
		s.log.Info(ctx, fmt.Sprintf("ignoring unmapped carrier status %q", event.Shipment.Status.Status))
		s.metrics.IncWebhook("delhivery", "ignored")
		return nil
	}

	_, err := s.orders.UpdateSignalsByWaybill(ctx, event.Shipment.AWB, mapped)
	switch {
	case err == nil:
		s.metrics.IncWebhook("delhivery", "processed")
		return nil
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		s.log.Warn(ctx, "carrier scan for unknown waybill")
		s.metrics.IncWebhook("delhivery", "unknown_waybill")
		return nil
	case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
		// Out-of-order scan. The carrier replays history on occasion;
		// the order already moved past this signal.
		s.log.Info(ctx, fmt.Sprintf("dropping stale carrier transition to %s", mapped))
		s.metrics.IncWebhook("delhivery", "stale")
		return nil
	default:
		s.metrics.IncWebhook("delhivery", "failed")
		return err
	}
}
