package cron

import (
	"context"
	"fmt"

	"github.com/chowlabs/chow-backend/internal/shipments"
	"github.com/chowlabs/chow-backend/pkg/logger"
)

type shipmentSweeper interface {
	RetrySweep(ctx context.Context) (shipments.SweepResult, error)
}

// ShipmentRetryJobParams configure the shipment retry sweep job.
type ShipmentRetryJobParams struct {
	Logger    *logger.Logger
	Shipments shipmentSweeper
}

type shipmentRetryJob struct {
	logg      *logger.Logger
	shipments shipmentSweeper
}

// NewShipmentRetryJob builds the cron job that re-drives carrier bookings
// for paid orders whose first attempts failed.
func NewShipmentRetryJob(params ShipmentRetryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipments service required")
	}
	return &shipmentRetryJob{
		logg:      params.Logger,
		shipments: params.Shipments,
	}, nil
}

func (j *shipmentRetryJob) Name() string { return "shipment-retry" }

func (j *shipmentRetryJob) Run(ctx context.Context) error {
	result, err := j.shipments.RetrySweep(ctx)
	if err != nil {
		return fmt.Errorf("shipment retry sweep: %w", err)
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"scanned":   result.Scanned,
		"created":   result.Created,
		"failed":    result.Failed,
		"exhausted": result.Exhausted,
	})
	if result.Exhausted > 0 {
		j.logg.Warn(ctx, "orders exhausted shipment attempts and need intervention")
		return nil
	}
	j.logg.Info(ctx, "shipment retry sweep finished")
	return nil
}
