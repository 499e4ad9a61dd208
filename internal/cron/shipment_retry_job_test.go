package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/chowlabs/chow-backend/internal/shipments"
	"github.com/chowlabs/chow-backend/pkg/logger"
)

type stubSweeper struct {
	result shipments.SweepResult
	err    error
	runs   int
}

func (s *stubSweeper) RetrySweep(ctx context.Context) (shipments.SweepResult, error) {
	s.runs++
	return s.result, s.err
}

func TestShipmentRetryJobRunsSweep(t *testing.T) {
	sweeper := &stubSweeper{result: shipments.SweepResult{Scanned: 3, Created: 2, Failed: 1}}
	job, err := NewShipmentRetryJob(ShipmentRetryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "cron-test"}),
		Shipments: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "shipment-retry" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if sweeper.runs != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.runs)
	}
}

func TestShipmentRetryJobSurfacesSweepError(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	job, err := NewShipmentRetryJob(ShipmentRetryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "cron-test"}),
		Shipments: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected sweep error to surface")
	}
}

func TestShipmentRetryJobRequiresDeps(t *testing.T) {
	if _, err := NewShipmentRetryJob(ShipmentRetryJobParams{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}
