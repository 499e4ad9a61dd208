package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chowlabs/chow-backend/api/routes"
	checkoutsvc "github.com/chowlabs/chow-backend/internal/checkout"
	"github.com/chowlabs/chow-backend/internal/inventory"
	ordersvc "github.com/chowlabs/chow-backend/internal/orders"
	paymentsvc "github.com/chowlabs/chow-backend/internal/payments"
	shipmentsvc "github.com/chowlabs/chow-backend/internal/shipments"
	delhiverywebhook "github.com/chowlabs/chow-backend/internal/webhooks/delhivery"
	razorpaywebhook "github.com/chowlabs/chow-backend/internal/webhooks/razorpay"
	"github.com/chowlabs/chow-backend/pkg/config"
	"github.com/chowlabs/chow-backend/pkg/db"
	"github.com/chowlabs/chow-backend/pkg/delhivery"
	"github.com/chowlabs/chow-backend/pkg/distance"
	"github.com/chowlabs/chow-backend/pkg/instance"
	"github.com/chowlabs/chow-backend/pkg/logger"
	"github.com/chowlabs/chow-backend/pkg/metrics"
	"github.com/chowlabs/chow-backend/pkg/migrate"
	"github.com/chowlabs/chow-backend/pkg/razorpay"
	"github.com/chowlabs/chow-backend/pkg/redis"
)

const webhookDedupeTTL = 48 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	shipMetrics := metrics.NewShipmentMetrics(registry)

	razorpayClient, err := razorpay.NewClient(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}
	delhiveryClient := delhivery.NewClient(cfg.Delhivery)
	distanceClient := distance.NewClient(
		distance.WithOSRMBaseURL(cfg.Delivery.OSRMBaseURL),
		distance.WithNominatimBaseURL(cfg.Delivery.NominatimBaseURL),
		distance.WithUserAgent(cfg.Delivery.GeocodeUserAgent),
	)

	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	itemsRepo := checkoutsvc.NewItemsRepository(dbClient.DB())
	inv := inventory.New()

	ordersService, err := ordersvc.NewService(ordersRepo, dbClient, inv, cfg.Delivery)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	shipmentsService, err := shipmentsvc.NewService(ordersRepo, dbClient, delhiveryClient, cfg.Shipments, shipMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}
	paymentsService, err := paymentsvc.NewService(ordersRepo, dbClient, inv, razorpayClient, shipmentsService, logg, cfg.Razorpay.KeyID)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(itemsRepo, ordersRepo, dbClient, delhiveryClient, distanceClient, cfg.Delivery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	razorpayWebhookService, err := razorpaywebhook.NewService(paymentsService, shipMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay webhook service", err)
		os.Exit(1)
	}
	razorpayWebhookGuard, err := razorpaywebhook.NewIdempotencyGuard(redisClient, webhookDedupeTTL, "razorpay-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}
	delhiveryWebhookService, err := delhiverywebhook.NewService(ordersService, logg, shipMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create delhivery webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Registry:             registry,
			Checkout:             checkoutService,
			Orders:               ordersService,
			Payments:             paymentsService,
			Shipments:            shipmentsService,
			Tracker:              delhiveryClient,
			RazorpayWebhook:      razorpayWebhookService,
			RazorpayWebhookGuard: razorpayWebhookGuard,
			DelhiveryWebhook:     delhiveryWebhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
