package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chowlabs/chow-backend/api/controllers"
	webhookcontrollers "github.com/chowlabs/chow-backend/api/controllers/webhooks"
	"github.com/chowlabs/chow-backend/api/middleware"
	checkoutsvc "github.com/chowlabs/chow-backend/internal/checkout"
	ordersvc "github.com/chowlabs/chow-backend/internal/orders"
	paymentsvc "github.com/chowlabs/chow-backend/internal/payments"
	shipmentsvc "github.com/chowlabs/chow-backend/internal/shipments"
	delhiverywebhook "github.com/chowlabs/chow-backend/internal/webhooks/delhivery"
	razorpaywebhook "github.com/chowlabs/chow-backend/internal/webhooks/razorpay"
	"github.com/chowlabs/chow-backend/pkg/config"
	"github.com/chowlabs/chow-backend/pkg/db"
	"github.com/chowlabs/chow-backend/pkg/logger"
	redisclient "github.com/chowlabs/chow-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redisclient.Pinger
	Registry prometheus.Gatherer

	Checkout  checkoutsvc.Service
	Orders    ordersvc.Service
	Payments  paymentsvc.Service
	Shipments shipmentsvc.Service
	Tracker   controllers.ShipmentTracker

	RazorpayWebhook      *razorpaywebhook.Service
	RazorpayWebhookGuard *razorpaywebhook.IdempotencyGuard
	DelhiveryWebhook     *delhiverywebhook.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	// Nil concrete pointers must not be wrapped into non-nil interface
	// values, or the controllers' unwired-service guards never fire.
	var razorpaySvc webhookcontrollers.RazorpayWebhookService
	if p.RazorpayWebhook != nil {
		razorpaySvc = p.RazorpayWebhook
	}
	var razorpayGuard webhookcontrollers.RazorpayWebhookGuard
	if p.RazorpayWebhookGuard != nil {
		razorpayGuard = p.RazorpayWebhookGuard
	}
	var delhiverySvc webhookcontrollers.DelhiveryWebhookService
	if p.DelhiveryWebhook != nil {
		delhiverySvc = p.DelhiveryWebhook
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(razorpaySvc, cfg.Razorpay.WebhookSecret, razorpayGuard, logg))
		r.Post("/delhivery", webhookcontrollers.DelhiveryWebhook(delhiverySvc, cfg.Delhivery.WebhookSecret, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", controllers.ListItems(p.Checkout, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", controllers.CheckoutQuote(p.Checkout, logg))
			r.Post("/orders", controllers.CheckoutCreateOrder(p.Checkout, logg))
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.OrderDetail(p.Orders, logg))
			r.Get("/track", controllers.OrderTrack(p.Orders, p.Tracker, logg))
			r.Post("/payment-session", controllers.PaymentSession(p.Payments, logg))
		})

		r.Post("/payments/verify", controllers.PaymentVerify(p.Payments, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(p.Orders, logg))
			r.Get("/needs-intervention", controllers.AdminNeedsIntervention(p.Shipments, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(p.Orders, logg))
				r.Post("/signals", controllers.AdminUpdateOrderSignals(p.Orders, logg))
				r.Post("/reconcile-payment", controllers.AdminReconcilePayment(p.Payments, logg))
				r.Post("/shipment", controllers.AdminCreateShipment(p.Shipments, logg))
			})
		})
		r.Post("/shipments/retry-sweep", controllers.AdminShipmentRetrySweep(p.Shipments, logg))
	})

	return r
}
