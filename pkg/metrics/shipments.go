package metrics

import "github.com/prometheus/client_golang/prometheus"

// ShipmentMetrics tracks carrier booking attempts and webhook traffic.
type ShipmentMetrics struct {
	attempts *prometheus.CounterVec
	webhooks *prometheus.CounterVec
	swept    prometheus.Counter
}

// NewShipmentMetrics registers the shipment metrics on the provided registerer.
func NewShipmentMetrics(reg prometheus.Registerer) *ShipmentMetrics {
	if reg == nil {
		return &ShipmentMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_attempts_total",
		Help: "Carrier shipment creation attempts by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Inbound webhook events by source and outcome.",
	}, []string{"source", "outcome"})
	swept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipment_sweep_orders_total",
		Help: "Orders picked up by the shipment retry sweep.",
	})
	reg.MustRegister(attempts, webhooks, swept)
	return &ShipmentMetrics{
		attempts: attempts,
		webhooks: webhooks,
		swept:    swept,
	}
}

// IncAttempt records a shipment creation attempt outcome ("success"/"failure").
func (s *ShipmentMetrics) IncAttempt(outcome string) {
	if s == nil || s.attempts == nil {
		return
	}
	s.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook records an inbound webhook event.
func (s *ShipmentMetrics) IncWebhook(source, outcome string) {
	if s == nil || s.webhooks == nil {
		return
	}
	s.webhooks.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// AddSwept records how many orders a retry sweep touched.
func (s *ShipmentMetrics) AddSwept(n int) {
	if s == nil || s.swept == nil || n <= 0 {
		return
	}
	s.swept.Add(float64(n))
}
