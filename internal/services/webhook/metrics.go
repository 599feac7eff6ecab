package webhook

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the sender instrumentation on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	polls            prometheus.Counter
	delivered        prometheus.Counter
	deliveryFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.polls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantpulse_webhook_polls_total",
		Help: "Detection passes run against the cloud plant list.",
	})
	m.delivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantpulse_webhook_events_delivered_total",
		Help: "Events delivered to the webhook endpoint.",
	})
	m.deliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantpulse_webhook_delivery_failures_total",
		Help: "Events dropped after delivery retries were exhausted.",
	})
	m.registry.MustRegister(m.polls, m.delivered, m.deliveryFailures)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
