package mqttbridge

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the bridge instrumentation on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	polls           prometheus.Counter
	published       prometheus.Counter
	publishFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.polls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantpulse_bridge_polls_total",
		Help: "Detection passes run against the cloud plant list.",
	})
	m.published = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantpulse_bridge_events_published_total",
		Help: "Events published to the broker.",
	})
	m.publishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantpulse_bridge_publish_failures_total",
		Help: "Events dropped because the broker publish failed.",
	})
	m.registry.MustRegister(m.polls, m.published, m.publishFailures)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
