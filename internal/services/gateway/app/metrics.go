package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the gateway instrumentation on a private registry so
// multiple gateways can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plantpulse_gateway_requests_total",
		Help: "Tool invocations served by the gateway, by outcome.",
	}, []string{"tool", "outcome"})
	m.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plantpulse_gateway_request_seconds",
		Help:    "Tool invocation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})
	m.registry.MustRegister(m.requests, m.latency)
	return m
}

func (m *Metrics) observe(tool, outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(tool, outcome).Inc()
	m.latency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
