// Package metrics exposes Prometheus counters for request outcomes and
// diagnostic events, plus a histogram of object store fetch latency.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagarc03/assetgate/diagnostic"
)

// Metrics holds assetgate collectors on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	events        *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

// New creates Metrics with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assetgate_requests_total",
		Help: "Total asset requests by outcome",
	}, []string{"outcome"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assetgate_diagnostic_events_total",
		Help: "Total diagnostic events emitted",
	}, []string{"event"})

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assetgate_fetch_duration_seconds",
		Help:    "Object store fetch duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	registry.MustRegister(requests, events, fetchDuration)

	return &Metrics{
		registry:      registry,
		requests:      requests,
		events:        events,
		fetchDuration: fetchDuration,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOutcome counts a request that finished without an object store fetch.
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// RecordFetch counts a request that reached the object store and observes
// how long the fetch took.
func (m *Metrics) RecordFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Emit counts diagnostic events, so Metrics can be combined with other
// sinks in a diagnostic.MultiSink.
func (m *Metrics) Emit(_ context.Context, e diagnostic.Event) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(e.Type)).Inc()
}
