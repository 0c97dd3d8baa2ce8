package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics instruments the backend API client, the list store, and the
// mutation coordinator. A nil *ClientMetrics is a valid no-op receiver so
// observability stays optional in tests and one-shot CLI runs.
type ClientMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	fetchTotal        *prometheus.CounterVec
	staleDroppedTotal prometheus.Counter
	mutationTotal     *prometheus.CounterVec
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "receipts",
			Subsystem:   "api",
			Name:        "requests_total",
			Help:        "Total backend API requests by operation and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"operation", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "receipts",
			Subsystem:   "api",
			Name:        "request_duration_seconds",
			Help:        "Backend API request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"operation"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "receipts",
			Subsystem:   "api",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight backend API requests.",
			ConstLabels: constLabels,
		},
	)
	fetchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "receipts",
			Subsystem:   "list",
			Name:        "fetch_total",
			Help:        "Total list fetches by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)
	staleDroppedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "receipts",
			Subsystem:   "list",
			Name:        "stale_responses_dropped_total",
			Help:        "List responses discarded because a newer fetch superseded them.",
			ConstLabels: constLabels,
		},
	)
	mutationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "receipts",
			Subsystem:   "mutation",
			Name:        "total",
			Help:        "Total mutations by kind and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"kind", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		fetchTotal,
		staleDroppedTotal,
		mutationTotal,
	)

	return &ClientMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		fetchTotal:        fetchTotal,
		staleDroppedTotal: staleDroppedTotal,
		mutationTotal:     mutationTotal,
	}
}

func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ClientMetrics) RequestStarted() {
	if m == nil {
		return
	}
	m.requestInFlight.Inc()
}

func (m *ClientMetrics) RequestFinished(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.requestInFlight.Dec()
	m.requestTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *ClientMetrics) FetchCompleted(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.fetchTotal.WithLabelValues(result).Inc()
}

func (m *ClientMetrics) StaleResponseDropped() {
	if m == nil {
		return
	}
	m.staleDroppedTotal.Inc()
}

func (m *ClientMetrics) MutationCompleted(kind string, err error) {
	if m == nil {
		return
	}
	m.mutationTotal.WithLabelValues(kind, statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
