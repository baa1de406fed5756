// Package metrics provides Prometheus metrics for the curation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Tracking ingestion
	eventsRecorded  *prometheus.CounterVec
	eventsInvalid   prometheus.Counter
	eventsDropped   prometheus.Counter
	rateLimited     prometheus.Counter

	// Catalog curation
	catalogMutations *prometheus.CounterVec
	seedResolved     prometheus.Counter
	seedFailed       prometheus.Counter

	// KV backing store
	kvOpDuration *prometheus.HistogramVec
	kvOpErrors   *prometheus.CounterVec

	// Stats reads
	statsReads prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kz",
		subsystem:        "curation",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.eventsRecorded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_recorded_total",
			Help:      "Total number of engagement events recorded, by event type",
		},
		[]string{"event"},
	)

	m.eventsInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_invalid_total",
		Help:      "Total number of rejected tracking events with an unknown type",
	})

	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Total number of events lost to backing-store failures",
	})

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limited_total",
		Help:      "Total number of tracking requests rejected by the rate limiter",
	})

	m.catalogMutations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "catalog_mutations_total",
			Help:      "Total number of catalog mutations, by operation",
		},
		[]string{"operation"},
	)

	m.seedResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "seed_handles_resolved_total",
		Help:      "Total number of handles resolved during quiz seeding",
	})

	m.seedFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "seed_handles_failed_total",
		Help:      "Total number of handles that failed to resolve during quiz seeding",
	})

	m.kvOpDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "kv_op_duration_milliseconds",
			Help:      "Backing-store operation duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.kvOpErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "kv_op_errors_total",
			Help:      "Total number of backing-store operation failures",
		},
		[]string{"op"},
	)

	m.statsReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stats_reads_total",
		Help:      "Total number of admin stats reads",
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordEvent increments the recorded-events counter for an event type.
func RecordEvent(event string) {
	globalManager.eventsRecorded.WithLabelValues(event).Inc()
}

// RecordEventInvalid increments the invalid-events counter.
func RecordEventInvalid() {
	globalManager.eventsInvalid.Inc()
}

// RecordEventDropped increments the dropped-events counter.
func RecordEventDropped() {
	globalManager.eventsDropped.Inc()
}

// RecordRateLimited increments the rate-limit rejection counter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordCatalogMutation increments the catalog mutation counter for an operation.
func RecordCatalogMutation(operation string) {
	globalManager.catalogMutations.WithLabelValues(operation).Inc()
}

// RecordSeedResolved adds n to the seed resolved counter.
func RecordSeedResolved(n int) {
	globalManager.seedResolved.Add(float64(n))
}

// RecordSeedFailed adds n to the seed failure counter.
func RecordSeedFailed(n int) {
	globalManager.seedFailed.Add(float64(n))
}

// RecordKVOp records one backing-store operation.
func RecordKVOp(op string, durationMs float64, err error) {
	globalManager.kvOpDuration.WithLabelValues(op).Observe(durationMs)
	if err != nil {
		globalManager.kvOpErrors.WithLabelValues(op).Inc()
	}
}

// RecordStatsRead increments the stats-read counter.
func RecordStatsRead() {
	globalManager.statsReads.Inc()
}

// GetRegistry returns the custom registry for exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
