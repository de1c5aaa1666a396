// Package metrics provides Prometheus metrics for the handout lottery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the lottery.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Draw metrics
	drawsTotal      *prometheus.CounterVec
	drawDuration    prometheus.Histogram
	itemsDrawn      *prometheus.CounterVec
	winnersTotal    *prometheus.CounterVec
	groupExclusions prometheus.Counter

	// Intake metrics
	applicantsTotal   *prometheus.CounterVec
	requestsDropped   *prometheus.CounterVec
	requestsDuplicate prometheus.Counter

	// Snapshot metrics
	snapshotSaves  *prometheus.CounterVec
	snapshotErrors *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "handout",
		subsystem:        "lottery",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.drawsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "draws_total",
		Help:      "Total number of lottery runs by outcome",
	}, []string{"outcome"})

	m.drawDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "draw_duration_milliseconds",
		Help:      "Wall time of a complete lottery run in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.itemsDrawn = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_drawn_total",
		Help:      "Items allocated, by lottery pass and whether a random draw was needed",
	}, []string{"pass", "subscription"})

	m.winnersTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "winners_total",
		Help:      "Applicants that won at least one item, by distribution pool",
	}, []string{"pool"})

	m.groupExclusions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "group_exclusions_total",
		Help:      "Requests skipped because the applicant already won an item of the same exclusive group",
	})

	m.applicantsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applicants_total",
		Help:      "Applications read, by intake result",
	}, []string{"result"})

	m.requestsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_dropped_total",
		Help:      "Requested item ids dropped before the draw, by reason",
	}, []string{"reason"})

	m.requestsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_duplicate_total",
		Help:      "Item ids requested more than once by the same applicant",
	})

	m.snapshotSaves = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_saves_total",
		Help:      "Result snapshots persisted, by backend",
	}, []string{"backend"})

	m.snapshotErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_errors_total",
		Help:      "Snapshot store failures, by backend and operation",
	}, []string{"backend", "operation"})

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

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_errors_total",
		Help:      "HTTP error responses by endpoint, type and severity",
	}, []string{"endpoint", "error_type", "severity"})
}

// RecordDraw counts a finished run; outcome is "ok" or "failed".
func RecordDraw(outcome string) {
	globalManager.drawsTotal.WithLabelValues(outcome).Inc()
}

// RecordDrawDuration records the wall time of a run in milliseconds.
func RecordDrawDuration(durationMs float64) {
	globalManager.drawDuration.Observe(durationMs)
}

// RecordItemDrawn counts one allocated item. pass is "exclusive", "dependent"
// or "independent"; oversubscribed tells whether randomness was used.
func RecordItemDrawn(pass string, oversubscribed bool) {
	subscription := "undersubscribed"
	if oversubscribed {
		subscription = "oversubscribed"
	}
	globalManager.itemsDrawn.WithLabelValues(pass, subscription).Inc()
}

// AddWinners adds the number of distinct winners of a pool.
func AddWinners(pool string, count int) {
	globalManager.winnersTotal.WithLabelValues(pool).Add(float64(count))
}

// AddGroupExclusions adds requests filtered by the exclusive-group rule.
func AddGroupExclusions(count int) {
	globalManager.groupExclusions.Add(float64(count))
}

// AddApplicants counts applications by intake result, e.g. "accepted",
// "outside_window", "no_terms", "superseded".
func AddApplicants(result string, count int) {
	globalManager.applicantsTotal.WithLabelValues(result).Add(float64(count))
}

// AddRequestsDropped counts dropped item ids by reason, e.g. "unknown_item".
func AddRequestsDropped(reason string, count int) {
	globalManager.requestsDropped.WithLabelValues(reason).Add(float64(count))
}

// AddRequestsDuplicate counts repeated item ids within one application.
func AddRequestsDuplicate(count int) {
	globalManager.requestsDuplicate.Add(float64(count))
}

// RecordSnapshotSave counts a persisted snapshot.
func RecordSnapshotSave(backend string) {
	globalManager.snapshotSaves.WithLabelValues(backend).Inc()
}

// RecordSnapshotError counts a failed snapshot operation.
func RecordSnapshotError(backend, operation string) {
	globalManager.snapshotErrors.WithLabelValues(backend, operation).Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType, severity).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
