// Package metrics provides Prometheus metrics for the deathboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"

	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
	OutcomeRejected    = "rejected"

	OpFind   = "find"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Manager manages all Prometheus metrics for the deathboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Refresh cycle metrics
	cycles        *prometheus.CounterVec
	cyclesDropped *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	lastSuccess   prometheus.Gauge

	// Aggregation metrics
	recordsRead       prometheus.Counter
	recordsSkipped    prometheus.Counter
	namesUnresolved   prometheus.Counter
	rankingEntries    prometheus.Gauge
	sourceUnavailable prometheus.Counter

	// Slot backend metrics
	slotOperations *prometheus.CounterVec
	slotsPresent   prometheus.Gauge

	// HTTP trigger surface metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "deathboard",
		subsystem:        "holograms",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.cycles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "refresh_cycles_total",
		Help:        "Refresh cycles by trigger and outcome",
		ConstLabels: labels,
	}, []string{"trigger", "outcome"})

	m.cyclesDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "refresh_cycles_dropped_total",
		Help:        "Refresh triggers dropped because another cycle was running",
		ConstLabels: labels,
	}, []string{"trigger"})

	m.cycleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "refresh_cycle_duration_seconds",
		Help:        "Duration of aggregate+apply cycles",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.lastSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_timestamp_seconds",
		Help:        "Unix time of the last successful refresh",
		ConstLabels: labels,
	})

	m.recordsRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stat_records_read_total",
		Help:        "Per-player stat records read",
		ConstLabels: labels,
	})

	m.recordsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stat_records_skipped_total",
		Help:        "Malformed stat records skipped",
		ConstLabels: labels,
	})

	m.namesUnresolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "names_unresolved_total",
		Help:        "Players shown with the fallback name",
		ConstLabels: labels,
	})

	m.rankingEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ranking_entries",
		Help:        "Non-empty entries in the latest ranking",
		ConstLabels: labels,
	})

	m.sourceUnavailable = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stats_source_unavailable_total",
		Help:        "Refreshes aborted because the stats directory could not be listed",
		ConstLabels: labels,
	})

	m.slotOperations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "slot_operations_total",
		Help:        "Hologram backend operations by operation and outcome",
		ConstLabels: labels,
	}, []string{"op", "outcome"})

	m.slotsPresent = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "slots_present",
		Help:        "Known hologram tags found present during the last ensure pass",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordCycle records a finished refresh cycle.
func RecordCycle(trigger, outcome string, d time.Duration) {
	globalManager.cycles.WithLabelValues(trigger, outcome).Inc()
	globalManager.cycleDuration.Observe(d.Seconds())
	if outcome == OutcomeSuccess {
		globalManager.lastSuccess.SetToCurrentTime()
	}
}

// RecordCycleDropped records a trigger that found another cycle running.
func RecordCycleDropped(trigger string) {
	globalManager.cyclesDropped.WithLabelValues(trigger).Inc()
}

// RecordRecordsRead adds n to the records read counter.
func RecordRecordsRead(n int) {
	globalManager.recordsRead.Add(float64(n))
}

// RecordRecordSkipped increments the skipped records counter.
func RecordRecordSkipped() {
	globalManager.recordsSkipped.Inc()
}

// RecordNameUnresolved increments the unresolved names counter.
func RecordNameUnresolved() {
	globalManager.namesUnresolved.Inc()
}

// RecordSourceUnavailable increments the unavailable source counter.
func RecordSourceUnavailable() {
	globalManager.sourceUnavailable.Inc()
}

// UpdateRankingEntries sets the number of non-empty ranking entries.
func UpdateRankingEntries(n int) {
	globalManager.rankingEntries.Set(float64(n))
}

// RecordSlotOperation records a backend operation result.
func RecordSlotOperation(op string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailed
	}
	globalManager.slotOperations.WithLabelValues(op, outcome).Inc()
}

// UpdateSlotsPresent sets the number of tags found present.
func UpdateSlotsPresent(n int) {
	globalManager.slotsPresent.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(d.Seconds())
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
