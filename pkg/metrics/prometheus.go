// Package metrics provides Prometheus metrics for the chart engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Chart engine
	periodsProcessed  prometheus.Counter
	periodDuration    prometheus.Histogram
	recordsInserted   *prometheus.CounterVec
	recordsSkipped    prometheus.Counter
	chartExits        *prometheus.CounterVec
	debuts            prometheus.Counter
	chartingEntries   prometheus.Gauge
	eligibleItems     prometheus.Gauge
	catalogEntries    prometheus.Gauge
	degradedReads     *prometheus.CounterVec
	storeLatency      *prometheus.HistogramVec
	errorsByComponent *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "charts",
		subsystem:        "engine",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.periodsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "periods_processed_total",
		Help:      "Total number of chart periods processed",
	})

	m.periodDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "period_duration_milliseconds",
		Help:      "Time spent ranking and recording one period",
		Buckets:   m.histogramBuckets,
	})

	m.recordsInserted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_inserted_total",
		Help:      "Chart records written, by kind (player, competitor)",
	}, []string{"kind"})

	m.recordsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_skipped_total",
		Help:      "Ranked items skipped because the period already recorded them",
	})

	m.chartExits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chart_exits_total",
		Help:      "Player items tracked without a position, by exit reason",
	}, []string{"reason"})

	m.debuts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "debuts_total",
		Help:      "Player items charting for the first time",
	})

	m.chartingEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "charting_entries",
		Help:      "Entries holding a position in the most recently processed period",
	})

	m.eligibleItems = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "eligible_items",
		Help:      "Player items eligible in the most recently processed period",
	})

	m.catalogEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_entries",
		Help:      "Competitor entries in the loaded catalog",
	})

	m.degradedReads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degraded_reads_total",
		Help:      "UI-facing reads answered with empty stats after a storage error",
	}, []string{"operation"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Storage operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"backend", "operation"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component",
	}, []string{"component", "error_type"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordPeriodProcessed counts a processed period and its duration.
func RecordPeriodProcessed(durationMs float64) {
	globalManager.periodsProcessed.Inc()
	globalManager.periodDuration.Observe(durationMs)
}

// RecordRecordsInserted adds n written records of the given kind.
func RecordRecordsInserted(kind string, n int) {
	if n > 0 {
		globalManager.recordsInserted.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordRecordsSkipped adds n items skipped as already recorded.
func RecordRecordsSkipped(n int) {
	if n > 0 {
		globalManager.recordsSkipped.Add(float64(n))
	}
}

// RecordChartExit counts one chart exit for reason.
func RecordChartExit(reason string) {
	globalManager.chartExits.WithLabelValues(reason).Inc()
}

// RecordDebuts adds n debuts.
func RecordDebuts(n int) {
	if n > 0 {
		globalManager.debuts.Add(float64(n))
	}
}

// UpdateChartingEntries sets the number of positioned entries in the last period.
func UpdateChartingEntries(n int) {
	globalManager.chartingEntries.Set(float64(n))
}

// UpdateEligibleItems sets the number of eligible player items in the last period.
func UpdateEligibleItems(n int) {
	globalManager.eligibleItems.Set(float64(n))
}

// UpdateCatalogEntries sets the size of the loaded competitor catalog.
func UpdateCatalogEntries(n int) {
	globalManager.catalogEntries.Set(float64(n))
}

// RecordDegradedRead counts a read that fell back to empty stats.
func RecordDegradedRead(operation string) {
	globalManager.degradedReads.WithLabelValues(operation).Inc()
}

// RecordStoreLatency records a storage operation latency.
func RecordStoreLatency(backend, operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
