// Package metrics provides Prometheus metrics for the ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Degradation kinds recorded by RecordDegradation.
const (
	DegradationDataGap               = "data_gap"
	DegradationParseError            = "parse_error"
	DegradationMissingHistory        = "missing_history"
	DegradationRegistryInconsistency = "registry_inconsistency"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine
	rankingsComputed *prometheus.CounterVec
	rankingLatency   *prometheus.HistogramVec
	rankedEmployees  *prometheus.GaugeVec
	degradations     *prometheus.CounterVec
	inputFailures    prometheus.Counter

	// Ingestion and store
	recordsIngested *prometheus.CounterVec
	recordsRejected *prometheus.CounterVec
	storeRecords    *prometheus.GaugeVec

	// Recompute queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected prometheus.Counter
	jobsTotal     *prometheus.CounterVec
	jobLatency    prometheus.Histogram
	jobRetries    prometheus.Counter
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rankengine",
		subsystem:        "ranking",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.rankingsComputed = m.counterVec("rankings_computed_total", "Rankings computed by scope (period or consolidated)", "scope")
	m.rankingLatency = m.histogramVec("ranking_latency_milliseconds", "Ranking computation latency in milliseconds", "scope")
	m.rankedEmployees = m.gaugeVec("ranked_employees", "Employees in the last computed ranking by scope", "scope")
	m.degradations = m.counterVec("degradations_total", "Non-fatal degradations met while scoring", "kind")
	m.inputFailures = m.counter("input_failures_total", "Computations aborted because an input snapshot was unavailable")

	m.recordsIngested = m.counterVec("records_ingested_total", "Records accepted at the ingestion boundary", "entity")
	m.recordsRejected = m.counterVec("records_rejected_total", "Records rejected at the ingestion boundary", "entity")
	m.storeRecords = m.gaugeVec("store_records", "Records held by the snapshot store", "entity")

	m.queueSize = m.gauge("recompute_queue_size", "Pending recompute jobs")
	m.queueCapacity = m.gauge("recompute_queue_capacity", "Capacity of the recompute queue")
	m.queueRejected = m.counter("recompute_queue_rejected_total", "Recompute jobs rejected by backpressure")
	m.jobsTotal = m.counterVec("recompute_jobs_total", "Recompute jobs by final status", "status")
	m.jobLatency = m.histogram("recompute_job_latency_milliseconds", "Recompute job latency in milliseconds")
	m.jobRetries = m.counter("recompute_job_retries_total", "Recompute attempts retried after a failure")
	m.workerCount = m.gauge("worker_count", "Recompute workers running")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Goroutines running")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// Engine

// RecordRankingComputed records one successful computation.
func RecordRankingComputed(scope string, rows int, latencyMs float64) {
	globalManager.rankingsComputed.WithLabelValues(scope).Inc()
	globalManager.rankingLatency.WithLabelValues(scope).Observe(latencyMs)
	globalManager.rankedEmployees.WithLabelValues(scope).Set(float64(rows))
}

// RecordDegradation adds n degradations of the given kind.
func RecordDegradation(kind string, n int) {
	if n <= 0 {
		return
	}
	globalManager.degradations.WithLabelValues(kind).Add(float64(n))
}

// RecordInputFailure counts an aborted computation.
func RecordInputFailure() {
	globalManager.inputFailures.Inc()
}

// Ingestion and store

// RecordIngested counts accepted records of an entity.
func RecordIngested(entity string, n int) {
	if n > 0 {
		globalManager.recordsIngested.WithLabelValues(entity).Add(float64(n))
	}
}

// RecordRejected counts rejected records of an entity.
func RecordRejected(entity string, n int) {
	if n > 0 {
		globalManager.recordsRejected.WithLabelValues(entity).Add(float64(n))
	}
}

// UpdateStoreRecords sets the number of stored records of an entity.
func UpdateStoreRecords(entity string, n int) {
	globalManager.storeRecords.WithLabelValues(entity).Set(float64(n))
}

// Recompute queue and workers

// UpdateQueueSize sets the number of pending recompute jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the recompute queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a job refused by backpressure.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordJob records the final status and latency of a recompute job.
func RecordJob(status string, latencyMs float64) {
	globalManager.jobsTotal.WithLabelValues(status).Inc()
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordJobRetry counts a retried attempt.
func RecordJobRetry() {
	globalManager.jobRetries.Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// HTTP

// RecordHTTPRequest records one request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// System

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
