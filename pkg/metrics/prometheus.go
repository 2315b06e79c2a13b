// Package metrics provides Prometheus metrics for the gridiron prediction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction metrics
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	batchSize         prometheus.Histogram
	defaultsApplied   *prometheus.CounterVec
	injuryImpact      prometheus.Histogram

	// Snapshot and feed metrics
	snapshotAge       prometheus.Gauge
	snapshotRefreshes *prometheus.CounterVec
	feedErrors        *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec

	// Repository metrics
	repositoryLatency *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Queue metrics
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueues *prometheus.CounterVec

	// Worker metrics
	workerCount       prometheus.Gauge
	workerActiveCount prometheus.Gauge
	workerErrors      prometheus.Counter

	// System metrics
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

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gridiron",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Predictions served, by winner side"),
		[]string{"winner"},
	)
	m.predictionLatency = auto.NewHistogram(
		m.histogramOpts("prediction_latency_milliseconds", "Time to produce one prediction including history reads", m.histogramBuckets),
	)
	m.batchSize = auto.NewHistogram(
		m.histogramOpts("batch_games", "Games per batch prediction", prometheus.LinearBuckets(1, 2, 9)),
	)
	m.defaultsApplied = auto.NewCounterVec(
		m.counterOpts("defaults_applied_total", "Missing-data defaults absorbed during predictions, by kind"),
		[]string{"kind"},
	)
	m.injuryImpact = auto.NewHistogram(
		m.histogramOpts("injury_impact_points", "Magnitude of team injury penalties", prometheus.LinearBuckets(0, 5, 12)),
	)

	m.snapshotAge = auto.NewGauge(m.gaugeOpts("snapshot_age_seconds", "Seconds since the grade and injury snapshot was loaded"))
	m.snapshotRefreshes = auto.NewCounterVec(
		m.counterOpts("snapshot_refresh_total", "Snapshot refresh attempts by outcome"),
		[]string{"outcome"},
	)
	m.feedErrors = auto.NewCounterVec(
		m.counterOpts("feed_errors_total", "Feed read failures by feed"),
		[]string{"feed"},
	)
	m.breakerState = auto.NewGaugeVec(
		m.gaugeOpts("feed_breaker_state", "Circuit breaker state per feed (0 closed, 1 half-open, 2 open)"),
		[]string{"feed"},
	)

	m.repositoryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_latency_milliseconds", "Repository operation latency", m.histogramBuckets),
		[]string{"operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Records waiting to be persisted"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the persistence queue"))
	m.queueEnqueues = auto.NewCounterVec(
		m.counterOpts("queue_enqueue_total", "Enqueue attempts by outcome"),
		[]string{"outcome"},
	)

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured batch workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Batch workers currently predicting"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Batch jobs that failed"))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Most recent GC pause", m.histogramBuckets),
	)
}

// Prediction metrics

// RecordPrediction counts one prediction. winner is "home" or "away".
func RecordPrediction(winner string) {
	globalManager.predictions.WithLabelValues(winner).Inc()
}

// RecordPredictionLatency observes the latency of one prediction.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordBatch observes the size of one batch.
func RecordBatch(games int) {
	globalManager.batchSize.Observe(float64(games))
}

// RecordDefaultApplied counts one absorbed missing-data default.
func RecordDefaultApplied(kind string) {
	globalManager.defaultsApplied.WithLabelValues(kind).Inc()
}

// RecordInjuryImpact observes the magnitude of a team's injury penalty.
func RecordInjuryImpact(impact float64) {
	if impact < 0 {
		impact = -impact
	}
	globalManager.injuryImpact.Observe(impact)
}

// Snapshot and feed metrics

// UpdateSnapshotAge sets the age of the current snapshot.
func UpdateSnapshotAge(seconds float64) {
	globalManager.snapshotAge.Set(seconds)
}

// RecordSnapshotRefresh counts a refresh attempt; outcome is "success" or "failure".
func RecordSnapshotRefresh(outcome string) {
	globalManager.snapshotRefreshes.WithLabelValues(outcome).Inc()
}

// RecordFeedError counts a failed feed read.
func RecordFeedError(feed string) {
	globalManager.feedErrors.WithLabelValues(feed).Inc()
}

// UpdateBreakerState sets the breaker state gauge of a feed.
func UpdateBreakerState(feed string, state int) {
	globalManager.breakerState.WithLabelValues(feed).Set(float64(state))
}

// RecordRepositoryLatency observes one repository operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// HTTP metrics

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Queue metrics

// UpdateQueueSize sets the number of queued records.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an enqueue attempt; outcome is "accepted", "full" or "closed".
func RecordQueueEnqueue(outcome string) {
	globalManager.queueEnqueues.WithLabelValues(outcome).Inc()
}

// Worker metrics

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// System metrics

// UpdateSystemMemoryUsage updates system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
