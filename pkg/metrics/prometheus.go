package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Run outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Manager owns the grading service collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Grading
	runs          *prometheus.CounterVec
	runLatency    *prometheus.HistogramVec
	rowsGraded    prometheus.Counter
	rowsExcluded  prometheus.Counter
	gradesAwarded *prometheus.CounterVec
	lastRunSize   prometheus.Gauge

	// Input / export
	filesLoaded *prometheus.CounterVec
	exports     *prometheus.CounterVec

	// Run archive
	storeOps      *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	batchInflight prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// DefaultLatencyBuckets are histogram buckets in milliseconds.
var DefaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // shared bucket layout

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gradecurve",
		subsystem:        "grading",
		histogramBuckets: DefaultLatencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(
		m.counterOpts("runs_total", "Grading runs by policy kind and outcome"),
		[]string{"policy", "outcome"},
	)
	m.runLatency = auto.NewHistogramVec(
		m.histogramOpts("run_duration_milliseconds", "Duration of a grading run in milliseconds", m.histogramBuckets),
		[]string{"policy"},
	)
	m.rowsGraded = auto.NewCounter(m.counterOpts("rows_graded_total", "Rows that received a grade"))
	m.rowsExcluded = auto.NewCounter(m.counterOpts("rows_excluded_total", "Rows excluded as invalid scores"))
	m.gradesAwarded = auto.NewCounterVec(
		m.counterOpts("grades_awarded_total", "Grades awarded by label"),
		[]string{"grade"},
	)
	m.lastRunSize = auto.NewGauge(m.gaugeOpts("last_run_rows", "Number of rows in the most recent run"))

	m.filesLoaded = auto.NewCounterVec(
		m.counterOpts("files_loaded_total", "Score tables loaded by format and outcome"),
		[]string{"format", "outcome"},
	)
	m.exports = auto.NewCounterVec(
		m.counterOpts("exports_total", "Reports exported by format"),
		[]string{"format"},
	)

	m.storeOps = auto.NewCounterVec(
		m.counterOpts("store_operations_total", "Run archive operations by backend, operation and outcome"),
		[]string{"backend", "op", "outcome"},
	)
	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_operation_duration_milliseconds", "Run archive operation latency in milliseconds", m.histogramBuckets),
		[]string{"backend", "op"},
	)
	m.cacheLookups = auto.NewCounterVec(
		m.counterOpts("report_cache_lookups_total", "Report cache lookups by result"),
		[]string{"result"},
	)
	m.batchInflight = auto.NewGauge(m.gaugeOpts("batch_jobs_inflight", "Batch jobs currently running"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and kind"),
		[]string{"component", "kind"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Most recent GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordRun counts a finished run and its latency.
func (m *Manager) RecordRun(policy, outcome string, latency time.Duration) {
	if !m.enabled {
		return
	}
	m.runs.WithLabelValues(policy, outcome).Inc()
	m.runLatency.WithLabelValues(policy).Observe(float64(latency.Microseconds()) / 1000)
}

// RecordRows counts graded and excluded rows of one run.
func (m *Manager) RecordRows(graded, excluded int) {
	if !m.enabled {
		return
	}
	m.rowsGraded.Add(float64(graded))
	m.rowsExcluded.Add(float64(excluded))
	m.lastRunSize.Set(float64(graded + excluded))
}

// RecordGrade adds n awards of grade.
func (m *Manager) RecordGrade(grade string, n int) {
	if !m.enabled || n == 0 {
		return
	}
	m.gradesAwarded.WithLabelValues(grade).Add(float64(n))
}

// RecordFileLoad counts a loaded input table.
func (m *Manager) RecordFileLoad(format, outcome string) {
	if m.enabled {
		m.filesLoaded.WithLabelValues(format, outcome).Inc()
	}
}

// RecordExport counts an exported report.
func (m *Manager) RecordExport(format string) {
	if m.enabled {
		m.exports.WithLabelValues(format).Inc()
	}
}

// RecordStoreOp counts a run archive operation and its latency.
func (m *Manager) RecordStoreOp(backend, op, outcome string, latency time.Duration) {
	if !m.enabled {
		return
	}
	m.storeOps.WithLabelValues(backend, op, outcome).Inc()
	m.storeLatency.WithLabelValues(backend, op).Observe(float64(latency.Microseconds()) / 1000)
}

// RecordCacheLookup counts a report cache hit or miss.
func (m *Manager) RecordCacheLookup(hit bool) {
	if !m.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// AddBatchInflight moves the in-flight batch job gauge by delta.
func (m *Manager) AddBatchInflight(delta int) {
	if m.enabled {
		m.batchInflight.Add(float64(delta))
	}
}

// RecordHTTPRequest counts a request and its duration in milliseconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError counts an error by component and kind.
func (m *Manager) RecordError(component, kind string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, kind).Inc()
	}
}

// SampleSystem updates the runtime gauges once.
func (m *Manager) SampleSystem() {
	if !m.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.HeapAlloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		pause := ms.PauseNs[(ms.NumGC+255)%256]
		m.systemGCPauseTime.Observe(float64(pause) / 1e6)
	}
}

// RunSystemSampler samples runtime gauges every refresh interval until ctx
// is done.
func (m *Manager) RunSystemSampler(ctx context.Context) {
	t := time.NewTicker(m.refreshInterval)
	defer t.Stop()
	m.SampleSystem()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.SampleSystem()
		}
	}
}

// Default returns the process-wide manager bound to the custom registry.
func Default() *Manager { return globalManager }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
