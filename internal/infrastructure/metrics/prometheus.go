package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector for Prometheus.
type PrometheusCollector struct {
	imports        *prometheus.CounterVec
	importedRows   *prometheus.CounterVec
	skippedRows    *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	shortlistSize  prometheus.Histogram
	autoConfirmed  prometheus.Counter
	autoUnassigned prometheus.Counter
	autoLatency    prometheus.Histogram
	extractions    *prometheus.CounterVec
	extractLatency prometheus.Histogram
	circuitState   *prometheus.GaugeVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Total number of statement imports per source and outcome",
			},
			[]string{"source", "status"},
		),
		importedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_rows_total",
				Help:      "Total number of transactions persisted by imports",
			},
			[]string{"source"},
		),
		skippedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_rows_total",
				Help:      "Total number of malformed rows dropped during imports",
			},
			[]string{"source"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of status transition attempts per event and result",
			},
			[]string{"event", "result"},
		),
		shortlistSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "shortlist_candidates",
				Help:      "Number of candidates returned per shortlist",
				Buckets:   []float64{0, 1, 2, 3},
			},
		),
		autoConfirmed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auto_reconcile_confirmed_total",
				Help:      "Total number of matches confirmed by auto-reconcile",
			},
		),
		autoUnassigned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auto_reconcile_unassigned_total",
				Help:      "Total number of pending transactions auto-reconcile left alone",
			},
		),
		autoLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "auto_reconcile_duration_seconds",
				Help:      "Auto-reconcile run latency",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Total number of statement extraction calls per outcome",
			},
			[]string{"status"},
		),
		extractLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "Statement extraction latency",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests per route and status code",
			},
			[]string{"method", "route", "code"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Register registers all metrics with the given Prometheus registry.
func (pc *PrometheusCollector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.imports,
		pc.importedRows,
		pc.skippedRows,
		pc.transitions,
		pc.shortlistSize,
		pc.autoConfirmed,
		pc.autoUnassigned,
		pc.autoLatency,
		pc.extractions,
		pc.extractLatency,
		pc.circuitState,
		pc.requests,
		pc.requestLatency,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordImport records the outcome of one import.
func (pc *PrometheusCollector) RecordImport(source string, success bool, inserted, skipped int) {
	pc.imports.WithLabelValues(source, successLabel(success)).Inc()
	pc.importedRows.WithLabelValues(source).Add(float64(inserted))
	pc.skippedRows.WithLabelValues(source).Add(float64(skipped))
}

// RecordTransition records a status transition attempt.
func (pc *PrometheusCollector) RecordTransition(event string, result string) {
	pc.transitions.WithLabelValues(event, result).Inc()
}

// RecordShortlist records the size of a shortlist.
func (pc *PrometheusCollector) RecordShortlist(candidates int) {
	pc.shortlistSize.Observe(float64(candidates))
}

// RecordAutoReconcile records one auto-reconcile run.
func (pc *PrometheusCollector) RecordAutoReconcile(confirmed, unassigned int, duration time.Duration) {
	pc.autoConfirmed.Add(float64(confirmed))
	pc.autoUnassigned.Add(float64(unassigned))
	pc.autoLatency.Observe(duration.Seconds())
}

// RecordExtraction records one extraction call.
func (pc *PrometheusCollector) RecordExtraction(success bool, duration time.Duration) {
	pc.extractions.WithLabelValues(successLabel(success)).Inc()
	pc.extractLatency.Observe(duration.Seconds())
}

// RecordCircuitState records a circuit breaker state change.
func (pc *PrometheusCollector) RecordCircuitState(name string, state CircuitState) {
	pc.circuitState.WithLabelValues(name).Set(float64(state))
}

// RecordRequest records one HTTP request.
func (pc *PrometheusCollector) RecordRequest(method, route string, status int, duration time.Duration) {
	pc.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	pc.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func successLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
