// Package observability exposes Prometheus metrics for the scrape loop.
package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every metric name.
const MetricsNamespace = "newsrelay"

// Metrics holds the Prometheus metrics for the scrape loop. Each instance
// owns a private registry so several can coexist in one process.
type Metrics struct {
	// Run metrics
	RunsTotal   prometheus.Counter
	RunsSuccess prometheus.Counter
	RunsFailed  prometheus.Counter
	RunsSkipped prometheus.Counter
	RunActive   prometheus.Gauge
	RunDuration prometheus.Histogram

	// Fetch metrics
	FetchesTotal    prometheus.Counter
	FetchErrors     prometheus.Counter
	BytesDownloaded prometheus.Counter

	// Extraction metrics
	CandidatesFound    prometheus.Counter
	CandidatesRejected prometheus.Counter
	ExtractionFailures prometheus.Counter
	FallbackRuns       prometheus.Counter

	// Ingest metrics
	ArticlesAdded prometheus.Counter

	// Schedule metrics
	Reschedules prometheus.Counter

	registry *prometheus.Registry
	handler  http.Handler
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.initRunMetrics(factory)
	m.initFetchMetrics(factory)
	m.initExtractionMetrics(factory)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.With("component", "metrics").Handler(), slog.LevelError),
	})
	return m
}

func counter(factory promauto.Factory, name, help string) prometheus.Counter {
	return factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      name,
		Help:      help,
	})
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = counter(factory, "runs_total", "Total scrape runs started")
	m.RunsSuccess = counter(factory, "runs_success_total", "Total scrape runs that succeeded")
	m.RunsFailed = counter(factory, "runs_failed_total", "Total scrape runs that failed")
	m.RunsSkipped = counter(factory, "runs_skipped_total", "Total triggers skipped while a run was active")
	m.RunActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_active",
		Help:      "Whether a scrape run is in progress",
	})
	m.RunDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of completed scrape runs",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	m.Reschedules = counter(factory, "reschedules_total", "Total schedule updates")
}

func (m *Metrics) initFetchMetrics(factory promauto.Factory) {
	m.FetchesTotal = counter(factory, "fetches_total", "Total source fetches")
	m.FetchErrors = counter(factory, "fetch_errors_total", "Total failed source fetches")
	m.BytesDownloaded = counter(factory, "bytes_downloaded_total", "Total bytes downloaded")
}

func (m *Metrics) initExtractionMetrics(factory promauto.Factory) {
	m.CandidatesFound = counter(factory, "candidates_found_total", "Total candidates accepted by extraction")
	m.CandidatesRejected = counter(factory, "candidates_rejected_total", "Total listing elements rejected by the acceptance filter")
	m.ExtractionFailures = counter(factory, "extraction_failures_total", "Total listing elements that failed extraction")
	m.FallbackRuns = counter(factory, "fallback_runs_total", "Total runs that used the news-link fallback")
	m.ArticlesAdded = counter(factory, "articles_added_total", "Total new articles stored")
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ServeHTTP serves the registry in the Prometheus exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
