package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	recomputeDuration *prometheus.HistogramVec
	alignedRows       *prometheus.GaugeVec
	windowsFitted     *prometheus.GaugeVec
	windowsSkipped    *prometheus.GaugeVec
	scenarioRuns      *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		recomputeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risklens_recompute_duration_seconds",
				Help:    "Duration of a full per-asset risk recompute",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
		alignedRows: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risklens_aligned_rows",
				Help: "Rows surviving calendar alignment for a symbol",
			},
			[]string{"symbol"},
		),
		windowsFitted: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risklens_windows_fitted",
				Help: "Regression windows fitted in the last recompute",
			},
			[]string{"symbol"},
		),
		windowsSkipped: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risklens_windows_skipped",
				Help: "Regression windows skipped for rank deficiency",
			},
			[]string{"symbol"},
		),
		scenarioRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risklens_scenario_runs_total",
				Help: "Scenario projections served per episode",
			},
			[]string{"scenario"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risklens_cache_lookups_total",
				Help: "Report cache lookups by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risklens_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordRecompute records the wall time of one per-asset recompute.
func (r *Recorder) RecordRecompute(symbol string, seconds float64) {
	r.recomputeDuration.WithLabelValues(symbol).Observe(seconds)
}

// RecordAlignedRows records the surviving panel size for a symbol.
func (r *Recorder) RecordAlignedRows(symbol string, rows int) {
	r.alignedRows.WithLabelValues(symbol).Set(float64(rows))
}

// RecordWindowsFitted records fitted and skipped window counts.
func (r *Recorder) RecordWindowsFitted(symbol string, fitted, skipped int) {
	r.windowsFitted.WithLabelValues(symbol).Set(float64(fitted))
	r.windowsSkipped.WithLabelValues(symbol).Set(float64(skipped))
}

// RecordScenarioRun records one scenario projection.
func (r *Recorder) RecordScenarioRun(scenario string) {
	r.scenarioRuns.WithLabelValues(scenario).Inc()
}

// RecordCacheHit records a cache lookup outcome.
func (r *Recorder) RecordCacheHit(endpoint string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(endpoint, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
