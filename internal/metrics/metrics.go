// Package metrics exposes Prometheus collectors for ranking runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keyrank_runs_total",
			Help: "Total number of extraction runs",
		},
		[]string{"mode", "outcome"}, // outcome: ok, empty, error
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keyrank_run_duration_seconds",
			Help:    "Duration of extraction runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	RankerIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keyrank_ranker_iterations",
			Help:    "Power iterations performed per ranking",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 50, 100},
		},
	)

	RankerNonConverged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keyrank_ranker_nonconverged_total",
			Help: "Rankings that stopped before reaching the tolerance",
		},
	)

	StageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keyrank_stage_fallbacks_total",
			Help: "Failed pipeline stages that handed over to the next stage",
		},
		[]string{"chain", "stage"},
	)

	Candidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keyrank_candidates",
			Help:    "Candidates extracted per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

// RecordRun records the outcome and latency of one extraction run.
func RecordRun(mode, outcome string, d time.Duration) {
	RunsTotal.WithLabelValues(mode, outcome).Inc()
	RunDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordRanking records power iteration statistics.
func RecordRanking(iterations int, converged bool) {
	RankerIterations.Observe(float64(iterations))
	if !converged {
		RankerNonConverged.Inc()
	}
}

// RecordFallback records a failed stage in a fallback chain.
func RecordFallback(chain, stage string) {
	StageFallbacks.WithLabelValues(chain, stage).Inc()
}
