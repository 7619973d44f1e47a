// Package scorer provides Prometheus metrics for scoring operations.
package scorer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScorerPredictionsTotal tracks total churn predictions
	ScorerPredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_predictions_total",
			Help: "Total number of churn predictions made",
		},
		[]string{"cache_hit"},
	)

	// ScorerRequestDuration tracks scoring request latency
	ScorerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scorer_request_duration_seconds",
			Help:    "Scoring service request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// ScorerCacheHitRatio tracks cache hit ratio
	ScorerCacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scorer_cache_hit_ratio",
			Help: "Churn prediction cache hit ratio",
		},
	)

	// ScorerErrorsTotal tracks scoring service errors
	ScorerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_errors_total",
			Help: "Total number of scoring service errors",
		},
		[]string{"method", "error_type"},
	)
)
