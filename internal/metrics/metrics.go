// Package metrics provides a centralized Prometheus metrics registry for ChurnGuard.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	OptimizationRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "churnguard",
		Name:      "optimization_runs_total",
		Help:      "Total number of threshold optimization runs",
	})
	CustomersScoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "churnguard",
		Name:      "customers_scored_total",
		Help:      "Total number of customers scored",
	})
	PortfolioIngestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "churnguard",
		Name:      "portfolio_ingests_total",
		Help:      "Total number of portfolio CSV ingestions",
	})
	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "churnguard",
		Name:      "decisions_total",
		Help:      "Total number of per-customer targeting decisions",
	}, []string{"action"})
	ParameterChangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "churnguard",
		Name:      "parameter_changes_total",
		Help:      "Total number of business parameter changes",
	})
)

// Gauge metrics
var (
	OptimalThreshold = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "churnguard",
		Name:      "optimal_threshold",
		Help:      "Current profit-maximizing probability threshold",
	})
	ProjectedProfit = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "churnguard",
		Name:      "projected_profit",
		Help:      "Projected profit at the optimal threshold in currency units",
	})
	PortfolioSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "churnguard",
		Name:      "portfolio_size",
		Help:      "Number of customers in the scored portfolio",
	})
	AtRiskCustomers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "churnguard",
		Name:      "at_risk_customers",
		Help:      "Number of customers at or above the current threshold",
	})
	AttritionRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "churnguard",
		Name:      "attrition_rate",
		Help:      "Observed portfolio attrition rate",
	})
	ModelROCAUC = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "churnguard",
		Name:      "model_roc_auc",
		Help:      "ROC-AUC of the scoring model over the portfolio",
	}, []string{"model_version"})
)

// Histogram metrics
var (
	OptimizationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "churnguard",
		Name:      "optimization_duration_seconds",
		Help:      "Duration of threshold sweep runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ScoringBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "churnguard",
		Name:      "scoring_batch_duration_seconds",
		Help:      "Duration of portfolio scoring passes in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "churnguard",
		Name:      "ingest_duration_seconds",
		Help:      "Duration of portfolio ingestion in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(OptimizationRunsTotal)
		registry.MustRegister(CustomersScoredTotal)
		registry.MustRegister(PortfolioIngestsTotal)
		registry.MustRegister(DecisionsTotal)
		registry.MustRegister(ParameterChangesTotal)

		// Register gauge metrics
		registry.MustRegister(OptimalThreshold)
		registry.MustRegister(ProjectedProfit)
		registry.MustRegister(PortfolioSize)
		registry.MustRegister(AtRiskCustomers)
		registry.MustRegister(AttritionRate)
		registry.MustRegister(ModelROCAUC)

		// Register histogram metrics
		registry.MustRegister(OptimizationDuration)
		registry.MustRegister(ScoringBatchDuration)
		registry.MustRegister(IngestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordOptimizationRun records a completed threshold sweep.
func RecordOptimizationRun(durationSeconds float64) {
	OptimizationRunsTotal.Inc()
	OptimizationDuration.Observe(durationSeconds)
}

// RecordScoringBatch records a portfolio scoring pass.
func RecordScoringBatch(customers int, durationSeconds float64) {
	CustomersScoredTotal.Add(float64(customers))
	ScoringBatchDuration.Observe(durationSeconds)
}

// RecordIngest records a portfolio ingestion.
func RecordIngest(durationSeconds float64) {
	PortfolioIngestsTotal.Inc()
	IngestDuration.Observe(durationSeconds)
}

// RecordDecision records a targeting decision by action.
func RecordDecision(action string) {
	DecisionsTotal.WithLabelValues(action).Inc()
}

// RecordParameterChange records a business parameter change.
func RecordParameterChange() {
	ParameterChangesTotal.Inc()
}

// UpdatePolicyGauges updates the policy snapshot gauges after a run.
func UpdatePolicyGauges(optimalThreshold, projectedProfit float64, portfolioSize, atRisk int, attritionRate float64) {
	OptimalThreshold.Set(optimalThreshold)
	ProjectedProfit.Set(projectedProfit)
	PortfolioSize.Set(float64(portfolioSize))
	AtRiskCustomers.Set(float64(atRisk))
	AttritionRate.Set(attritionRate)
}
