// Package logger provides structured logging helpers for policy events.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PolicyLogger emits structured log events for threshold optimization runs
type PolicyLogger struct {
	logger *logrus.Logger
}

// NewPolicyLogger creates a policy event logger
func NewPolicyLogger(logger *logrus.Logger) *PolicyLogger {
	return &PolicyLogger{logger: logger}
}

// LogOptimizationRun records a completed threshold sweep
func (l *PolicyLogger) LogOptimizationRun(runID, modelVersion string, ltv, offerCost string, optimalThreshold float64, projectedProfit string, portfolioSize, gridSize int, durationMs int64) {
	l.logger.WithFields(logrus.Fields{
		"component":         "policy",
		"event_type":        "optimization_run",
		"run_id":            runID,
		"model_version":     modelVersion,
		"customer_ltv":      ltv,
		"offer_cost":        offerCost,
		"optimal_threshold": optimalThreshold,
		"projected_profit":  projectedProfit,
		"portfolio_size":    portfolioSize,
		"grid_size":         gridSize,
		"duration_ms":       durationMs,
	}).Info("Threshold optimization completed")
}

// LogScoringBatch records a portfolio scoring pass
func (l *PolicyLogger) LogScoringBatch(modelVersion string, customers, cacheHits int, durationMs int64) {
	l.logger.WithFields(logrus.Fields{
		"component":     "policy",
		"event_type":    "scoring_batch",
		"model_version": modelVersion,
		"customers":     customers,
		"cache_hits":    cacheHits,
		"duration_ms":   durationMs,
	}).Info("Portfolio scoring completed")
}

// LogDecision records a single-customer targeting decision
func (l *PolicyLogger) LogDecision(customerID string, probability, threshold float64, action string) {
	l.logger.WithFields(logrus.Fields{
		"component":   "policy",
		"event_type":  "decision",
		"customer_id": customerID,
		"probability": probability,
		"threshold":   threshold,
		"action":      action,
	}).Debug("Targeting decision")
}
