// Package logger provides audit logging for business parameter changes.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger records operator-visible changes to the retention policy
type AuditLogger struct {
	logger *logrus.Logger
}

// NewAuditLogger creates an audit logger
func NewAuditLogger(logger *logrus.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogParameterChange records a change to a business parameter (LTV or
// offer cost) coming from the dashboard.
func (l *AuditLogger) LogParameterChange(parameter string, oldValue, newValue string, source string) {
	l.logger.WithFields(logrus.Fields{
		"component":      "audit",
		"event_type":     "parameter_change",
		"parameter_name": parameter,
		"old_value":      oldValue,
		"new_value":      newValue,
		"source":         source,
	}).Info("Business parameter changed")
}

// LogThresholdOverride records an operator overriding the optimal threshold
func (l *AuditLogger) LogThresholdOverride(optimalThreshold, overrideThreshold float64, source string) {
	l.logger.WithFields(logrus.Fields{
		"component":          "audit",
		"event_type":         "threshold_override",
		"optimal_threshold":  optimalThreshold,
		"override_threshold": overrideThreshold,
		"source":             source,
	}).Warn("Threshold manually overridden")
}

// LogIngestion records a portfolio load
func (l *AuditLogger) LogIngestion(source string, rows, rejected int) {
	l.logger.WithFields(logrus.Fields{
		"component":  "audit",
		"event_type": "ingestion",
		"source":     source,
		"rows":       rows,
		"rejected":   rejected,
	}).Info("Portfolio ingested")
}
