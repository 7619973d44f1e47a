package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestInitRegistryIdempotent(t *testing.T) {
	first := InitRegistry()
	second := InitRegistry()
	assert.Same(t, first, second)
}

func TestRecordOptimizationRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordOptimizationRun(0.02)
	})
}

func TestRecordScoringBatch(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordScoringBatch(10127, 1.4)
	})
}

func TestRecordDecision(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordDecision("target")
		RecordDecision("skip")
	})
}

func TestUpdatePolicyGauges(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name      string
		threshold float64
		profit    float64
	}{
		{name: "typical run", threshold: 0.162, profit: 287400},
		{name: "negative profit", threshold: 0.01, profit: -5000},
		{name: "boundary threshold", threshold: 0.99, profit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdatePolicyGauges(tt.threshold, tt.profit, 10127, 1432, 0.161)
			})
		})
	}
}

func TestHandler(t *testing.T) {
	InitRegistry()
	assert.NotNil(t, Handler())
}
