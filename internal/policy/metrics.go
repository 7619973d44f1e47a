package policy

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ClassifierMetrics holds threshold-dependent classification quality metrics
type ClassifierMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// PRPoint is one threshold on the precision/recall sweep
type PRPoint struct {
	Threshold float64 `json:"threshold"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Summary aggregates portfolio-level statistics at a chosen threshold
type Summary struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	TotalCustomers int             `json:"total_customers"`
	ChurnerCount   int             `json:"churner_count"`
	RetainedCount  int             `json:"retained_count"`
	AttritionRate  float64         `json:"attrition_rate"`
	AtRiskCount    int             `json:"at_risk_count"`
	ROCAUCScore    float64         `json:"roc_auc_score"`
	Threshold      float64         `json:"threshold"`
	Matrix         ConfusionMatrix `json:"matrix"`
	Profit         decimal.Decimal `json:"profit"`
	Classifier     ClassifierMetrics `json:"classifier"`
}

// CalculateClassifierMetrics derives precision, recall and F1 from the
// confusion counts. Zero denominators yield 0.
func CalculateClassifierMetrics(cm ConfusionMatrix) ClassifierMetrics {
	var m ClassifierMetrics
	if denom := cm.TruePositives + cm.FalsePositives; denom > 0 {
		m.Precision = float64(cm.TruePositives) / float64(denom)
	}
	if denom := cm.TruePositives + cm.FalseNegatives; denom > 0 {
		m.Recall = float64(cm.TruePositives) / float64(denom)
	}
	if denom := 2*cm.TruePositives + cm.FalsePositives + cm.FalseNegatives; denom > 0 {
		m.F1Score = 2 * float64(cm.TruePositives) / float64(denom)
	}
	return m
}

// PrecisionRecallSweep computes precision and recall at each threshold
func PrecisionRecallSweep(probabilities []float64, labels []bool, thresholds []float64) ([]PRPoint, error) {
	if len(probabilities) == 0 {
		return nil, ErrEmptyPortfolio
	}
	if len(probabilities) != len(labels) {
		return nil, ErrLengthMismatch
	}
	points := make([]PRPoint, 0, len(thresholds))
	for _, t := range thresholds {
		cm := ComputeConfusionMatrix(probabilities, labels, t)
		m := CalculateClassifierMetrics(cm)
		points = append(points, PRPoint{Threshold: t, Precision: m.Precision, Recall: m.Recall})
	}
	return points, nil
}

// ROCAUC computes the area under the ROC curve as the Mann-Whitney rank
// statistic, with tied probabilities receiving their average rank.
// Returns 0 when the portfolio contains only one class.
func ROCAUC(probabilities []float64, labels []bool) float64 {
	n := len(probabilities)
	if n == 0 || n != len(labels) {
		return 0
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return probabilities[idx[a]] < probabilities[idx[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && probabilities[idx[j]] == probabilities[idx[i]] {
			j++
		}
		// Average rank across the tie group, 1-based
		avg := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var positives, rankSum float64
	for i, churned := range labels {
		if churned {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return 0
	}

	return (rankSum - positives*(positives+1)/2.0) / (positives * negatives)
}

// Summarize computes the portfolio summary at the given threshold
func Summarize(probabilities []float64, labels []bool, params Params, threshold float64) (*Summary, error) {
	if len(probabilities) == 0 {
		return nil, ErrEmptyPortfolio
	}
	if len(probabilities) != len(labels) {
		return nil, ErrLengthMismatch
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	summary := &Summary{
		GeneratedAt:    time.Now().UTC(),
		TotalCustomers: len(probabilities),
		Threshold:      threshold,
		ROCAUCScore:    ROCAUC(probabilities, labels),
	}

	for i, churned := range labels {
		if churned {
			summary.ChurnerCount++
		}
		if probabilities[i] >= threshold {
			summary.AtRiskCount++
		}
	}
	summary.RetainedCount = summary.TotalCustomers - summary.ChurnerCount
	summary.AttritionRate = float64(summary.ChurnerCount) / float64(summary.TotalCustomers)

	summary.Matrix = ComputeConfusionMatrix(probabilities, labels, threshold)
	summary.Profit = Profit(summary.Matrix, params)
	summary.Classifier = CalculateClassifierMetrics(summary.Matrix)
	return summary, nil
}
