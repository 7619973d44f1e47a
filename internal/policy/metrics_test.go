package policy

import (
	"math"
	"testing"
)

func TestCalculateClassifierMetrics(t *testing.T) {
	cm := ConfusionMatrix{TruePositives: 8, FalsePositives: 2, FalseNegatives: 4, TrueNegatives: 86}
	m := CalculateClassifierMetrics(cm)

	if m.Precision != 0.8 {
		t.Fatalf("expected precision 0.8, got %f", m.Precision)
	}
	if want := 8.0 / 12.0; math.Abs(m.Recall-want) > 1e-9 {
		t.Fatalf("expected recall %f, got %f", want, m.Recall)
	}
	if want := 16.0 / 22.0; math.Abs(m.F1Score-want) > 1e-9 {
		t.Fatalf("expected f1 %f, got %f", want, m.F1Score)
	}
}

func TestCalculateClassifierMetricsZeroDenominators(t *testing.T) {
	m := CalculateClassifierMetrics(ConfusionMatrix{TrueNegatives: 100})
	if m.Precision != 0 || m.Recall != 0 || m.F1Score != 0 {
		t.Fatalf("expected zero metrics with no positives, got %+v", m)
	}
}

func TestROCAUCPerfectRanking(t *testing.T) {
	probs := []float64{0.1, 0.2, 0.8, 0.9}
	labels := []bool{false, false, true, true}
	if auc := ROCAUC(probs, labels); auc != 1.0 {
		t.Fatalf("expected AUC 1.0 for perfect ranking, got %f", auc)
	}
}

func TestROCAUCInvertedRanking(t *testing.T) {
	probs := []float64{0.9, 0.8, 0.2, 0.1}
	labels := []bool{false, false, true, true}
	if auc := ROCAUC(probs, labels); auc != 0.0 {
		t.Fatalf("expected AUC 0.0 for inverted ranking, got %f", auc)
	}
}

func TestROCAUCTiedProbabilities(t *testing.T) {
	probs := []float64{0.5, 0.5}
	labels := []bool{true, false}
	if auc := ROCAUC(probs, labels); auc != 0.5 {
		t.Fatalf("expected AUC 0.5 for fully tied scores, got %f", auc)
	}
}

func TestROCAUCSingleClass(t *testing.T) {
	if auc := ROCAUC([]float64{0.3, 0.6}, []bool{true, true}); auc != 0 {
		t.Fatalf("expected AUC 0 when only one class present, got %f", auc)
	}
}

func TestPrecisionRecallSweep(t *testing.T) {
	probs := []float64{0.1, 0.4, 0.6, 0.9}
	labels := []bool{false, true, false, true}

	points, err := PrecisionRecallSweep(probs, labels, Linspace(0.1, 0.9, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 30 {
		t.Fatalf("expected 30 points, got %d", len(points))
	}
	// Recall is monotonically non-increasing as the threshold rises
	for i := 1; i < len(points); i++ {
		if points[i].Recall > points[i-1].Recall {
			t.Fatalf("recall increased from %f to %f at t=%f",
				points[i-1].Recall, points[i].Recall, points[i].Threshold)
		}
	}
}

func TestSummarize(t *testing.T) {
	probs := []float64{0.1, 0.2, 0.7, 0.9}
	labels := []bool{false, false, true, true}

	summary, err := Summarize(probs, labels, testParams(1000, 100), 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalCustomers != 4 {
		t.Fatalf("expected 4 customers, got %d", summary.TotalCustomers)
	}
	if summary.ChurnerCount != 2 || summary.RetainedCount != 2 {
		t.Fatalf("expected 2 churners / 2 retained, got %d/%d", summary.ChurnerCount, summary.RetainedCount)
	}
	if summary.AttritionRate != 0.5 {
		t.Fatalf("expected attrition rate 0.5, got %f", summary.AttritionRate)
	}
	if summary.AtRiskCount != 2 {
		t.Fatalf("expected 2 at-risk customers, got %d", summary.AtRiskCount)
	}
	if summary.Matrix.Total() != 4 {
		t.Fatalf("confusion counts sum to %d, want 4", summary.Matrix.Total())
	}
	if summary.ROCAUCScore != 1.0 {
		t.Fatalf("expected AUC 1.0, got %f", summary.ROCAUCScore)
	}
}

func TestSummarizeEmptyPortfolio(t *testing.T) {
	if _, err := Summarize(nil, nil, testParams(1000, 100), 0.5); err == nil {
		t.Fatal("expected error for empty portfolio")
	}
}
