package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunResult bundles everything a report needs about one optimization run
type RunResult struct {
	Summary      *Summary
	Curve        *ProfitCurve
	PRCurve      []PRPoint
	Params       Params
	ModelVersion string
}

// GenerateConsoleReport formats an optimization run for terminal output
func GenerateConsoleReport(result RunResult) string {
	var builder strings.Builder
	builder.WriteString("Retention Policy Report\n")
	builder.WriteString("=======================\n")
	builder.WriteString(fmt.Sprintf("Model Version: %s\n", result.ModelVersion))
	builder.WriteString(fmt.Sprintf("Total Customers: %d\n", result.Summary.TotalCustomers))
	builder.WriteString(fmt.Sprintf("Attrition Rate: %.2f%%\n", result.Summary.AttritionRate*100))
	builder.WriteString(fmt.Sprintf("ROC-AUC: %.3f\n", result.Summary.ROCAUCScore))
	builder.WriteString(fmt.Sprintf("Customer LTV: %s\n", result.Params.CustomerLTV))
	builder.WriteString(fmt.Sprintf("Offer Cost: %s\n", result.Params.OfferCost))
	builder.WriteString(fmt.Sprintf("Optimal Threshold: %.3f\n", result.Curve.BestThreshold))
	builder.WriteString(fmt.Sprintf("Projected Profit: %s\n", result.Curve.BestProfit.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("At-Risk Customers: %d\n", result.Summary.AtRiskCount))
	builder.WriteString(fmt.Sprintf("TP/FP/FN/TN: %d/%d/%d/%d\n",
		result.Curve.BestMatrix.TruePositives,
		result.Curve.BestMatrix.FalsePositives,
		result.Curve.BestMatrix.FalseNegatives,
		result.Curve.BestMatrix.TrueNegatives,
	))
	builder.WriteString(fmt.Sprintf("Precision: %.3f  Recall: %.3f  F1: %.3f\n",
		result.Summary.Classifier.Precision,
		result.Summary.Classifier.Recall,
		result.Summary.Classifier.F1Score,
	))
	builder.WriteString(fmt.Sprintf("Note: %s\n", AssessThreshold(result.Curve.BestThreshold)))
	return builder.String()
}

// GenerateHTMLReport creates a simple HTML report
func GenerateHTMLReport(result RunResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Retention Policy Report</title></head>
<body>
<h1>Retention Policy Report</h1>
<p><strong>Model Version:</strong> %s</p>
<p><strong>Total Customers:</strong> %d</p>
<p><strong>Attrition Rate:</strong> %.2f%%</p>
<p><strong>ROC-AUC:</strong> %.3f</p>
<p><strong>Customer LTV:</strong> %s</p>
<p><strong>Offer Cost:</strong> %s</p>
<p><strong>Optimal Threshold:</strong> %.3f</p>
<p><strong>Projected Profit:</strong> %s</p>
<h2>Confusion Matrix</h2>
<table border="1">
<tr><th></th><th>Actual Churned</th><th>Actual Retained</th></tr>
<tr><th>Targeted</th><td>%d</td><td>%d</td></tr>
<tr><th>Skipped</th><td>%d</td><td>%d</td></tr>
</table>
<p>%s</p>
</body>
</html>`,
		result.ModelVersion,
		result.Summary.TotalCustomers,
		result.Summary.AttritionRate*100,
		result.Summary.ROCAUCScore,
		result.Params.CustomerLTV,
		result.Params.OfferCost,
		result.Curve.BestThreshold,
		result.Curve.BestProfit.StringFixed(2),
		result.Curve.BestMatrix.TruePositives,
		result.Curve.BestMatrix.FalsePositives,
		result.Curve.BestMatrix.FalseNegatives,
		result.Curve.BestMatrix.TrueNegatives,
		AssessThreshold(result.Curve.BestThreshold),
	)

	return os.WriteFile(outputPath, []byte(html), 0o644)
}

// GenerateCSVExport exports the profit curve for spreadsheets
func GenerateCSVExport(result RunResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString("threshold,profit,true_positives,false_positives,false_negatives,true_negatives\n")
	for _, point := range result.Curve.Points {
		builder.WriteString(fmt.Sprintf("%.4f,%s,%d,%d,%d,%d\n",
			point.Threshold,
			point.Profit.StringFixed(2),
			point.Matrix.TruePositives,
			point.Matrix.FalsePositives,
			point.Matrix.FalseNegatives,
			point.Matrix.TrueNegatives,
		))
	}
	return os.WriteFile(outputPath, []byte(builder.String()), 0o644)
}
