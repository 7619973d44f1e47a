package policy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Params holds the two business parameters driving the profit formula
type Params struct {
	CustomerLTV decimal.Decimal `json:"customer_ltv"`
	OfferCost   decimal.Decimal `json:"offer_cost"`
}

// Validate checks the business parameters are usable
func (p Params) Validate() error {
	if p.CustomerLTV.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: customer LTV must be positive, got %s", ErrInvalidParams, p.CustomerLTV)
	}
	if p.OfferCost.IsNegative() {
		return fmt.Errorf("%w: offer cost cannot be negative, got %s", ErrInvalidParams, p.OfferCost)
	}
	return nil
}

// ConfusionMatrix holds outcome counts at a single threshold.
// Targeted (probability >= threshold) is the positive prediction.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	TrueNegatives  int `json:"true_negatives"`
}

// Total returns the portfolio size covered by the matrix
func (cm ConfusionMatrix) Total() int {
	return cm.TruePositives + cm.FalsePositives + cm.FalseNegatives + cm.TrueNegatives
}

// CurvePoint is one evaluated threshold on the profit curve
type CurvePoint struct {
	Threshold float64         `json:"threshold"`
	Matrix    ConfusionMatrix `json:"matrix"`
	Profit    decimal.Decimal `json:"profit"`
}

// ProfitCurve is the full sweep result with the profit-maximizing point
type ProfitCurve struct {
	Points        []CurvePoint    `json:"points"`
	BestThreshold float64         `json:"best_threshold"`
	BestProfit    decimal.Decimal `json:"best_profit"`
	BestMatrix    ConfusionMatrix `json:"best_matrix"`
	PortfolioSize int             `json:"portfolio_size"`
}

// ComputeConfusionMatrix cross-tabulates the targeting decision at the
// given threshold against the actual churn labels.
func ComputeConfusionMatrix(probabilities []float64, labels []bool, threshold float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, p := range probabilities {
		targeted := p >= threshold
		switch {
		case targeted && labels[i]:
			cm.TruePositives++
		case targeted && !labels[i]:
			cm.FalsePositives++
		case !targeted && labels[i]:
			cm.FalseNegatives++
		default:
			cm.TrueNegatives++
		}
	}
	return cm
}

// Profit applies the closed-form payoff:
// TP*(LTV - cost) - FP*cost - FN*LTV.
// A saved churner is worth the retained LTV minus the offer; a wasted
// offer costs the incentive; a missed churner forfeits the LTV.
func Profit(cm ConfusionMatrix, params Params) decimal.Decimal {
	tp := decimal.NewFromInt(int64(cm.TruePositives))
	fp := decimal.NewFromInt(int64(cm.FalsePositives))
	fn := decimal.NewFromInt(int64(cm.FalseNegatives))

	saved := tp.Mul(params.CustomerLTV.Sub(params.OfferCost))
	wasted := fp.Mul(params.OfferCost)
	lost := fn.Mul(params.CustomerLTV)

	return saved.Sub(wasted).Sub(lost)
}

// ComputeProfitCurve evaluates profit at every threshold in the grid and
// returns the curve together with the profit-maximizing threshold.
// Ties are broken by the lowest threshold. Thresholds are evaluated in
// the order supplied.
func ComputeProfitCurve(probabilities []float64, labels []bool, params Params, thresholds []float64) (*ProfitCurve, error) {
	if len(probabilities) == 0 {
		return nil, ErrEmptyPortfolio
	}
	if len(probabilities) != len(labels) {
		return nil, fmt.Errorf("%w: %d probabilities, %d labels", ErrLengthMismatch, len(probabilities), len(labels))
	}
	if len(thresholds) == 0 {
		return nil, ErrEmptyGrid
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	for _, t := range thresholds {
		if t <= 0 || t >= 1 {
			return nil, fmt.Errorf("%w: %f", ErrInvalidThreshold, t)
		}
	}

	curve := &ProfitCurve{
		Points:        make([]CurvePoint, 0, len(thresholds)),
		PortfolioSize: len(probabilities),
	}

	bestIdx := -1
	for _, t := range thresholds {
		cm := ComputeConfusionMatrix(probabilities, labels, t)
		point := CurvePoint{
			Threshold: t,
			Matrix:    cm,
			Profit:    Profit(cm, params),
		}
		curve.Points = append(curve.Points, point)

		if bestIdx < 0 ||
			point.Profit.GreaterThan(curve.Points[bestIdx].Profit) ||
			(point.Profit.Equal(curve.Points[bestIdx].Profit) && t < curve.Points[bestIdx].Threshold) {
			bestIdx = len(curve.Points) - 1
		}
	}

	best := curve.Points[bestIdx]
	curve.BestThreshold = best.Threshold
	curve.BestProfit = best.Profit
	curve.BestMatrix = best.Matrix
	return curve, nil
}

// DefaultThresholds returns the standard evaluation grid: 0.01 to 0.99
// in steps of 0.01.
func DefaultThresholds() []float64 {
	grid := make([]float64, 99)
	for i := range grid {
		grid[i] = float64(i+1) / 100.0
	}
	return grid
}

// Linspace returns n evenly spaced thresholds between lo and hi inclusive
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	grid := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid
}
