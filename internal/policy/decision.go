package policy

import (
	"github.com/shopspring/decimal"
)

// Action is the recommended retention action for a customer
type Action string

const (
	// ActionTarget recommends sending a retention offer
	ActionTarget Action = "target"
	// ActionSkip recommends no action
	ActionSkip Action = "skip"
)

// Decision is the per-customer recommendation at a threshold
type Decision struct {
	Probability   float64         `json:"probability"`
	Threshold     float64         `json:"threshold"`
	Action        Action          `json:"action"`
	ExpectedValue decimal.Decimal `json:"expected_value"`
}

// Decide maps a churn probability to a targeting decision. The expected
// value is the retained margin (LTV - cost) for a targeted customer, or
// the avoided offer cost for a skipped one.
func Decide(probability, threshold float64, params Params) Decision {
	d := Decision{
		Probability: probability,
		Threshold:   threshold,
	}
	if probability >= threshold {
		d.Action = ActionTarget
		d.ExpectedValue = params.CustomerLTV.Sub(params.OfferCost)
	} else {
		d.Action = ActionSkip
		d.ExpectedValue = params.OfferCost
	}
	return d
}

// Breakdown splits profit into its per-outcome components:
// saved churners, wasted offers, lost churners, and true negatives
// (which carry no payoff).
type Breakdown struct {
	Saved  decimal.Decimal `json:"saved"`
	Wasted decimal.Decimal `json:"wasted"`
	Lost   decimal.Decimal `json:"lost"`
	Idle   decimal.Decimal `json:"idle"`
}

// ProfitBreakdown decomposes the profit at a threshold by outcome class
func ProfitBreakdown(cm ConfusionMatrix, params Params) Breakdown {
	return Breakdown{
		Saved:  decimal.NewFromInt(int64(cm.TruePositives)).Mul(params.CustomerLTV.Sub(params.OfferCost)),
		Wasted: decimal.NewFromInt(int64(cm.FalsePositives)).Mul(params.OfferCost).Neg(),
		Lost:   decimal.NewFromInt(int64(cm.FalseNegatives)).Mul(params.CustomerLTV).Neg(),
		Idle:   decimal.Zero,
	}
}

// AssessThreshold explains why the optimal threshold landed where it did,
// in terms of the LTV-to-cost ratio.
func AssessThreshold(threshold float64) string {
	switch {
	case threshold < 0.15:
		return "threshold is low because LTV far exceeds offer cost; targeting almost everyone is profitable"
	case threshold > 0.4:
		return "threshold is high because the offer cost is high; targeting must be selective"
	default:
		return "threshold is balanced for optimal profit"
	}
}
