package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PolicyRun represents a persisted threshold-optimization run
type PolicyRun struct {
	ID               uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	ModelVersion     string          `db:"model_version" json:"model_version" validate:"required"`
	CustomerLTV      decimal.Decimal `db:"customer_ltv" json:"customer_ltv"`
	OfferCost        decimal.Decimal `db:"offer_cost" json:"offer_cost"`
	OptimalThreshold float64         `db:"optimal_threshold" json:"optimal_threshold" validate:"gte=0,lte=1"`
	ProjectedProfit  decimal.Decimal `db:"projected_profit" json:"projected_profit"`
	TruePositives    int             `db:"true_positives" json:"true_positives"`
	FalsePositives   int             `db:"false_positives" json:"false_positives"`
	FalseNegatives   int             `db:"false_negatives" json:"false_negatives"`
	TrueNegatives    int             `db:"true_negatives" json:"true_negatives"`
	PortfolioSize    int             `db:"portfolio_size" json:"portfolio_size"`
	Curve            json.RawMessage `db:"curve" json:"curve,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// GetCurvePoints decodes the serialized profit curve
func (r *PolicyRun) GetCurvePoints() ([]map[string]interface{}, error) {
	if r.Curve == nil {
		return nil, nil
	}
	var points []map[string]interface{}
	if err := json.Unmarshal(r.Curve, &points); err != nil {
		return nil, err
	}
	return points, nil
}
