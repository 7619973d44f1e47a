package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction represents a calibrated churn probability for a customer
type Prediction struct {
	ID           uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	CustomerID   uuid.UUID `db:"customer_id" json:"customer_id" validate:"required,uuid4"`
	Probability  float64   `db:"probability" json:"probability" validate:"gte=0,lte=1"`
	ModelVersion string    `db:"model_version" json:"model_version" validate:"required"`
	PredictedAt  time.Time `db:"predicted_at" json:"predicted_at" validate:"required"`
}

// ExceedsThreshold reports whether the customer would be targeted at the
// given probability cutoff.
func (p *Prediction) ExceedsThreshold(threshold float64) bool {
	return p.Probability >= threshold
}
