package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Model represents a registered scorer model version
type Model struct {
	ID               uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	Name             string          `db:"name" json:"name" validate:"required"`
	Version          string          `db:"version" json:"version" validate:"required"`
	ROCAUCScore      float64         `db:"roc_auc_score" json:"roc_auc_score" validate:"gte=0,lte=1"`
	DefaultLTV       decimal.Decimal `db:"default_ltv" json:"default_ltv"`
	DefaultOfferCost decimal.Decimal `db:"default_offer_cost" json:"default_offer_cost"`
	BestThreshold    float64         `db:"best_threshold" json:"best_threshold" validate:"gte=0,lte=1"`
	Metrics          json.RawMessage `db:"metrics" json:"metrics"`
	TrainedAt        time.Time       `db:"trained_at" json:"trained_at"`
	Active           bool            `db:"active" json:"active"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// IsActive checks if the model is currently active
func (m *Model) IsActive() bool {
	return m.Active
}

// GetMetric retrieves a metric value from the Metrics JSON
func (m *Model) GetMetric(name string) (interface{}, error) {
	if m.Metrics == nil {
		return nil, nil
	}

	var metrics map[string]interface{}
	if err := json.Unmarshal(m.Metrics, &metrics); err != nil {
		return nil, err
	}

	return metrics[name], nil
}
