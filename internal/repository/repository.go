package repository

import (
	"fmt"

	"github.com/yourusername/churnguard/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Customer   CustomerRepository
	Prediction PredictionRepository
	PolicyRun  PolicyRunRepository
	Model      ModelRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Customer:   NewPostgresCustomerRepository(db),
		Prediction: NewPostgresPredictionRepository(db),
		PolicyRun:  NewPostgresPolicyRunRepository(db),
		Model:      NewPostgresModelRepository(db),
	}, nil
}
