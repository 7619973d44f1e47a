package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/churnguard/internal/models"
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	CreateBatch(ctx context.Context, customers []*models.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetAll(ctx context.Context) ([]*models.Customer, error)
	GetChurned(ctx context.Context) ([]*models.Customer, error)
	Count(ctx context.Context) (int, error)
	CountChurned(ctx context.Context) (int, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
}

// PredictionRepository defines the interface for prediction data access
type PredictionRepository interface {
	Insert(ctx context.Context, prediction *models.Prediction) error
	InsertBatch(ctx context.Context, predictions []*models.Prediction) error
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Prediction, error)
	GetLatestBatch(ctx context.Context, modelVersion string) ([]*models.Prediction, error)
	GetByModelVersion(ctx context.Context, modelVersion string, start, end time.Time) ([]*models.Prediction, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PolicyRunRepository defines the interface for optimization run data access
type PolicyRunRepository interface {
	Create(ctx context.Context, run *models.PolicyRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyRun, error)
	GetLatest(ctx context.Context) (*models.PolicyRun, error)
	GetRecent(ctx context.Context, limit int) ([]*models.PolicyRun, error)
	GetByModelVersion(ctx context.Context, modelVersion string, limit int) ([]*models.PolicyRun, error)
}

// ModelRepository defines the interface for scorer model registry access
type ModelRepository interface {
	Create(ctx context.Context, model *models.Model) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error)
	GetActive(ctx context.Context) (*models.Model, error)
	GetByVersion(ctx context.Context, name, version string) (*models.Model, error)
	Update(ctx context.Context, model *models.Model) error
	SetActive(ctx context.Context, id uuid.UUID) error
}
