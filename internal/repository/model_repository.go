package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/churnguard/internal/database"
	"github.com/yourusername/churnguard/internal/models"
)

const modelColumns = `
	id, name, version, roc_auc_score, default_ltv, default_offer_cost,
	best_threshold, metrics, trained_at, active, created_at, updated_at
`

// PostgresModelRepository implements ModelRepository for PostgreSQL
type PostgresModelRepository struct {
	db *database.DB
}

// NewPostgresModelRepository creates a new model repository
func NewPostgresModelRepository(db *database.DB) ModelRepository {
	return &PostgresModelRepository{db: db}
}

// Create registers a new scorer model version
func (r *PostgresModelRepository) Create(ctx context.Context, model *models.Model) error {
	query := `
		INSERT INTO models (
			id, name, version, roc_auc_score, default_ltv, default_offer_cost,
			best_threshold, metrics, trained_at, active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		model.ID, model.Name, model.Version, model.ROCAUCScore,
		model.DefaultLTV, model.DefaultOfferCost, model.BestThreshold,
		model.Metrics, model.TrainedAt, model.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	return nil
}

func scanModel(row pgx.Row) (*models.Model, error) {
	model := &models.Model{}
	err := row.Scan(
		&model.ID, &model.Name, &model.Version, &model.ROCAUCScore,
		&model.DefaultLTV, &model.DefaultOfferCost, &model.BestThreshold,
		&model.Metrics, &model.TrainedAt, &model.Active,
		&model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// GetByID retrieves a model by ID
func (r *PostgresModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE id = $1`

	model, err := scanModel(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	return model, nil
}

// GetActive retrieves the currently active model
func (r *PostgresModelRepository) GetActive(ctx context.Context) (*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE active = true ORDER BY trained_at DESC LIMIT 1`

	model, err := scanModel(r.db.GetPool().QueryRow(ctx, query))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active model: %w", err)
	}

	return model, nil
}

// GetByVersion retrieves a specific model version
func (r *PostgresModelRepository) GetByVersion(ctx context.Context, name, version string) (*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE name = $1 AND version = $2`

	model, err := scanModel(r.db.GetPool().QueryRow(ctx, query, name, version))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model by version: %w", err)
	}

	return model, nil
}

// Update updates an existing model
func (r *PostgresModelRepository) Update(ctx context.Context, model *models.Model) error {
	query := `
		UPDATE models SET
			roc_auc_score = $2, default_ltv = $3, default_offer_cost = $4,
			best_threshold = $5, metrics = $6, trained_at = $7, active = $8,
			updated_at = NOW()
		WHERE id = $1
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		model.ID, model.ROCAUCScore, model.DefaultLTV, model.DefaultOfferCost,
		model.BestThreshold, model.Metrics, model.TrainedAt, model.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SetActive sets a model as active and deactivates other versions
func (r *PostgresModelRepository) SetActive(ctx context.Context, id uuid.UUID) error {
	model, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "UPDATE models SET active = false WHERE name = $1 AND id != $2", model.Name, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate other versions: %w", err)
	}

	_, err = tx.Exec(ctx, "UPDATE models SET active = true, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to activate model: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
