package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/churnguard/internal/database"
	"github.com/yourusername/churnguard/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Insert stores a single prediction
func (r *PostgresPredictionRepository) Insert(ctx context.Context, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (id, customer_id, probability, model_version, predicted_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.CustomerID, prediction.Probability,
		prediction.ModelVersion, prediction.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

// InsertBatch stores predictions in a single batch
func (r *PostgresPredictionRepository) InsertBatch(ctx context.Context, predictions []*models.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO predictions (id, customer_id, probability, model_version, predicted_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, prediction := range predictions {
		batch.Queue(query,
			prediction.ID, prediction.CustomerID, prediction.Probability,
			prediction.ModelVersion, prediction.PredictedAt,
		)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	for range predictions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert prediction batch: %w", err)
		}
	}

	return nil
}

// GetByCustomerID retrieves the most recent prediction for a customer
func (r *PostgresPredictionRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Prediction, error) {
	query := `
		SELECT id, customer_id, probability, model_version, predicted_at
		FROM predictions
		WHERE customer_id = $1
		ORDER BY predicted_at DESC
		LIMIT 1
	`

	prediction := &models.Prediction{}
	err := r.db.GetPool().QueryRow(ctx, query, customerID).Scan(
		&prediction.ID, &prediction.CustomerID, &prediction.Probability,
		&prediction.ModelVersion, &prediction.PredictedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return prediction, nil
}

// GetLatestBatch retrieves the newest prediction per customer for a model version
func (r *PostgresPredictionRepository) GetLatestBatch(ctx context.Context, modelVersion string) ([]*models.Prediction, error) {
	query := `
		SELECT DISTINCT ON (customer_id) id, customer_id, probability, model_version, predicted_at
		FROM predictions
		WHERE model_version = $1
		ORDER BY customer_id, predicted_at DESC
	`

	return r.queryPredictions(ctx, query, modelVersion)
}

// GetByModelVersion retrieves predictions for a model version in a time range
func (r *PostgresPredictionRepository) GetByModelVersion(ctx context.Context, modelVersion string, start, end time.Time) ([]*models.Prediction, error) {
	query := `
		SELECT id, customer_id, probability, model_version, predicted_at
		FROM predictions
		WHERE model_version = $1 AND predicted_at >= $2 AND predicted_at < $3
		ORDER BY predicted_at ASC
	`

	return r.queryPredictions(ctx, query, modelVersion, start, end)
}

func (r *PostgresPredictionRepository) queryPredictions(ctx context.Context, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		prediction := &models.Prediction{}
		err := rows.Scan(
			&prediction.ID, &prediction.CustomerID, &prediction.Probability,
			&prediction.ModelVersion, &prediction.PredictedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}

	return predictions, rows.Err()
}

// DeleteOlderThan removes stale predictions, returning the number deleted
func (r *PostgresPredictionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, "DELETE FROM predictions WHERE predicted_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale predictions: %w", err)
	}
	return commandTag.RowsAffected(), nil
}
