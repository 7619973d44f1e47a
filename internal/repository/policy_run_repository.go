package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/churnguard/internal/database"
	"github.com/yourusername/churnguard/internal/models"
)

const policyRunColumns = `
	id, model_version, customer_ltv, offer_cost, optimal_threshold,
	projected_profit, true_positives, false_positives, false_negatives,
	true_negatives, portfolio_size, curve, created_at
`

// PostgresPolicyRunRepository implements PolicyRunRepository for PostgreSQL
type PostgresPolicyRunRepository struct {
	db *database.DB
}

// NewPostgresPolicyRunRepository creates a new policy run repository
func NewPostgresPolicyRunRepository(db *database.DB) PolicyRunRepository {
	return &PostgresPolicyRunRepository{db: db}
}

// Create persists an optimization run
func (r *PostgresPolicyRunRepository) Create(ctx context.Context, run *models.PolicyRun) error {
	query := `
		INSERT INTO policy_runs (
			id, model_version, customer_ltv, offer_cost, optimal_threshold,
			projected_profit, true_positives, false_positives, false_negatives,
			true_negatives, portfolio_size, curve
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.ModelVersion, run.CustomerLTV, run.OfferCost,
		run.OptimalThreshold, run.ProjectedProfit, run.TruePositives,
		run.FalsePositives, run.FalseNegatives, run.TrueNegatives,
		run.PortfolioSize, run.Curve,
	)
	if err != nil {
		return fmt.Errorf("failed to create policy run: %w", err)
	}

	return nil
}

func scanPolicyRun(row pgx.Row) (*models.PolicyRun, error) {
	run := &models.PolicyRun{}
	err := row.Scan(
		&run.ID, &run.ModelVersion, &run.CustomerLTV, &run.OfferCost,
		&run.OptimalThreshold, &run.ProjectedProfit, &run.TruePositives,
		&run.FalsePositives, &run.FalseNegatives, &run.TrueNegatives,
		&run.PortfolioSize, &run.Curve, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetByID retrieves a policy run by ID
func (r *PostgresPolicyRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyRun, error) {
	query := `SELECT ` + policyRunColumns + ` FROM policy_runs WHERE id = $1`

	run, err := scanPolicyRun(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy run: %w", err)
	}

	return run, nil
}

// GetLatest retrieves the most recent policy run
func (r *PostgresPolicyRunRepository) GetLatest(ctx context.Context) (*models.PolicyRun, error) {
	query := `SELECT ` + policyRunColumns + ` FROM policy_runs ORDER BY created_at DESC LIMIT 1`

	run, err := scanPolicyRun(r.db.GetPool().QueryRow(ctx, query))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest policy run: %w", err)
	}

	return run, nil
}

// GetRecent retrieves the most recent policy runs
func (r *PostgresPolicyRunRepository) GetRecent(ctx context.Context, limit int) ([]*models.PolicyRun, error) {
	query := `SELECT ` + policyRunColumns + ` FROM policy_runs ORDER BY created_at DESC LIMIT $1`
	return r.queryPolicyRuns(ctx, query, limit)
}

// GetByModelVersion retrieves recent runs for a model version
func (r *PostgresPolicyRunRepository) GetByModelVersion(ctx context.Context, modelVersion string, limit int) ([]*models.PolicyRun, error) {
	query := `
		SELECT ` + policyRunColumns + `
		FROM policy_runs
		WHERE model_version = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryPolicyRuns(ctx, query, modelVersion, limit)
}

func (r *PostgresPolicyRunRepository) queryPolicyRuns(ctx context.Context, query string, args ...interface{}) ([]*models.PolicyRun, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PolicyRun
	for rows.Next() {
		run, err := scanPolicyRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
