package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/metrics"
	"github.com/yourusername/churnguard/internal/models"
	"github.com/yourusername/churnguard/internal/policy"
	"github.com/yourusername/churnguard/internal/repository"
)

// RunBroadcaster pushes completed optimization runs to live subscribers
type RunBroadcaster interface {
	BroadcastRun(run *models.PolicyRun)
}

// PolicyService runs threshold optimization over the scored portfolio
type PolicyService struct {
	scoring        *ScoringService
	runRepo        repository.PolicyRunRepository
	policyLogger   *logger.PolicyLogger
	auditLogger    *logger.AuditLogger
	logger         *logrus.Logger
	cfg            *config.PolicyConfig
	broadcaster    RunBroadcaster
	persistEnabled bool
}

// NewPolicyService creates a new policy service
func NewPolicyService(
	scoring *ScoringService,
	runRepo repository.PolicyRunRepository,
	policyLogger *logger.PolicyLogger,
	auditLogger *logger.AuditLogger,
	log *logrus.Logger,
	cfg *config.PolicyConfig,
	persistEnabled bool,
) *PolicyService {
	return &PolicyService{
		scoring:        scoring,
		runRepo:        runRepo,
		policyLogger:   policyLogger,
		auditLogger:    auditLogger,
		logger:         log,
		cfg:            cfg,
		persistEnabled: persistEnabled,
	}
}

// SetBroadcaster attaches a live run broadcaster
func (s *PolicyService) SetBroadcaster(b RunBroadcaster) {
	s.broadcaster = b
}

// DefaultParams returns the configured business parameters
func (s *PolicyService) DefaultParams() policy.Params {
	return policy.Params{
		CustomerLTV: decimalFromFloat(s.cfg.DefaultLTV),
		OfferCost:   decimalFromFloat(s.cfg.DefaultOfferCost),
	}
}

// DefaultThreshold returns the configured fallback threshold
func (s *PolicyService) DefaultThreshold() float64 {
	return s.cfg.DefaultThreshold
}

// Grid returns the configured threshold grid
func (s *PolicyService) Grid() []float64 {
	return policy.Linspace(s.cfg.GridLow, s.cfg.GridHigh, s.cfg.GridSteps)
}

// evaluate scores the portfolio and sweeps the threshold grid
func (s *PolicyService) evaluate(ctx context.Context, params policy.Params, thresholds []float64) (*policy.RunResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(thresholds) == 0 {
		thresholds = s.Grid()
	}

	customers, predictions, err := s.scoring.ScorePortfolio(ctx)
	if err != nil {
		return nil, err
	}

	probabilities := make([]float64, len(predictions))
	for i, prediction := range predictions {
		probabilities[i] = prediction.Probability
	}
	labels := PortfolioLabels(customers)

	curve, err := policy.ComputeProfitCurve(probabilities, labels, params, thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to compute profit curve: %w", err)
	}

	summary, err := policy.Summarize(probabilities, labels, params, curve.BestThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize run: %w", err)
	}

	prCurve, err := policy.PrecisionRecallSweep(probabilities, labels, thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to compute precision-recall curve: %w", err)
	}

	modelVersion := ""
	if len(predictions) > 0 {
		modelVersion = predictions[0].ModelVersion
	}

	return &policy.RunResult{
		Summary:      summary,
		Curve:        curve,
		PRCurve:      prCurve,
		Params:       params,
		ModelVersion: modelVersion,
	}, nil
}

// Curve evaluates the profit curve without recording a run
func (s *PolicyService) Curve(ctx context.Context, params policy.Params, thresholds []float64) (*policy.RunResult, error) {
	return s.evaluate(ctx, params, thresholds)
}

// Optimize scores the portfolio, sweeps the threshold grid and returns
// the profit-maximizing run. The run is persisted and broadcast when
// those features are enabled.
func (s *PolicyService) Optimize(ctx context.Context, params policy.Params, thresholds []float64) (*policy.RunResult, *models.PolicyRun, error) {
	start := time.Now()

	if len(thresholds) == 0 {
		thresholds = s.Grid()
	}

	result, err := s.evaluate(ctx, params, thresholds)
	if err != nil {
		return nil, nil, err
	}
	curve := result.Curve
	summary := result.Summary
	modelVersion := result.ModelVersion

	run, err := s.buildRunRecord(result)
	if err != nil {
		return nil, nil, err
	}

	if s.persistEnabled && s.runRepo != nil {
		if err := s.runRepo.Create(ctx, run); err != nil {
			// Optimization succeeded, persistence is best effort
			s.logger.WithError(err).Warn("Failed to persist policy run")
		}
	}

	duration := time.Since(start)
	metrics.RecordOptimizationRun(duration.Seconds())

	profit, _ := curve.BestProfit.Float64()
	metrics.UpdatePolicyGauges(
		curve.BestThreshold,
		profit,
		summary.TotalCustomers,
		summary.AtRiskCount,
		summary.AttritionRate,
	)

	s.policyLogger.LogOptimizationRun(
		run.ID.String(),
		modelVersion,
		params.CustomerLTV.String(),
		params.OfferCost.String(),
		curve.BestThreshold,
		curve.BestProfit.String(),
		summary.TotalCustomers,
		len(thresholds),
		duration.Milliseconds(),
	)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRun(run)
	}

	return result, run, nil
}

// Simulate evaluates the portfolio at a caller-chosen threshold without
// recording a run.
func (s *PolicyService) Simulate(ctx context.Context, params policy.Params, threshold float64) (*policy.Summary, policy.Breakdown, error) {
	if err := params.Validate(); err != nil {
		return nil, policy.Breakdown{}, err
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, policy.Breakdown{}, policy.ErrInvalidThreshold
	}

	customers, predictions, err := s.scoring.ScorePortfolio(ctx)
	if err != nil {
		return nil, policy.Breakdown{}, err
	}

	probabilities := make([]float64, len(predictions))
	for i, prediction := range predictions {
		probabilities[i] = prediction.Probability
	}

	summary, err := policy.Summarize(probabilities, PortfolioLabels(customers), params, threshold)
	if err != nil {
		return nil, policy.Breakdown{}, err
	}

	return summary, policy.ProfitBreakdown(summary.Matrix, params), nil
}

// Decide maps a single probability to a targeting decision and records it
func (s *PolicyService) Decide(probability, threshold float64, params policy.Params, customerID string) policy.Decision {
	decision := policy.Decide(probability, threshold, params)
	metrics.RecordDecision(string(decision.Action))
	s.policyLogger.LogDecision(customerID, probability, threshold, string(decision.Action))
	return decision
}

// RecentRuns returns the latest persisted optimization runs
func (s *PolicyService) RecentRuns(ctx context.Context, limit int) ([]*models.PolicyRun, error) {
	if s.runRepo == nil {
		return nil, fmt.Errorf("run persistence is not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.runRepo.GetRecent(ctx, limit)
}

func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// buildRunRecord converts an optimization result into its persisted form
func (s *PolicyService) buildRunRecord(result *policy.RunResult) (*models.PolicyRun, error) {
	curveJSON, err := json.Marshal(result.Curve.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to encode curve: %w", err)
	}

	return &models.PolicyRun{
		ID:               uuid.New(),
		ModelVersion:     result.ModelVersion,
		CustomerLTV:      result.Params.CustomerLTV,
		OfferCost:        result.Params.OfferCost,
		OptimalThreshold: result.Curve.BestThreshold,
		ProjectedProfit:  result.Curve.BestProfit,
		TruePositives:    result.Curve.BestMatrix.TruePositives,
		FalsePositives:   result.Curve.BestMatrix.FalsePositives,
		FalseNegatives:   result.Curve.BestMatrix.FalseNegatives,
		TrueNegatives:    result.Curve.BestMatrix.TrueNegatives,
		PortfolioSize:    result.Curve.PortfolioSize,
		Curve:            curveJSON,
		CreatedAt:        time.Now(),
	}, nil
}
