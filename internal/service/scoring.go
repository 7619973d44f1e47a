package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/metrics"
	"github.com/yourusername/churnguard/internal/models"
	"github.com/yourusername/churnguard/internal/repository"
	"github.com/yourusername/churnguard/internal/scorer"
)

// ScorerClient is the scoring surface the service depends on
type ScorerClient interface {
	Score(ctx context.Context, customer *models.Customer, modelVersion string) (*models.Prediction, error)
	BatchScore(ctx context.Context, customers []*models.Customer, modelVersion string) ([]*models.Prediction, error)
	GetModelInfo(ctx context.Context) (*scorer.ModelInfo, error)
	HealthCheck(ctx context.Context) error
}

// sensitivityFeatures are the what-if features supported by the inspector
var sensitivityFeatures = map[string]func(*models.Customer, float64){
	"Total_Trans_Amt":        func(c *models.Customer, v float64) { c.TotalTransAmt = decimal.NewFromFloat(v) },
	"Total_Trans_Ct":         func(c *models.Customer, v float64) { c.TotalTransCt = int(v) },
	"Months_Inactive_12_mon": func(c *models.Customer, v float64) { c.MonthsInactive12Mon = int(v) },
	"Contacts_Count_12_mon":  func(c *models.Customer, v float64) { c.ContactsCount12Mon = int(v) },
}

// ScoringService scores the portfolio against the churn model
type ScoringService struct {
	scorer         ScorerClient
	customerRepo   repository.CustomerRepository
	predictionRepo repository.PredictionRepository
	modelRepo      repository.ModelRepository
	policyLogger   *logger.PolicyLogger
	logger         *logrus.Logger
	batchSize      int
	persistEnabled bool
}

// NewScoringService creates a new scoring service
func NewScoringService(
	scorerClient ScorerClient,
	customerRepo repository.CustomerRepository,
	predictionRepo repository.PredictionRepository,
	modelRepo repository.ModelRepository,
	policyLogger *logger.PolicyLogger,
	log *logrus.Logger,
	batchSize int,
	persistEnabled bool,
) *ScoringService {
	if batchSize <= 0 {
		batchSize = 500
	}

	return &ScoringService{
		scorer:         scorerClient,
		customerRepo:   customerRepo,
		predictionRepo: predictionRepo,
		modelRepo:      modelRepo,
		policyLogger:   policyLogger,
		logger:         log,
		batchSize:      batchSize,
		persistEnabled: persistEnabled,
	}
}

// SyncModelRegistry upserts the model currently served by the scorer into
// the registry and marks it active. Safe to call repeatedly; the served
// version wins.
func (s *ScoringService) SyncModelRegistry(ctx context.Context) (*models.Model, error) {
	info, err := s.scorer.GetModelInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get model info: %w", err)
	}

	model, err := s.modelRepo.GetByVersion(ctx, info.Name, info.Version)
	switch {
	case errors.Is(err, models.ErrNotFound):
		model = &models.Model{
			ID:               uuid.New(),
			Name:             info.Name,
			Version:          info.Version,
			ROCAUCScore:      info.ROCAUCScore,
			DefaultLTV:       decimal.NewFromFloat(info.DefaultLTV),
			DefaultOfferCost: decimal.NewFromFloat(info.DefaultOfferCost),
			BestThreshold:    info.BestThreshold,
			TrainedAt:        info.TrainedAt,
		}
		if err := s.modelRepo.Create(ctx, model); err != nil {
			return nil, fmt.Errorf("failed to register model %s/%s: %w", info.Name, info.Version, err)
		}
		s.logger.WithFields(logrus.Fields{
			"model_name":    info.Name,
			"model_version": info.Version,
			"roc_auc_score": info.ROCAUCScore,
		}).Info("Registered new model version")
	case err != nil:
		return nil, fmt.Errorf("failed to look up model %s/%s: %w", info.Name, info.Version, err)
	default:
		// Known version, refresh the served metadata
		model.ROCAUCScore = info.ROCAUCScore
		model.DefaultLTV = decimal.NewFromFloat(info.DefaultLTV)
		model.DefaultOfferCost = decimal.NewFromFloat(info.DefaultOfferCost)
		model.BestThreshold = info.BestThreshold
		model.TrainedAt = info.TrainedAt
		if err := s.modelRepo.Update(ctx, model); err != nil {
			return nil, fmt.Errorf("failed to refresh model %s/%s: %w", info.Name, info.Version, err)
		}
	}

	if !model.Active {
		if err := s.modelRepo.SetActive(ctx, model.ID); err != nil {
			return nil, fmt.Errorf("failed to activate model %s/%s: %w", info.Name, info.Version, err)
		}
		model.Active = true
	}

	return model, nil
}

// ActiveModel returns the registry's active model, syncing from the scorer
// when the registry has not seen one yet.
func (s *ScoringService) ActiveModel(ctx context.Context) (*models.Model, error) {
	model, err := s.modelRepo.GetActive(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return s.SyncModelRegistry(ctx)
	}
	return model, err
}

// ScorePortfolio scores every customer and returns customers and their
// predictions in matching order.
func (s *ScoringService) ScorePortfolio(ctx context.Context) ([]*models.Customer, []*models.Prediction, error) {
	start := time.Now()

	customers, err := s.customerRepo.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if len(customers) == 0 {
		return nil, nil, fmt.Errorf("portfolio is empty, ingest a dataset first")
	}

	info, err := s.scorer.GetModelInfo(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve model version: %w", err)
	}

	predictions := make([]*models.Prediction, 0, len(customers))
	for i := 0; i < len(customers); i += s.batchSize {
		end := i + s.batchSize
		if end > len(customers) {
			end = len(customers)
		}

		batch, err := s.scorer.BatchScore(ctx, customers[i:end], info.Version)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to score batch at offset %d: %w", i, err)
		}
		predictions = append(predictions, batch...)
	}

	if s.persistEnabled {
		if err := s.predictionRepo.InsertBatch(ctx, predictions); err != nil {
			// Scoring succeeded, persistence is best effort
			s.logger.WithError(err).Warn("Failed to persist predictions")
		}
	}

	duration := time.Since(start)
	metrics.RecordScoringBatch(len(customers), duration.Seconds())
	s.policyLogger.LogScoringBatch(info.Version, len(customers), 0, duration.Milliseconds())

	return customers, predictions, nil
}

// ScoreCustomer scores a single stored customer
func (s *ScoringService) ScoreCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, *models.Prediction, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	info, err := s.scorer.GetModelInfo(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve model version: %w", err)
	}

	prediction, err := s.scorer.Score(ctx, customer, info.Version)
	if err != nil {
		return nil, nil, err
	}

	if s.persistEnabled {
		if err := s.predictionRepo.Insert(ctx, prediction); err != nil {
			s.logger.WithError(err).Warn("Failed to persist prediction")
		}
	}

	return customer, prediction, nil
}

// ScoreAdHoc scores a customer that is not part of the stored portfolio,
// used by the inspector form.
func (s *ScoringService) ScoreAdHoc(ctx context.Context, customer *models.Customer) (*models.Prediction, error) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}

	info, err := s.scorer.GetModelInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model version: %w", err)
	}

	return s.scorer.Score(ctx, customer, info.Version)
}

// SensitivityPoint is one sample of the what-if sweep
type SensitivityPoint struct {
	Value       float64 `json:"value"`
	Probability float64 `json:"probability"`
}

// Sensitivity sweeps one feature over the given values and rescores the
// customer at each, holding everything else fixed.
func (s *ScoringService) Sensitivity(ctx context.Context, customer *models.Customer, feature string, values []float64) ([]SensitivityPoint, error) {
	mutate, ok := sensitivityFeatures[feature]
	if !ok {
		return nil, fmt.Errorf("unsupported sensitivity feature: %s", feature)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no sweep values given")
	}

	info, err := s.scorer.GetModelInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model version: %w", err)
	}

	variants := make([]*models.Customer, len(values))
	for i, value := range values {
		variant := *customer
		variant.ID = uuid.New()
		mutate(&variant, value)
		variants[i] = &variant
	}

	predictions, err := s.scorer.BatchScore(ctx, variants, info.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to score sensitivity sweep: %w", err)
	}

	points := make([]SensitivityPoint, len(values))
	for i, prediction := range predictions {
		points[i] = SensitivityPoint{Value: values[i], Probability: prediction.Probability}
	}

	return points, nil
}

// SensitivityFeatureNames lists the features supported by Sensitivity
func SensitivityFeatureNames() []string {
	names := make([]string, 0, len(sensitivityFeatures))
	for name := range sensitivityFeatures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheck verifies the scoring backend is reachable
func (s *ScoringService) HealthCheck(ctx context.Context) error {
	return s.scorer.HealthCheck(ctx)
}
