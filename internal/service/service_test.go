package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/models"
	"github.com/yourusername/churnguard/internal/policy"
	"github.com/yourusername/churnguard/internal/scorer"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeScorer scores customers by their stored utilization ratio, so tests
// can pin exact probabilities.
type fakeScorer struct {
	batchCalls int
	healthy    bool
	version    string
}

func (f *fakeScorer) score(customer *models.Customer) *models.Prediction {
	return &models.Prediction{
		ID:           uuid.New(),
		CustomerID:   customer.ID,
		Probability:  customer.AvgUtilizationRatio,
		ModelVersion: "v1",
		PredictedAt:  time.Now(),
	}
}

func (f *fakeScorer) Score(ctx context.Context, customer *models.Customer, modelVersion string) (*models.Prediction, error) {
	return f.score(customer), nil
}

func (f *fakeScorer) BatchScore(ctx context.Context, customers []*models.Customer, modelVersion string) ([]*models.Prediction, error) {
	f.batchCalls++
	predictions := make([]*models.Prediction, len(customers))
	for i, customer := range customers {
		predictions[i] = f.score(customer)
	}
	return predictions, nil
}

func (f *fakeScorer) GetModelInfo(ctx context.Context) (*scorer.ModelInfo, error) {
	version := f.version
	if version == "" {
		version = "v1"
	}
	return &scorer.ModelInfo{
		Name:             "test-model",
		Version:          version,
		ROCAUCScore:      0.99,
		DefaultLTV:       1000,
		DefaultOfferCost: 100,
		BestThreshold:    0.162,
	}, nil
}

func (f *fakeScorer) HealthCheck(ctx context.Context) error {
	return nil
}

// memCustomerRepo is an in-memory CustomerRepository
type memCustomerRepo struct {
	customers []*models.Customer
}

func (m *memCustomerRepo) Create(ctx context.Context, c *models.Customer) error {
	m.customers = append(m.customers, c)
	return nil
}

func (m *memCustomerRepo) CreateBatch(ctx context.Context, cs []*models.Customer) error {
	m.customers = append(m.customers, cs...)
	return nil
}

func (m *memCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	for _, c := range m.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memCustomerRepo) GetAll(ctx context.Context) ([]*models.Customer, error) {
	return m.customers, nil
}

func (m *memCustomerRepo) GetChurned(ctx context.Context) ([]*models.Customer, error) {
	var churned []*models.Customer
	for _, c := range m.customers {
		if c.Churned {
			churned = append(churned, c)
		}
	}
	return churned, nil
}

func (m *memCustomerRepo) Count(ctx context.Context) (int, error) {
	return len(m.customers), nil
}

func (m *memCustomerRepo) CountChurned(ctx context.Context) (int, error) {
	churned, _ := m.GetChurned(ctx)
	return len(churned), nil
}

func (m *memCustomerRepo) Update(ctx context.Context, c *models.Customer) error { return nil }

func (m *memCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (m *memCustomerRepo) DeleteAll(ctx context.Context) error {
	m.customers = nil
	return nil
}

// memPredictionRepo is an in-memory PredictionRepository
type memPredictionRepo struct {
	predictions []*models.Prediction
}

func (m *memPredictionRepo) Insert(ctx context.Context, p *models.Prediction) error {
	m.predictions = append(m.predictions, p)
	return nil
}

func (m *memPredictionRepo) InsertBatch(ctx context.Context, ps []*models.Prediction) error {
	m.predictions = append(m.predictions, ps...)
	return nil
}

func (m *memPredictionRepo) GetByCustomerID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	for i := len(m.predictions) - 1; i >= 0; i-- {
		if m.predictions[i].CustomerID == id {
			return m.predictions[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memPredictionRepo) GetLatestBatch(ctx context.Context, version string) ([]*models.Prediction, error) {
	return m.predictions, nil
}

func (m *memPredictionRepo) GetByModelVersion(ctx context.Context, version string, start, end time.Time) ([]*models.Prediction, error) {
	return m.predictions, nil
}

func (m *memPredictionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// memRunRepo is an in-memory PolicyRunRepository
type memRunRepo struct {
	runs []*models.PolicyRun
}

func (m *memRunRepo) Create(ctx context.Context, run *models.PolicyRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyRun, error) {
	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRunRepo) GetLatest(ctx context.Context) (*models.PolicyRun, error) {
	if len(m.runs) == 0 {
		return nil, models.ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *memRunRepo) GetRecent(ctx context.Context, limit int) ([]*models.PolicyRun, error) {
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return m.runs[len(m.runs)-limit:], nil
}

func (m *memRunRepo) GetByModelVersion(ctx context.Context, version string, limit int) ([]*models.PolicyRun, error) {
	return m.runs, nil
}

// memModelRepo is an in-memory ModelRepository
type memModelRepo struct {
	registered []*models.Model
}

func (m *memModelRepo) Create(ctx context.Context, model *models.Model) error {
	m.registered = append(m.registered, model)
	return nil
}

func (m *memModelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	for _, model := range m.registered {
		if model.ID == id {
			return model, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memModelRepo) GetActive(ctx context.Context) (*models.Model, error) {
	for _, model := range m.registered {
		if model.Active {
			return model, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memModelRepo) GetByVersion(ctx context.Context, name, version string) (*models.Model, error) {
	for _, model := range m.registered {
		if model.Name == name && model.Version == version {
			return model, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memModelRepo) Update(ctx context.Context, model *models.Model) error {
	for i, existing := range m.registered {
		if existing.ID == model.ID {
			m.registered[i] = model
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memModelRepo) SetActive(ctx context.Context, id uuid.UUID) error {
	target, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for _, model := range m.registered {
		if model.Name == target.Name {
			model.Active = model.ID == id
		}
	}
	return nil
}

func portfolioFixture() []*models.Customer {
	// Utilization doubles as the churn probability under fakeScorer
	specs := []struct {
		probability float64
		churned     bool
	}{
		{0.9, true},
		{0.8, true},
		{0.3, false},
		{0.1, false},
	}

	customers := make([]*models.Customer, len(specs))
	for i, spec := range specs {
		customers[i] = &models.Customer{
			ID:                  uuid.New(),
			Age:                 40 + i,
			Gender:              "F",
			AvgUtilizationRatio: spec.probability,
			Churned:             spec.churned,
		}
	}
	return customers
}

func newTestServices(t *testing.T, customers []*models.Customer) (*ScoringService, *PolicyService, *fakeScorer, *memRunRepo) {
	t.Helper()

	log := testLogger()
	sc := &fakeScorer{}
	customerRepo := &memCustomerRepo{customers: customers}
	predictionRepo := &memPredictionRepo{}
	runRepo := &memRunRepo{}

	scoring := NewScoringService(sc, customerRepo, predictionRepo, &memModelRepo{}, logger.NewPolicyLogger(log), log, 2, true)
	cfg := &config.PolicyConfig{
		DefaultLTV:       1000,
		DefaultOfferCost: 100,
		DefaultThreshold: 0.5,
		GridLow:          0.01,
		GridHigh:         0.99,
		GridSteps:        99,
	}
	policySvc := NewPolicyService(scoring, runRepo, logger.NewPolicyLogger(log), logger.NewAuditLogger(log), log, cfg, true)

	return scoring, policySvc, sc, runRepo
}

// TestScorePortfolioBatches tests chunked scoring and persistence
func TestScorePortfolioBatches(t *testing.T) {
	customers := portfolioFixture()
	scoring, _, sc, _ := newTestServices(t, customers)

	scored, predictions, err := scoring.ScorePortfolio(context.Background())
	require.NoError(t, err)
	require.Len(t, scored, 4)
	require.Len(t, predictions, 4)

	// Batch size 2 over 4 customers
	assert.Equal(t, 2, sc.batchCalls)

	for i, prediction := range predictions {
		assert.Equal(t, scored[i].ID, prediction.CustomerID)
		assert.Equal(t, scored[i].AvgUtilizationRatio, prediction.Probability)
	}
}

// TestScorePortfolioEmpty tests scoring an empty portfolio
func TestScorePortfolioEmpty(t *testing.T) {
	scoring, _, _, _ := newTestServices(t, nil)

	_, _, err := scoring.ScorePortfolio(context.Background())
	assert.Error(t, err)
}

// TestOptimizeFindsBestThreshold tests end-to-end optimization
func TestOptimizeFindsBestThreshold(t *testing.T) {
	customers := portfolioFixture()
	_, policySvc, _, runRepo := newTestServices(t, customers)

	params := policy.Params{
		CustomerLTV: decimal.NewFromInt(1000),
		OfferCost:   decimal.NewFromInt(100),
	}

	result, run, err := policySvc.Optimize(context.Background(), params, []float64{0.2, 0.5, 0.85})
	require.NoError(t, err)

	// t=0.2: TP=2 FP=1 FN=0 -> 2*900 - 100 = 1700
	// t=0.5: TP=2 FP=0 FN=0 -> 1800
	// t=0.85: TP=1 FN=1 -> 900 - 1000 = -100
	assert.Equal(t, 0.5, result.Curve.BestThreshold)
	assert.True(t, result.Curve.BestProfit.Equal(decimal.NewFromInt(1800)),
		"expected profit 1800, got %s", result.Curve.BestProfit)

	assert.Equal(t, 2, run.TruePositives)
	assert.Equal(t, 0, run.FalsePositives)
	assert.Equal(t, 4, run.PortfolioSize)

	// Run was persisted
	require.Len(t, runRepo.runs, 1)
	assert.Equal(t, run.ID, runRepo.runs[0].ID)

	points, err := runRepo.runs[0].GetCurvePoints()
	require.NoError(t, err)
	assert.Len(t, points, 3)
}

// TestOptimizeRejectsBadParams tests parameter validation
func TestOptimizeRejectsBadParams(t *testing.T) {
	_, policySvc, _, _ := newTestServices(t, portfolioFixture())

	params := policy.Params{
		CustomerLTV: decimal.NewFromInt(-5),
		OfferCost:   decimal.NewFromInt(100),
	}

	_, _, err := policySvc.Optimize(context.Background(), params, nil)
	assert.ErrorIs(t, err, policy.ErrInvalidParams)
}

// TestOptimizeBroadcastsRun tests the live stream hook
func TestOptimizeBroadcastsRun(t *testing.T) {
	_, policySvc, _, _ := newTestServices(t, portfolioFixture())

	var broadcast []*models.PolicyRun
	policySvc.SetBroadcaster(broadcasterFunc(func(run *models.PolicyRun) {
		broadcast = append(broadcast, run)
	}))

	_, run, err := policySvc.Optimize(context.Background(), policySvc.DefaultParams(), nil)
	require.NoError(t, err)

	require.Len(t, broadcast, 1)
	assert.Equal(t, run.ID, broadcast[0].ID)
}

type broadcasterFunc func(*models.PolicyRun)

func (f broadcasterFunc) BroadcastRun(run *models.PolicyRun) { f(run) }

// TestSimulateThresholdBounds tests simulate threshold validation
func TestSimulateThresholdBounds(t *testing.T) {
	_, policySvc, _, _ := newTestServices(t, portfolioFixture())

	params := policy.Params{
		CustomerLTV: decimal.NewFromInt(1000),
		OfferCost:   decimal.NewFromInt(100),
	}

	_, _, err := policySvc.Simulate(context.Background(), params, 0)
	assert.ErrorIs(t, err, policy.ErrInvalidThreshold)

	summary, breakdown, err := policySvc.Simulate(context.Background(), params, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalCustomers)
	assert.Equal(t, 2, summary.Matrix.TruePositives)

	// Breakdown components sum to total profit
	total := breakdown.Saved.Add(breakdown.Wasted).Add(breakdown.Lost)
	assert.True(t, total.Equal(summary.Profit))
}

// TestSensitivitySweep tests the what-if feature sweep
func TestSensitivitySweep(t *testing.T) {
	customers := portfolioFixture()
	scoring, _, _, _ := newTestServices(t, customers)

	points, err := scoring.Sensitivity(context.Background(), customers[0], "Total_Trans_Ct", []float64{10, 20, 30})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 10.0, points[0].Value)

	_, err = scoring.Sensitivity(context.Background(), customers[0], "Not_A_Feature", []float64{1})
	assert.Error(t, err)
}

// TestSensitivityDoesNotMutateCustomer tests variant isolation
func TestSensitivityDoesNotMutateCustomer(t *testing.T) {
	customers := portfolioFixture()
	scoring, _, _, _ := newTestServices(t, customers)

	original := customers[0].TotalTransCt
	_, err := scoring.Sensitivity(context.Background(), customers[0], "Total_Trans_Ct", []float64{999})
	require.NoError(t, err)
	assert.Equal(t, original, customers[0].TotalTransCt)
}

// TestSensitivityFeatureNames tests the supported feature list
func TestSensitivityFeatureNames(t *testing.T) {
	names := SensitivityFeatureNames()
	assert.Contains(t, names, "Total_Trans_Amt")
	assert.Contains(t, names, "Months_Inactive_12_mon")
}

// TestSyncModelRegistry tests upserting the served model into the registry
func TestSyncModelRegistry(t *testing.T) {
	log := testLogger()
	sc := &fakeScorer{}
	modelRepo := &memModelRepo{}
	scoring := NewScoringService(sc, &memCustomerRepo{}, &memPredictionRepo{}, modelRepo,
		logger.NewPolicyLogger(log), log, 2, false)

	model, err := scoring.SyncModelRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-model", model.Name)
	assert.Equal(t, "v1", model.Version)
	assert.Equal(t, 0.99, model.ROCAUCScore)
	assert.Equal(t, 0.162, model.BestThreshold)
	assert.True(t, model.DefaultLTV.Equal(decimal.NewFromInt(1000)))
	assert.True(t, model.DefaultOfferCost.Equal(decimal.NewFromInt(100)))
	assert.True(t, model.Active)
	require.Len(t, modelRepo.registered, 1)

	// Same served version is refreshed in place, not duplicated
	model, err = scoring.SyncModelRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", model.Version)
	require.Len(t, modelRepo.registered, 1)

	// A new served version is registered and takes over as active
	sc.version = "v2"
	model, err = scoring.SyncModelRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", model.Version)
	assert.True(t, model.Active)
	require.Len(t, modelRepo.registered, 2)

	previous, err := modelRepo.GetByVersion(context.Background(), "test-model", "v1")
	require.NoError(t, err)
	assert.False(t, previous.Active)

	active, err := modelRepo.GetActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", active.Version)
}

// TestActiveModelSyncsWhenRegistryEmpty tests the lazy first sync
func TestActiveModelSyncsWhenRegistryEmpty(t *testing.T) {
	log := testLogger()
	modelRepo := &memModelRepo{}
	scoring := NewScoringService(&fakeScorer{}, &memCustomerRepo{}, &memPredictionRepo{}, modelRepo,
		logger.NewPolicyLogger(log), log, 2, false)

	model, err := scoring.ActiveModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", model.Version)
	assert.True(t, model.Active)
	require.Len(t, modelRepo.registered, 1)
}

// TestDecideRecordsAction tests the decision helper
func TestDecideRecordsAction(t *testing.T) {
	_, policySvc, _, _ := newTestServices(t, portfolioFixture())

	params := policy.Params{
		CustomerLTV: decimal.NewFromInt(1000),
		OfferCost:   decimal.NewFromInt(100),
	}

	decision := policySvc.Decide(0.8, 0.5, params, uuid.NewString())
	assert.Equal(t, policy.ActionTarget, decision.Action)

	decision = policySvc.Decide(0.2, 0.5, params, uuid.NewString())
	assert.Equal(t, policy.ActionSkip, decision.Action)
}
