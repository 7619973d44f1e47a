package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/dataset"
	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/models"
	"github.com/yourusername/churnguard/internal/scorer"
	"github.com/yourusername/churnguard/internal/service"
)

// fakeScorer reads the churn probability straight out of the utilization
// ratio so fixtures can pin exact scores.
type fakeScorer struct{}

func (f *fakeScorer) Score(ctx context.Context, customer *models.Customer, modelVersion string) (*models.Prediction, error) {
	return &models.Prediction{
		ID:           uuid.New(),
		CustomerID:   customer.ID,
		Probability:  customer.AvgUtilizationRatio,
		ModelVersion: modelVersion,
		PredictedAt:  time.Now().UTC(),
	}, nil
}

func (f *fakeScorer) BatchScore(ctx context.Context, customers []*models.Customer, modelVersion string) ([]*models.Prediction, error) {
	predictions := make([]*models.Prediction, len(customers))
	for i, customer := range customers {
		prediction, _ := f.Score(ctx, customer, modelVersion)
		predictions[i] = prediction
	}
	return predictions, nil
}

func (f *fakeScorer) GetModelInfo(ctx context.Context) (*scorer.ModelInfo, error) {
	return &scorer.ModelInfo{Name: "churn-xgb", Version: "v3", ROCAUCScore: 0.99, BestThreshold: 0.162}, nil
}

func (f *fakeScorer) HealthCheck(ctx context.Context) error { return nil }

type memCustomers struct {
	customers []*models.Customer
}

func (m *memCustomers) Create(ctx context.Context, c *models.Customer) error {
	m.customers = append(m.customers, c)
	return nil
}

func (m *memCustomers) CreateBatch(ctx context.Context, cs []*models.Customer) error {
	m.customers = append(m.customers, cs...)
	return nil
}

func (m *memCustomers) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	for _, c := range m.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memCustomers) GetAll(ctx context.Context) ([]*models.Customer, error) {
	return m.customers, nil
}

func (m *memCustomers) GetChurned(ctx context.Context) ([]*models.Customer, error) {
	var churned []*models.Customer
	for _, c := range m.customers {
		if c.Churned {
			churned = append(churned, c)
		}
	}
	return churned, nil
}

func (m *memCustomers) Count(ctx context.Context) (int, error) { return len(m.customers), nil }

func (m *memCustomers) CountChurned(ctx context.Context) (int, error) {
	churned, _ := m.GetChurned(ctx)
	return len(churned), nil
}

func (m *memCustomers) Update(ctx context.Context, c *models.Customer) error { return nil }

func (m *memCustomers) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (m *memCustomers) DeleteAll(ctx context.Context) error {
	m.customers = nil
	return nil
}

type nopPredictions struct{}

func (nopPredictions) Insert(ctx context.Context, p *models.Prediction) error        { return nil }
func (nopPredictions) InsertBatch(ctx context.Context, ps []*models.Prediction) error { return nil }
func (nopPredictions) GetByCustomerID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	return nil, models.ErrNotFound
}
func (nopPredictions) GetLatestBatch(ctx context.Context, v string) ([]*models.Prediction, error) {
	return nil, nil
}
func (nopPredictions) GetByModelVersion(ctx context.Context, v string, start, end time.Time) ([]*models.Prediction, error) {
	return nil, nil
}
func (nopPredictions) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memRuns struct {
	runs []*models.PolicyRun
}

func (m *memRuns) Create(ctx context.Context, run *models.PolicyRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRuns) GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyRun, error) {
	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRuns) GetLatest(ctx context.Context) (*models.PolicyRun, error) {
	if len(m.runs) == 0 {
		return nil, models.ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *memRuns) GetRecent(ctx context.Context, limit int) ([]*models.PolicyRun, error) {
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return m.runs[len(m.runs)-limit:], nil
}

func (m *memRuns) GetByModelVersion(ctx context.Context, v string, limit int) ([]*models.PolicyRun, error) {
	return m.runs, nil
}

type memModels struct {
	registered []*models.Model
}

func (m *memModels) Create(ctx context.Context, model *models.Model) error {
	m.registered = append(m.registered, model)
	return nil
}

func (m *memModels) GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	for _, model := range m.registered {
		if model.ID == id {
			return model, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memModels) GetActive(ctx context.Context) (*models.Model, error) {
	for _, model := range m.registered {
		if model.Active {
			return model, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memModels) GetByVersion(ctx context.Context, name, version string) (*models.Model, error) {
	for _, model := range m.registered {
		if model.Name == name && model.Version == version {
			return model, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memModels) Update(ctx context.Context, model *models.Model) error { return nil }

func (m *memModels) SetActive(ctx context.Context, id uuid.UUID) error {
	for _, model := range m.registered {
		model.Active = model.ID == id
	}
	return nil
}

func fixtureCustomer(probability float64, churned bool) *models.Customer {
	return &models.Customer{
		ID:                  uuid.New(),
		Age:                 45,
		Gender:              "M",
		EducationLevel:      "Graduate",
		MaritalStatus:       "Married",
		IncomeCategory:      "$60K - $80K",
		CardCategory:        "Blue",
		MonthsOnBook:        36,
		AvgUtilizationRatio: probability,
		Churned:             churned,
	}
}

func newTestRouter(t *testing.T) (http.Handler, *memCustomers, *memRuns) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		Policy: config.PolicyConfig{
			DefaultLTV:       1000,
			DefaultOfferCost: 100,
			DefaultThreshold: 0.5,
			GridLow:          0.01,
			GridHigh:         0.99,
			GridSteps:        99,
		},
		API:      config.APIConfig{Port: 8080},
		Features: config.FeaturesConfig{StreamEnabled: true, PersistRunsEnabled: true, SensitivityEnabled: true},
	}

	customers := &memCustomers{customers: []*models.Customer{
		fixtureCustomer(0.9, true),
		fixtureCustomer(0.8, true),
		fixtureCustomer(0.3, false),
		fixtureCustomer(0.1, false),
	}}
	runs := &memRuns{}

	policyLog := logger.NewPolicyLogger(log)
	auditLog := logger.NewAuditLogger(log)

	scoringSvc := service.NewScoringService(&fakeScorer{}, customers, nopPredictions{}, &memModels{}, policyLog, log, 100, false)
	policySvc := service.NewPolicyService(scoringSvc, runs, policyLog, auditLog, log, &cfg.Policy, true)
	ingestSvc := service.NewIngestionService(dataset.NewLoader(log), nil, customers, auditLog, log, 100)

	hub := NewStreamHub(log)
	policySvc.SetBroadcaster(hub)

	return NewRouter(cfg, policySvc, scoringSvc, ingestSvc, hub, log), customers, runs
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPortfolioSummary(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/portfolio/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Summary.TotalCustomers)
	assert.Equal(t, 2, resp.Summary.ChurnerCount)
	assert.NotEmpty(t, resp.Assessment)
}

func TestPortfolioSummaryRejectsBadQuery(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/portfolio/summary?ltv=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicyOptimize(t *testing.T) {
	router, _, runs := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/policy/optimize", PolicyRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.BestThreshold, 0.0)
	assert.Less(t, resp.BestThreshold, 1.0)
	assert.Len(t, resp.Curve, 99)
	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, runs.runs, 1)
}

func TestPolicyCurve(t *testing.T) {
	router, _, runs := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/policy/curve?ltv=2000&cost=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Curve, 99)
	assert.Len(t, resp.PRCurve, 99)

	// Curve is a read, it must not record a run
	assert.Empty(t, runs.runs)
}

func TestPolicySimulateRejectsBadThreshold(t *testing.T) {
	router, _, _ := newTestRouter(t)

	threshold := 1.5
	rec := doJSON(t, router, http.MethodPost, "/api/v1/policy/simulate", PolicyRequest{Threshold: &threshold})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicySimulate(t *testing.T) {
	router, _, _ := newTestRouter(t)

	threshold := 0.5
	rec := doJSON(t, router, http.MethodPost, "/api/v1/policy/simulate", PolicyRequest{Threshold: &threshold})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.5, resp.Summary.Threshold)
	assert.Equal(t, 2, resp.Summary.Matrix.TruePositives)
}

func TestPolicyRuns(t *testing.T) {
	router, _, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/policy/optimize", PolicyRequest{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/policy/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Runs []*models.PolicyRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Runs, 1)
}

func TestModelReturnsActiveRegistryEntry(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/model", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var model models.Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.Equal(t, "churn-xgb", model.Name)
	assert.Equal(t, "v3", model.Version)
	assert.True(t, model.Active)
	assert.Equal(t, 0.162, model.BestThreshold)
}

func TestCustomerScore(t *testing.T) {
	router, _, _ := newTestRouter(t)

	customer := fixtureCustomer(0.75, false)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/customers/score", ScoreRequest{Customer: customer})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 0.75, resp.Probability, 1e-9)
	assert.Equal(t, "target", string(resp.Decision.Action))
}

func TestCustomerScoreRequiresBody(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/customers/score", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerScoreByID(t *testing.T) {
	router, customers, _ := newTestRouter(t)

	id := customers.customers[0].ID
	rec := doJSON(t, router, http.MethodGet, "/api/v1/customers/"+id.String()+"/score", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id.String(), resp.CustomerID)
}

func TestCustomerScoreByIDNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/customers/"+uuid.NewString()+"/score", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSensitivityUnsupportedFeature(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := SensitivityRequest{
		Customer: fixtureCustomer(0.4, false),
		Feature:  "Credit_Limit",
		Values:   []float64{1000, 2000},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/customers/sensitivity", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSensitivitySweep(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := SensitivityRequest{
		Customer: fixtureCustomer(0.4, false),
		Feature:  "Total_Trans_Ct",
		Values:   []float64{10, 40, 80},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/customers/sensitivity", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Feature string                     `json:"feature"`
		Points  []service.SensitivityPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Points, 3)
}

func TestIngestRequiresSingleSource(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/portfolio/ingest", IngestRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/portfolio/ingest", IngestRequest{Path: "a.csv", URL: "http://x/a.csv"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestFromFile(t *testing.T) {
	router, customers, _ := newTestRouter(t)

	const header = "CLIENTNUM,Attrition_Flag,Customer_Age,Gender,Dependent_count,Education_Level,Marital_Status,Income_Category,Card_Category,Months_on_book,Total_Relationship_Count,Months_Inactive_12_mon,Contacts_Count_12_mon,Credit_Limit,Total_Revolving_Bal,Avg_Open_To_Buy,Total_Amt_Chng_Q4_Q1,Total_Trans_Amt,Total_Trans_Ct,Total_Ct_Chng_Q4_Q1,Avg_Utilization_Ratio"
	const row = "768805383,Existing Customer,45,M,3,High School,Married,$60K - $80K,Blue,39,5,1,3,12691.0,777,11914.0,1.335,1144,42,1.625,0.061"

	path := filepath.Join(t.TempDir(), "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{header, row}, "\n")), 0o644))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/portfolio/ingest", IngestRequest{Path: path})
	require.Equal(t, http.StatusOK, rec.Code)

	var stats service.IngestStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Loaded)
	assert.Len(t, customers.customers, 1)
}

func TestStreamBroadcastsRuns(t *testing.T) {
	router, _, _ := newTestRouter(t)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/policy/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp, err := http.Post(server.URL+"/api/v1/policy/optimize", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event StreamEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "policy_run", event.Type)
	require.NotNil(t, event.Run)
	assert.Greater(t, event.Run.OptimalThreshold, 0.0)
}
