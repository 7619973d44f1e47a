package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/models"
)

// Client is an HTTP client for the churn scoring service
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewClient creates a new scoring service client
func NewClient(cfg *config.ScorerConfig, logger *logrus.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// ScoreRequest represents a single scoring request payload
type ScoreRequest struct {
	CustomerID string    `json:"customer_id"`
	Features   []float64 `json:"features"`
}

// ScoreResponse represents a single scoring response
type ScoreResponse struct {
	CustomerID   string  `json:"customer_id"`
	Probability  float64 `json:"probability"`
	ModelVersion string  `json:"model_version"`
}

// BatchScoreRequest represents a batch scoring request payload
type BatchScoreRequest struct {
	FeatureNames []string       `json:"feature_names"`
	Rows         []ScoreRequest `json:"rows"`
}

// BatchScoreResponse represents a batch scoring response
type BatchScoreResponse struct {
	ModelVersion string          `json:"model_version"`
	Scores       []ScoreResponse `json:"scores"`
}

// ModelInfo describes the model currently served by the scoring service.
// DefaultLTV and DefaultOfferCost are the economics baked into the training
// artifact; callers fall back to configured values when they are zero.
type ModelInfo struct {
	Name             string    `json:"name"`
	Version          string    `json:"version"`
	ROCAUCScore      float64   `json:"roc_auc_score"`
	DefaultLTV       float64   `json:"default_ltv"`
	DefaultOfferCost float64   `json:"default_offer_cost"`
	BestThreshold    float64   `json:"best_threshold"`
	TrainedAt        time.Time `json:"trained_at"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// Score requests a churn probability for a single customer
func (c *Client) Score(ctx context.Context, customer *models.Customer) (*models.Prediction, error) {
	start := time.Now()

	reqBody := ScoreRequest{
		CustomerID: customer.ID.String(),
		Features:   customer.FeatureVector(),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/api/v1/score", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		ScorerErrorsTotal.WithLabelValues("score", "network").Inc()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		ScorerErrorsTotal.WithLabelValues("score", "http_error").Inc()
		return nil, fmt.Errorf("score request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var scoreResp ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if scoreResp.Probability < 0 || scoreResp.Probability > 1 {
		return nil, fmt.Errorf("%w: %f", ErrInvalidScore, scoreResp.Probability)
	}

	ScorerRequestDuration.WithLabelValues("score").Observe(time.Since(start).Seconds())

	return &models.Prediction{
		ID:           uuid.New(),
		CustomerID:   customer.ID,
		Probability:  scoreResp.Probability,
		ModelVersion: scoreResp.ModelVersion,
		PredictedAt:  time.Now(),
	}, nil
}

// BatchScore requests churn probabilities for a batch of customers
func (c *Client) BatchScore(ctx context.Context, customers []*models.Customer) ([]*models.Prediction, error) {
	if len(customers) == 0 {
		return nil, nil
	}

	start := time.Now()

	reqBody := BatchScoreRequest{
		FeatureNames: models.FeatureNames,
		Rows:         make([]ScoreRequest, len(customers)),
	}
	for i, customer := range customers {
		reqBody.Rows[i] = ScoreRequest{
			CustomerID: customer.ID.String(),
			Features:   customer.FeatureVector(),
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch request: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/api/v1/score/batch", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		ScorerErrorsTotal.WithLabelValues("batch_score", "network").Inc()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		ScorerErrorsTotal.WithLabelValues("batch_score", "http_error").Inc()
		return nil, fmt.Errorf("batch score request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var batchResp BatchScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&batchResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(batchResp.Scores) != len(customers) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrBatchSizeMismatch, len(customers), len(batchResp.Scores))
	}

	now := time.Now()
	predictions := make([]*models.Prediction, len(batchResp.Scores))
	for i, score := range batchResp.Scores {
		if score.Probability < 0 || score.Probability > 1 {
			return nil, fmt.Errorf("%w: %f for customer %s", ErrInvalidScore, score.Probability, score.CustomerID)
		}

		customerID, err := uuid.Parse(score.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad customer id %q", ErrInvalidResponse, score.CustomerID)
		}

		predictions[i] = &models.Prediction{
			ID:           uuid.New(),
			CustomerID:   customerID,
			Probability:  score.Probability,
			ModelVersion: batchResp.ModelVersion,
			PredictedAt:  now,
		}
	}

	c.logger.WithFields(logrus.Fields{
		"batch_size":    len(customers),
		"model_version": batchResp.ModelVersion,
		"duration":      time.Since(start),
	}).Debug("Batch scored")

	ScorerRequestDuration.WithLabelValues("batch_score").Observe(time.Since(start).Seconds())

	return predictions, nil
}

// GetModelInfo retrieves metadata for the currently served model
func (c *Client) GetModelInfo(ctx context.Context) (*ModelInfo, error) {
	req, err := c.newRequest(ctx, "GET", "/api/v1/model", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model info request failed with status %d", resp.StatusCode)
	}

	var info ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return &info, nil
}

// HealthCheck checks scoring service health
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := c.newRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrScorerUnavailable, resp.StatusCode)
	}

	return nil
}
