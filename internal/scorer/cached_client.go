package scorer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/models"
)

// CachedClient wraps Client with prediction caching
type CachedClient struct {
	client *Client
	cache  *PredictionCache
	logger *logrus.Logger

	mu          sync.Mutex
	lastVersion string
}

// NewCachedClient creates a new cached scoring client
func NewCachedClient(cfg *config.ScorerConfig, logger *logrus.Logger) *CachedClient {
	return &CachedClient{
		client: NewClient(cfg, logger),
		cache: NewPredictionCache(
			time.Duration(cfg.CacheTTLSeconds)*time.Second,
			cfg.CacheMaxSize,
		),
		logger: logger,
	}
}

// Score retrieves a churn probability with caching. The model version in
// the cache key is resolved from the last seen response, so a fresh client
// always hits the service once.
func (c *CachedClient) Score(ctx context.Context, customer *models.Customer, modelVersion string) (*models.Prediction, error) {
	key := CacheKey{CustomerID: customer.ID, ModelVersion: modelVersion}

	if cached := c.cache.Get(key); cached != nil {
		c.logger.WithField("cache_key", key.String()).Debug("Cache hit for prediction")
		ScorerPredictionsTotal.WithLabelValues("true").Inc()
		return cached, nil
	}

	prediction, err := c.client.Score(ctx, customer)
	if err != nil {
		return nil, err
	}

	c.cache.Set(CacheKey{CustomerID: customer.ID, ModelVersion: prediction.ModelVersion}, prediction)
	ScorerPredictionsTotal.WithLabelValues("false").Inc()
	return prediction, nil
}

// BatchScore scores a batch of customers with partial caching
func (c *CachedClient) BatchScore(ctx context.Context, customers []*models.Customer, modelVersion string) ([]*models.Prediction, error) {
	results := make([]*models.Prediction, len(customers))
	uncached := make([]*models.Customer, 0)
	uncachedIndices := make([]int, 0)

	for i, customer := range customers {
		key := CacheKey{CustomerID: customer.ID, ModelVersion: modelVersion}
		if cached := c.cache.Get(key); cached != nil {
			results[i] = cached
		} else {
			uncached = append(uncached, customer)
			uncachedIndices = append(uncachedIndices, i)
		}
	}

	if len(uncached) > 0 {
		c.logger.WithFields(logrus.Fields{
			"total_requests": len(customers),
			"cached":         len(customers) - len(uncached),
			"uncached":       len(uncached),
		}).Debug("Batch scoring with partial cache")

		predictions, err := c.client.BatchScore(ctx, uncached)
		if err != nil {
			return nil, err
		}

		for i, prediction := range predictions {
			key := CacheKey{CustomerID: prediction.CustomerID, ModelVersion: prediction.ModelVersion}
			c.cache.Set(key, prediction)
			results[uncachedIndices[i]] = prediction
		}

		ScorerPredictionsTotal.WithLabelValues("false").Add(float64(len(uncached)))
	}

	if cachedCount := len(customers) - len(uncached); cachedCount > 0 {
		ScorerPredictionsTotal.WithLabelValues("true").Add(float64(cachedCount))
	}

	return results, nil
}

// GetModelInfo retrieves model metadata, invalidating the cache when the
// served model version changed.
func (c *CachedClient) GetModelInfo(ctx context.Context) (*ModelInfo, error) {
	info, err := c.client.GetModelInfo(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	previous := c.lastVersion
	c.lastVersion = info.Version
	c.mu.Unlock()

	if previous != "" && previous != info.Version {
		c.logger.WithFields(logrus.Fields{
			"previous_version": previous,
			"current_version":  info.Version,
		}).Info("Served model version changed")
		c.InvalidateModel(previous)
	}

	return info, nil
}

// InvalidateModel drops cached predictions for a model version
func (c *CachedClient) InvalidateModel(modelVersion string) {
	c.cache.InvalidateModel(modelVersion)
	c.logger.WithField("model_version", modelVersion).Debug("Invalidated prediction cache")
}

// ClearCache clears all cached predictions
func (c *CachedClient) ClearCache() {
	c.cache.Clear()
}

// GetCacheStats returns cache statistics
func (c *CachedClient) GetCacheStats() (hits, misses uint64, hitRatio float64) {
	return c.cache.Stats()
}

// HealthCheck checks scoring service health
func (c *CachedClient) HealthCheck(ctx context.Context) error {
	return c.client.HealthCheck(ctx)
}
