package scorer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/churnguard/internal/models"
)

// CacheKey represents a unique key for caching predictions
type CacheKey struct {
	CustomerID   uuid.UUID
	ModelVersion string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.CustomerID, k.ModelVersion)
}

// PredictionCache provides in-memory caching for churn predictions
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached prediction
func (pc *PredictionCache) Get(key CacheKey) *models.Prediction {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if result, found := pc.cache.Get(key.String()); found {
		if pred, ok := result.(*models.Prediction); ok {
			pc.hitCount++
			pc.updateMetrics()
			return pred
		}
	}

	pc.missCount++
	pc.updateMetrics()
	return nil
}

// Set stores a prediction in cache
func (pc *PredictionCache) Set(key CacheKey, prediction *models.Prediction) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
	}

	pc.cache.Set(key.String(), prediction, pc.ttl)
}

// InvalidateModel removes all cache entries for a model version. Called
// when the scoring service rolls a new model.
func (pc *PredictionCache) InvalidateModel(modelVersion string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	suffix := ":" + modelVersion
	for k := range pc.cache.Items() {
		if len(k) >= len(suffix) && k[len(k)-len(suffix):] == suffix {
			pc.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount = 0
	pc.missCount = 0
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	hits = pc.hitCount
	misses = pc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (pc *PredictionCache) updateMetrics() {
	total := pc.hitCount + pc.missCount
	if total > 0 {
		ScorerCacheHitRatio.Set(float64(pc.hitCount) / float64(total))
	}
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}
