package dataset

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// FetcherConfig holds configuration for the remote dataset fetcher
type FetcherConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // max consecutive failures before circuit break
}

// DefaultFetcherConfig returns recommended defaults
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:           30 * time.Second,
		MaxRetries:        5,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      10 * time.Second,
		RateLimit:         2.0,
		CircuitBreakerMax: 5,
	}
}

// Fetcher downloads portfolio exports over HTTP with retries, rate
// limiting and a circuit breaker.
type Fetcher struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	consecutiveErrors int
	isOpen            bool
	lastError         error
	logger            *log.Logger
}

// NewFetcher creates a new remote dataset fetcher
func NewFetcher(cfg FetcherConfig, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = fetchRetryPolicy()
	retryClient.Logger = logger

	return &Fetcher{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		logger:            logger,
	}
}

// Fetch downloads the dataset at the given URL and returns its body
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.isOpen {
		return nil, fmt.Errorf("circuit breaker open: %v", f.lastError)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.consecutiveErrors++
		f.lastError = err
		if f.consecutiveErrors >= f.circuitBreakerMax {
			f.isOpen = true
			f.logger.Printf("Circuit breaker opened after %d consecutive errors: %v", f.consecutiveErrors, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching dataset: %d", resp.StatusCode)
	}

	f.consecutiveErrors = 0
	f.isOpen = false

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset body: %w", err)
	}

	return body, nil
}

// Close closes any resources held by the fetcher
func (f *Fetcher) Close() error {
	f.client.HTTPClient.CloseIdleConnections()
	return nil
}

// fetchRetryPolicy defines which HTTP responses should trigger a retry
func fetchRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return true, err
		}

		if resp.StatusCode == 429 || resp.StatusCode == 500 || resp.StatusCode == 502 || resp.StatusCode == 503 || resp.StatusCode == 504 {
			return true, nil
		}

		return false, nil
	}
}
