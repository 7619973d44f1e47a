// Package service wires the portfolio, scorer and policy engine together.
package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/dataset"
	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/metrics"
	"github.com/yourusername/churnguard/internal/models"
	"github.com/yourusername/churnguard/internal/repository"
)

// IngestStats summarizes a portfolio ingest
type IngestStats struct {
	TotalRows int           `json:"total_rows"`
	Loaded    int           `json:"loaded"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	Source    string        `json:"source"`
}

// IngestionService handles the portfolio ingestion workflow
type IngestionService struct {
	loader       *dataset.Loader
	fetcher      *dataset.Fetcher
	customerRepo repository.CustomerRepository
	auditLogger  *logger.AuditLogger
	logger       *logrus.Logger
	batchSize    int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	loader *dataset.Loader,
	fetcher *dataset.Fetcher,
	customerRepo repository.CustomerRepository,
	auditLogger *logger.AuditLogger,
	log *logrus.Logger,
	batchSize int,
) *IngestionService {
	if batchSize <= 0 {
		batchSize = 500
	}

	return &IngestionService{
		loader:       loader,
		fetcher:      fetcher,
		customerRepo: customerRepo,
		auditLogger:  auditLogger,
		logger:       log,
		batchSize:    batchSize,
	}
}

// IngestFile loads a portfolio export from disk, replacing the stored portfolio
func (s *IngestionService) IngestFile(ctx context.Context, path string) (*IngestStats, error) {
	s.logger.WithField("path", path).Info("Starting portfolio ingest from file")

	result, err := s.loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio file: %w", err)
	}

	return s.ingest(ctx, result, path)
}

// IngestURL downloads and loads a portfolio export, replacing the stored portfolio
func (s *IngestionService) IngestURL(ctx context.Context, url string) (*IngestStats, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("no dataset fetcher configured")
	}

	s.logger.WithField("url", url).Info("Starting portfolio ingest from URL")

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio: %w", err)
	}

	result, err := s.loader.Load(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse portfolio: %w", err)
	}

	return s.ingest(ctx, result, url)
}

// ingest replaces the stored portfolio with the loaded customers
func (s *IngestionService) ingest(ctx context.Context, result *dataset.LoadResult, source string) (*IngestStats, error) {
	start := time.Now()

	if len(result.Customers) == 0 {
		return nil, fmt.Errorf("portfolio is empty after validation")
	}

	if err := s.customerRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear portfolio: %w", err)
	}

	for i := 0; i < len(result.Customers); i += s.batchSize {
		end := i + s.batchSize
		if end > len(result.Customers) {
			end = len(result.Customers)
		}

		if err := s.customerRepo.CreateBatch(ctx, result.Customers[i:end]); err != nil {
			return nil, fmt.Errorf("failed to insert customer batch: %w", err)
		}
	}

	stats := &IngestStats{
		TotalRows: result.TotalRows,
		Loaded:    len(result.Customers),
		Skipped:   result.SkippedRows,
		Duration:  time.Since(start),
		Source:    source,
	}

	metrics.RecordIngest(stats.Duration.Seconds())
	s.auditLogger.LogIngestion(source, stats.Loaded, stats.Skipped)

	s.logger.WithFields(logrus.Fields{
		"loaded":   stats.Loaded,
		"skipped":  stats.Skipped,
		"duration": stats.Duration,
	}).Info("Portfolio ingest complete")

	return stats, nil
}

// PortfolioLabels returns the portfolio with churn labels split out, in
// stable order for curve computation.
func PortfolioLabels(customers []*models.Customer) []bool {
	labels := make([]bool, len(customers))
	for i, customer := range customers {
		labels[i] = customer.Churned
	}
	return labels
}
