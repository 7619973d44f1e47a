// Package scheduler runs periodic re-scoring and re-optimization jobs.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yourusername/churnguard/internal/service"
)

// Scheduler manages scheduled scoring and optimization jobs
type Scheduler struct {
	cron            *cron.Cron
	scoringSvc      *service.ScoringService
	policySvc       *service.PolicyService
	logger          *log.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(scoringSvc *service.ScoringService, policySvc *service.PolicyService, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		scoringSvc:      scoringSvc,
		policySvc:       policySvc,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleRescore schedules periodic re-scoring of the full portfolio so
// stored predictions track the live model.
func (s *Scheduler) ScheduleRescore(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		s.logger.Printf("Starting scheduled portfolio re-score")

		// Pick up model rollovers before scoring against the new version
		if _, err := s.scoringSvc.SyncModelRegistry(ctx); err != nil {
			s.logger.Printf("Error syncing model registry: %v", err)
		}

		customers, _, err := s.scoringSvc.ScorePortfolio(ctx)
		if err != nil {
			s.logger.Printf("Error during scheduled re-score: %v", err)
		} else {
			s.logger.Printf("Scheduled re-score completed: %d customers", len(customers))
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.Printf("Scheduled re-score job with cron expression: %s", cronExpression)

	return nil
}

// ScheduleOptimize schedules periodic threshold re-optimization under the
// configured business parameters. Each run is recorded and broadcast like a
// manually triggered one.
func (s *Scheduler) ScheduleOptimize(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		s.logger.Printf("Starting scheduled threshold optimization")

		result, _, err := s.policySvc.Optimize(ctx, s.policySvc.DefaultParams(), nil)
		if err != nil {
			s.logger.Printf("Error during scheduled optimization: %v", err)
		} else {
			s.logger.Printf("Scheduled optimization completed: threshold=%.3f profit=%s",
				result.Curve.BestThreshold, result.Curve.BestProfit.StringFixed(2))
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.Printf("Scheduled optimization job with cron expression: %s", cronExpression)

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Printf("Scheduler started with %d jobs", len(s.jobIDs))

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Printf("Scheduler stop timed out, running jobs abandoned")
	}
	s.isRunning = false
	s.logger.Printf("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
