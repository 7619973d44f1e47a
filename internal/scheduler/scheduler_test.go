package scheduler

import (
	"io"
	"log"
	"testing"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(nil, nil, log.New(io.Discard, "", 0))
}

func TestStartRequiresJobs(t *testing.T) {
	s := newTestScheduler()
	if err := s.Start(); err == nil {
		t.Fatal("Expected error starting scheduler with no jobs")
	}
}

func TestScheduleRejectsBadExpression(t *testing.T) {
	s := newTestScheduler()
	if err := s.ScheduleRescore("not a cron expression"); err == nil {
		t.Fatal("Expected error for invalid cron expression")
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	s := newTestScheduler()

	if err := s.ScheduleRescore("0 2 * * *"); err != nil {
		t.Fatalf("Failed to schedule re-score: %v", err)
	}
	if err := s.ScheduleOptimize("30 2 * * *"); err != nil {
		t.Fatalf("Failed to schedule optimization: %v", err)
	}
	if len(s.Entries()) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(s.Entries()))
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Failed to start scheduler: %v", err)
	}
	if !s.IsRunning() {
		t.Error("Expected scheduler to report running")
	}
	if s.GetNextRun().IsZero() {
		t.Error("Expected a next run time while running")
	}

	if err := s.ScheduleRescore("0 3 * * *"); err == nil {
		t.Error("Expected error scheduling while running")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Failed to stop scheduler: %v", err)
	}
	if s.IsRunning() {
		t.Error("Expected scheduler to report stopped")
	}
}
