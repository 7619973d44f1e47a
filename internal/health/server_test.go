package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error        { return f.err }
func (f fakePinger) HealthCheck(ctx context.Context) error { return f.err }

func TestReadyReflectsDownstreamChecks(t *testing.T) {
	server := NewServer(Config{
		ServiceName: "churnguard",
		DB:          fakePinger{},
		Scorer:      fakePinger{},
	})
	server.SetReady(true)

	rec := httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp ReadyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["scorer"] != "ok" {
		t.Errorf("Expected all checks ok, got %v", resp.Checks)
	}
}

func TestReadyFailsWhenScorerDown(t *testing.T) {
	server := NewServer(Config{
		ServiceName: "churnguard",
		DB:          fakePinger{},
		Scorer:      fakePinger{err: errors.New("connection refused")},
	})
	server.SetReady(true)

	rec := httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
}

func TestReadyFailsBeforeStartupComplete(t *testing.T) {
	server := NewServer(Config{ServiceName: "churnguard"})

	rec := httptest.NewRecorder()
	server.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
}
