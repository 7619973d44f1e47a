// Package api serves the dashboard HTTP API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/metrics"
	"github.com/yourusername/churnguard/internal/service"
)

// NewRouter builds the dashboard API router
func NewRouter(
	cfg *config.Config,
	policySvc *service.PolicyService,
	scoringSvc *service.ScoringService,
	ingestSvc *service.IngestionService,
	hub *StreamHub,
	logger *logrus.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	if cfg.API.RequestsPerMin > 0 {
		r.Use(RateLimitMiddleware(cfg.API.RequestsPerMin))
	}

	portfolio := NewPortfolioHandler(policySvc)
	policyHandler := NewPolicyHandler(policySvc)
	customers := NewCustomersHandler(scoringSvc, policySvc)
	ingest := NewIngestHandler(ingestSvc)
	model := NewModelHandler(scoringSvc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/portfolio/summary", portfolio.Summary)

		r.Get("/model", model.Active)

		r.Get("/policy/curve", policyHandler.Curve)
		r.Post("/policy/optimize", policyHandler.Optimize)
		r.Post("/policy/simulate", policyHandler.Simulate)
		r.Get("/policy/runs", policyHandler.Runs)

		r.Post("/customers/score", customers.Score)
		r.Get("/customers/{id}/score", customers.ScoreByID)
		if cfg.Features.SensitivityEnabled {
			r.Post("/customers/sensitivity", customers.Sensitivity)
		}

		r.Post("/portfolio/ingest", ingest.Ingest)

		if cfg.Features.StreamEnabled && hub != nil {
			r.Get("/policy/stream", hub.ServeWS)
		}
	})

	return r
}

// NewMetricsRouter builds the metrics and health endpoint router
func NewMetricsRouter(path string) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle(path, metrics.Handler())
	return r
}
