// Package main provides the entry point for the retention policy server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/api"
	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/database"
	"github.com/yourusername/churnguard/internal/dataset"
	"github.com/yourusername/churnguard/internal/health"
	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/metrics"
	"github.com/yourusername/churnguard/internal/repository"
	"github.com/yourusername/churnguard/internal/scheduler"
	"github.com/yourusername/churnguard/internal/scorer"
	"github.com/yourusername/churnguard/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("ChurnGuard policy server starting")

	metrics.InitRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	// Initialize repositories
	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	// Initialize scorer client
	scorerClient := scorer.NewCachedClient(&cfg.Scorer, appLog)
	appLog.WithField("scorer_url", cfg.Scorer.BaseURL).Info("Scorer client initialized")

	// Initialize services
	policyLog := logger.NewPolicyLogger(appLog)
	auditLog := logger.NewAuditLogger(appLog)

	fetcherCfg := dataset.DefaultFetcherConfig()
	if cfg.Dataset.FetchTimeoutSeconds > 0 {
		fetcherCfg.Timeout = time.Duration(cfg.Dataset.FetchTimeoutSeconds) * time.Second
	}
	if cfg.Dataset.FetchRateLimit > 0 {
		fetcherCfg.RateLimit = cfg.Dataset.FetchRateLimit
	}
	if cfg.Dataset.FetchMaxRetries > 0 {
		fetcherCfg.MaxRetries = cfg.Dataset.FetchMaxRetries
	}
	fetchLog := log.New(os.Stdout, "dataset-fetch: ", log.LstdFlags)
	fetcher := dataset.NewFetcher(fetcherCfg, fetchLog)

	scoringSvc := service.NewScoringService(
		scorerClient,
		repos.Customer,
		repos.Prediction,
		repos.Model,
		policyLog,
		appLog,
		cfg.Scorer.BatchSize,
		true,
	)
	policySvc := service.NewPolicyService(
		scoringSvc,
		repos.PolicyRun,
		policyLog,
		auditLog,
		appLog,
		&cfg.Policy,
		cfg.Features.PersistRunsEnabled,
	)
	ingestSvc := service.NewIngestionService(
		dataset.NewLoader(appLog),
		fetcher,
		repos.Customer,
		auditLog,
		appLog,
		0,
	)

	// Record the served model in the registry. The scorer may still be
	// starting up, so failure here is not fatal.
	if model, err := scoringSvc.SyncModelRegistry(ctx); err != nil {
		appLog.WithError(err).Warn("Failed to sync model registry")
	} else {
		appLog.WithFields(logrus.Fields{
			"model_name":    model.Name,
			"model_version": model.Version,
		}).Info("Model registry synced")
	}

	// Stream hub pushes completed runs to dashboard clients
	var hub *api.StreamHub
	if cfg.Features.StreamEnabled {
		hub = api.NewStreamHub(appLog)
		policySvc.SetBroadcaster(hub)
		defer hub.Close()
	}

	// Health check server
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		DB:          db,
		Scorer:      scorerClient,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Metrics server
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: api.NewMetricsRouter(cfg.Metrics.Path),
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	// Scheduled re-scoring and re-optimization
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedLog := log.New(os.Stdout, "scheduler: ", log.LstdFlags)
		sched = scheduler.NewScheduler(scoringSvc, policySvc, schedLog)
		if cfg.Scheduler.RescoreSchedule != "" {
			if err := sched.ScheduleRescore(cfg.Scheduler.RescoreSchedule); err != nil {
				appLog.WithError(err).Fatal("Failed to schedule re-scoring")
			}
		}
		if cfg.Scheduler.OptimizeSchedule != "" {
			if err := sched.ScheduleOptimize(cfg.Scheduler.OptimizeSchedule); err != nil {
				appLog.WithError(err).Fatal("Failed to schedule optimization")
			}
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
		defer sched.Stop()
	}

	// API server
	router := api.NewRouter(cfg, policySvc, scoringSvc, ingestSvc, hub, appLog)
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		appLog.WithField("port", cfg.API.Port).Info("API server starting")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Fatal("API server error")
		}
	}()

	healthServer.SetReady(true)
	appLog.WithFields(logrus.Fields{
		"stream_enabled":    cfg.Features.StreamEnabled,
		"persist_runs":      cfg.Features.PersistRunsEnabled,
		"scheduler_enabled": cfg.Scheduler.Enabled,
	}).Info("ChurnGuard policy server is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	shutdownSeconds := cfg.API.ShutdownSeconds
	if shutdownSeconds <= 0 {
		shutdownSeconds = 15
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownSeconds)*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Error during API server shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Error during metrics server shutdown")
		}
	}

	appLog.Info("ChurnGuard policy server shut down successfully")
}
