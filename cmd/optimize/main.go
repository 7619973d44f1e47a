// Package main provides the entry point for the threshold optimization CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/database"
	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/metrics"
	"github.com/yourusername/churnguard/internal/policy"
	"github.com/yourusername/churnguard/internal/repository"
	"github.com/yourusername/churnguard/internal/scorer"
	"github.com/yourusername/churnguard/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		ltv        = flag.Float64("ltv", 0, "Customer lifetime value override")
		cost       = flag.Float64("cost", 0, "Retention offer cost override")
		threshold  = flag.Float64("threshold", 0, "Evaluate a single threshold instead of sweeping the grid")
		htmlOut    = flag.String("html", "", "Output path for HTML report")
		csvOut     = flag.String("csv", "", "Output path for CSV export")
		persist    = flag.Bool("persist", false, "Record the run in the database")
	)
	flag.Parse()

	appLog := newLogger()
	ctx := context.Background()

	cfg := loadConfigWithSecrets(*configPath, appLog)
	metrics.InitRegistry()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.Fatalf("Failed to initialize repositories: %v", err)
	}

	policyLog := logger.NewPolicyLogger(appLog)
	auditLog := logger.NewAuditLogger(appLog)
	scorerClient := scorer.NewCachedClient(&cfg.Scorer, appLog)

	scoringSvc := service.NewScoringService(scorerClient, repos.Customer, repos.Prediction, repos.Model, policyLog, appLog, cfg.Scorer.BatchSize, false)
	policySvc := service.NewPolicyService(scoringSvc, repos.PolicyRun, policyLog, auditLog, appLog, &cfg.Policy, *persist)

	params := policySvc.DefaultParams()
	if *ltv > 0 {
		params.CustomerLTV = decimal.NewFromFloat(*ltv)
	}
	if *cost > 0 {
		params.OfferCost = decimal.NewFromFloat(*cost)
	}

	if *threshold > 0 {
		runSimulation(ctx, policySvc, params, *threshold, appLog)
		return
	}

	result, run, err := policySvc.Optimize(ctx, params, nil)
	if err != nil {
		appLog.Fatalf("Optimization failed: %v", err)
	}
	if run != nil {
		appLog.WithField("run_id", run.ID).Info("Run recorded")
	}

	fmt.Print(policy.GenerateConsoleReport(*result))

	if *htmlOut != "" {
		if err := policy.GenerateHTMLReport(*result, *htmlOut); err != nil {
			appLog.Fatalf("Failed to write HTML report: %v", err)
		}
		appLog.WithField("path", *htmlOut).Info("HTML report written")
	}
	if *csvOut != "" {
		if err := policy.GenerateCSVExport(*result, *csvOut); err != nil {
			appLog.Fatalf("Failed to write CSV export: %v", err)
		}
		appLog.WithField("path", *csvOut).Info("CSV export written")
	}
}

func runSimulation(ctx context.Context, policySvc *service.PolicyService, params policy.Params, threshold float64, appLog *logrus.Logger) {
	summary, breakdown, err := policySvc.Simulate(ctx, params, threshold)
	if err != nil {
		appLog.Fatalf("Simulation failed: %v", err)
	}

	fmt.Printf("Threshold %.3f (%s)\n", threshold, policy.AssessThreshold(threshold))
	fmt.Printf("  Portfolio:  %d customers, %d churners (%.1f%% attrition)\n",
		summary.TotalCustomers, summary.ChurnerCount, summary.AttritionRate*100)
	fmt.Printf("  Targeted:   %d customers\n", summary.Matrix.TruePositives+summary.Matrix.FalsePositives)
	fmt.Printf("  Profit:     %s\n", summary.Profit.StringFixed(2))
	fmt.Printf("    saved     %s\n", breakdown.Saved.StringFixed(2))
	fmt.Printf("    wasted    %s\n", breakdown.Wasted.StringFixed(2))
	fmt.Printf("    lost      %s\n", breakdown.Lost.StringFixed(2))
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

func loadConfigWithSecrets(path string, appLog *logrus.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		appLog.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			appLog.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			appLog.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		appLog.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}
