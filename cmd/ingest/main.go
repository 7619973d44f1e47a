// Package main provides the entry point for the portfolio ingestion CLI tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/churnguard/internal/config"
	"github.com/yourusername/churnguard/internal/database"
	"github.com/yourusername/churnguard/internal/dataset"
	"github.com/yourusername/churnguard/internal/logger"
	"github.com/yourusername/churnguard/internal/metrics"
	"github.com/yourusername/churnguard/internal/repository"
	"github.com/yourusername/churnguard/internal/service"
)

var (
	configFile string
	filePath   string
	fileURL    string
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	ingestSvc  *service.IngestionService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to a portfolio CSV export")
	rootCmd.Flags().StringVarP(&fileURL, "url", "u", "", "URL of a portfolio CSV export")
}

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a customer portfolio export into the database",
	Long: `Replaces the stored customer portfolio with the contents of a CSV export,
either from a local file or fetched over HTTP. Malformed rows are skipped
and reported.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context())
	},
}

func main() {
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(loaded, region, secretName); err != nil {
			return err
		}
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func setupDependencies() error {
	appLog = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	var err error
	db, err = database.NewDB(context.Background(), &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	fetcherCfg := dataset.DefaultFetcherConfig()
	if cfg.Dataset.FetchTimeoutSeconds > 0 {
		fetcherCfg.Timeout = time.Duration(cfg.Dataset.FetchTimeoutSeconds) * time.Second
	}
	fetchLog := log.New(os.Stdout, "dataset-fetch: ", log.LstdFlags)

	ingestSvc = service.NewIngestionService(
		dataset.NewLoader(appLog),
		dataset.NewFetcher(fetcherCfg, fetchLog),
		repos.Customer,
		logger.NewAuditLogger(appLog),
		appLog,
		0,
	)
	return nil
}

func runIngest(ctx context.Context) error {
	// Fall back to the configured dataset source when no flag is given
	source := filePath
	sourceURL := fileURL
	if source == "" && sourceURL == "" {
		source = cfg.Dataset.Path
		sourceURL = cfg.Dataset.URL
	}
	if (source == "") == (sourceURL == "") {
		return fmt.Errorf("exactly one of --file or --url must be set")
	}

	var (
		stats *service.IngestStats
		err   error
	)
	if source != "" {
		stats, err = ingestSvc.IngestFile(ctx, source)
	} else {
		stats, err = ingestSvc.IngestURL(ctx, sourceURL)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s\n", stats.Source)
	fmt.Printf("  rows:    %d\n", stats.TotalRows)
	fmt.Printf("  loaded:  %d\n", stats.Loaded)
	fmt.Printf("  skipped: %d\n", stats.Skipped)
	fmt.Printf("  took:    %s\n", stats.Duration)
	return nil
}
