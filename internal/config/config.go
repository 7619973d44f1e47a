// Package config provides configuration management for the ChurnGuard service.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Scorer    ScorerConfig    `mapstructure:"scorer" validate:"required"`
	Policy    PolicyConfig    `mapstructure:"policy" validate:"required"`
	Dataset   DatasetConfig   `mapstructure:"dataset" validate:"required"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Features  FeaturesConfig  `mapstructure:"features"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ScorerConfig represents the churn scoring service configuration
type ScorerConfig struct {
	BaseURL               string `mapstructure:"base_url" validate:"required,url"`
	APIKey                string `mapstructure:"api_key"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int    `mapstructure:"retry_attempts" validate:"gte=0"`
	BatchSize             int    `mapstructure:"batch_size" validate:"required,gt=0"`
	CacheTTLSeconds       int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize          int    `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// PolicyConfig represents threshold-optimization defaults
type PolicyConfig struct {
	DefaultLTV       float64 `mapstructure:"default_ltv" validate:"required,gt=0"`
	DefaultOfferCost float64 `mapstructure:"default_offer_cost" validate:"required,gt=0"`
	DefaultThreshold float64 `mapstructure:"default_threshold" validate:"required,threshold"`
	GridLow          float64 `mapstructure:"grid_low" validate:"required,threshold"`
	GridHigh         float64 `mapstructure:"grid_high" validate:"required,threshold"`
	GridSteps        int     `mapstructure:"grid_steps" validate:"required,gt=1"`
}

// DatasetConfig represents portfolio dataset configuration
type DatasetConfig struct {
	Path                string  `mapstructure:"path"`
	URL                 string  `mapstructure:"url" validate:"omitempty,url"`
	FetchTimeoutSeconds int     `mapstructure:"fetch_timeout_seconds" validate:"omitempty,gt=0"`
	FetchRateLimit      float64 `mapstructure:"fetch_rate_limit" validate:"omitempty,gt=0"`
	FetchMaxRetries     int     `mapstructure:"fetch_max_retries" validate:"omitempty,gte=0"`
}

// APIConfig represents the dashboard API server configuration
type APIConfig struct {
	Port            int `mapstructure:"port" validate:"required,min=1,max=65535"`
	RequestsPerMin  int `mapstructure:"requests_per_min" validate:"omitempty,gt=0"`
	ShutdownSeconds int `mapstructure:"shutdown_seconds" validate:"omitempty,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig represents scheduled re-scoring configuration
type SchedulerConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	RescoreSchedule  string `mapstructure:"rescore_schedule"`
	OptimizeSchedule string `mapstructure:"optimize_schedule"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	StreamEnabled      bool `mapstructure:"stream_enabled"`
	PersistRunsEnabled bool `mapstructure:"persist_runs_enabled"`
	SensitivityEnabled bool `mapstructure:"sensitivity_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
