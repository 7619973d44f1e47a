// Package config provides configuration management for the ChurnGuard service.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("threshold", validateThreshold)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	env := fl.Field().String()
	switch env {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateThreshold validates a probability cutoff is strictly inside (0, 1)
func validateThreshold(fl validator.FieldLevel) bool {
	t := fl.Field().Float()
	return t > 0 && t < 1
}

// validateCrossField applies validations spanning multiple fields
func validateCrossField(cfg *Config) error {
	if cfg.Policy.GridLow >= cfg.Policy.GridHigh {
		return fmt.Errorf("policy.grid_low (%f) must be below policy.grid_high (%f)",
			cfg.Policy.GridLow, cfg.Policy.GridHigh)
	}
	if cfg.Policy.DefaultOfferCost >= cfg.Policy.DefaultLTV {
		return fmt.Errorf("policy.default_offer_cost (%f) must be below policy.default_ltv (%f)",
			cfg.Policy.DefaultOfferCost, cfg.Policy.DefaultLTV)
	}
	if cfg.Dataset.Path == "" && cfg.Dataset.URL == "" {
		return fmt.Errorf("dataset.path or dataset.url must be set")
	}
	if cfg.Scheduler.Enabled {
		if cfg.Scheduler.RescoreSchedule == "" && cfg.Scheduler.OptimizeSchedule == "" {
			return fmt.Errorf("scheduler enabled but no schedules configured")
		}
	}
	return nil
}

// formatValidationErrors converts validator errors into a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "configuration validation failed:"
	for _, err := range errs {
		msg += fmt.Sprintf("\n  - field '%s' failed rule '%s'", err.Namespace(), err.Tag())
	}
	return fmt.Errorf("%s", msg)
}
