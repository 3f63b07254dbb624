// Package config provides configuration management for the Prop Edge application.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	mustRegister(v, "environment", validateEnvironment)
	mustRegister(v, "loglevel", validateLogLevel)
	mustRegister(v, "forecast_method", validateForecastMethod)
	mustRegister(v, "stat_types", validateStatTypes)
	mustRegister(v, "cron", validateCronExpr)

	return &CustomValidator{validator: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("config: register %q validation: %v", tag, err))
	}
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

	// Additional cross-field validations
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

// validateForecastMethod validates the projection method field
func validateForecastMethod(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	switch method {
	case "SIMPLE", "WEIGHTED":
		return true
	default:
		return false
	}
}

// validateStatTypes validates the configured stat type list
func validateStatTypes(fl validator.FieldLevel) bool {
	statTypes, ok := fl.Field().Interface().([]string)
	if !ok || len(statTypes) == 0 {
		return false
	}

	validStatTypes := map[string]bool{
		"points":   true,
		"rebounds": true,
		"assists":  true,
		"threes":   true,
	}

	for _, statType := range statTypes {
		if !validStatTypes[statType] {
			return false
		}
	}
	return true
}

// validateCronExpr validates standard five-field cron expressions
func validateCronExpr(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	// Validate backtest date range
	startDate, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		return fmt.Errorf("invalid backtest start_date format: %w", err)
	}

	endDate, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		return fmt.Errorf("invalid backtest end_date format: %w", err)
	}

	if !startDate.Before(endDate) {
		return fmt.Errorf("backtest start_date must be before end_date")
	}

	// Validate production environment requirements
	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	// Stake bounds must be orderable
	if cfg.Trading.MinStake > cfg.Trading.MaxStakePerBet {
		return fmt.Errorf("min_stake cannot exceed max_stake_per_bet")
	}

	// Validate max daily loss is less than or equal to max exposure
	if cfg.Trading.MaxDailyLoss > cfg.Trading.MaxExposure {
		return fmt.Errorf("max_daily_loss cannot exceed max_exposure")
	}

	// Default odds must be a valid American price
	if cfg.Trading.DefaultAmericanOdds > -100 && cfg.Trading.DefaultAmericanOdds < 100 {
		return fmt.Errorf("default_american_odds must be >= 100 or <= -100")
	}

	// Validate connection pool settings
	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	// At least one collection source must be enabled
	if len(cfg.EnabledSources()) == 0 {
		return fmt.Errorf("at least one collection source must be enabled")
	}

	// Parlay payout multipliers must cover playable leg counts with a
	// positive-edge denominator (Kelly divides by multiplier-1)
	for legs, multiplier := range cfg.Parlay.PayoutMultipliers {
		if legs < 2 || legs > cfg.Parlay.MaxLegs {
			return fmt.Errorf("parlay payout multiplier for %d legs is outside 2..%d", legs, cfg.Parlay.MaxLegs)
		}
		if multiplier <= 1 {
			return fmt.Errorf("parlay payout multiplier for %d legs must be greater than 1", legs)
		}
	}

	// A streaming feed needs somewhere to connect
	if cfg.Features.LinesStreamEnabled && cfg.LinesFeed.StreamURL == "" {
		return fmt.Errorf("lines_feed.stream_url is required when the lines stream is enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "forecast_method":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: SIMPLE, WEIGHTED\n", field)
		case "stat_types":
			errMsg += fmt.Sprintf("- Field '%s' must contain only: points, rebounds, assists, threes\n", field)
		case "cron":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid cron expression, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		// Production must have SSL enabled
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}

		// Production should not run on placeholder API keys
		for _, source := range cfg.EnabledSources() {
			if source.APIKey != "" && isTestCredential(source.APIKey) {
				return fmt.Errorf("production environment should not use test credentials for source %q", source.Name)
			}
		}
	}

	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
