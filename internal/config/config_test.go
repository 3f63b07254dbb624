// Package config provides configuration management for the Prop Edge application.
package config

import (
	"os"
	"testing"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	expansionConfigMissingPath   = "testdata/expansion_config_missing.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
	expectedNonNilConfig         = "expected non-nil config"
	propEdgeName                 = "prop-edge"
	developmentEnv               = "development"
	invalidEnv                   = "invalid"
	localhostHost                = "localhost"
	postgresPort                 = 5432
	postgresPrefix               = "postgres://"
	testAppName                  = "test-app"
	testDBPassword               = "TEST_DB_PASSWORD"
	testMissingVar               = "TEST_MISSING_VAR"
	expandedSecretValue          = "expanded_secret_value"
	statTypesValidationError     = "stat_types"
	statTypesValidationErrorCaps = "StatTypes"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Name != propEdgeName {
		t.Errorf("expected app name '%s', got '%s'", propEdgeName, cfg.App.Name)
	}

	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}

	if cfg.Database.Host != localhostHost {
		t.Errorf("expected database host '%s', got '%s'", localhostHost, cfg.Database.Host)
	}

	if cfg.Database.Port != postgresPort {
		t.Errorf("expected database port %d, got %d", postgresPort, cfg.Database.Port)
	}

	if cfg.Forecast.Method != "WEIGHTED" {
		t.Errorf("expected forecast method WEIGHTED, got '%s'", cfg.Forecast.Method)
	}

	if len(cfg.Collection.Sources) != 2 {
		t.Errorf("expected 2 collection sources, got %d", len(cfg.Collection.Sources))
	}

	if cfg.Parlay.PayoutMultipliers[3] != 5 {
		t.Errorf("expected 3-leg payout multiplier 5, got %v", cfg.Parlay.PayoutMultipliers[3])
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	// Set an environment variable
	os.Setenv("PROP_EDGE_APP_NAME", testAppName)
	defer os.Unsetenv("PROP_EDGE_APP_NAME")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != testAppName {
		t.Errorf("expected app name '%s' from environment, got '%s'", testAppName, cfg.App.Name)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	err = Validate(cfg)
	if err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = invalidEnv
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
}

// TestValidateInvalidStatTypes tests validation of invalid stat type names
func TestValidateInvalidStatTypes(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	// Set invalid stat types
	cfg.Forecast.StatTypes = []string{"FOO", "BAR"}
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid stat types")
	}

	if !containsSubstring(err.Error(), statTypesValidationError) && !containsSubstring(err.Error(), statTypesValidationErrorCaps) {
		t.Errorf("expected stat types validation error, got: %v", err)
	}
}

// TestValidateEmptyStatTypes tests validation of an empty stat type list
func TestValidateEmptyStatTypes(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	// Set empty stat types
	cfg.Forecast.StatTypes = []string{}
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for empty stat types")
	}
}

// TestValidateValidStatTypes tests validation of valid stat type combinations
func TestValidateValidStatTypes(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	// Test with single valid stat type
	cfg.Forecast.StatTypes = []string{"points"}
	err = Validate(cfg)
	if err != nil {
		t.Fatalf("expected no error for single valid stat type, got %v", err)
	}

	// Test with multiple valid stat types
	cfg.Forecast.StatTypes = []string{"points", "rebounds", "assists"}
	err = Validate(cfg)
	if err != nil {
		t.Fatalf("expected no error for multiple valid stat types, got %v", err)
	}
}

// TestValidateInvalidCronExpression tests validation of malformed schedules
func TestValidateInvalidCronExpression(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Collection.Schedule.StatsSync = "not a cron expression"
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid cron expression")
	}
}

// TestValidateInvalidForecastMethod tests validation of unknown methods
func TestValidateInvalidForecastMethod(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Forecast.Method = "MEDIAN"
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for unknown forecast method")
	}
}

// TestValidateParlayMultipliers tests cross-field parlay constraints
func TestValidateParlayMultipliers(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	// A multiplier at or below 1 breaks Kelly sizing
	cfg.Parlay.PayoutMultipliers = map[int]float64{2: 1.0}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for multiplier <= 1")
	}

	// A leg count above max_legs is unreachable
	cfg.Parlay.PayoutMultipliers = map[int]float64{9: 50.0}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for leg count above max_legs")
	}
}

// TestValidateStakeBounds tests cross-field stake constraints
func TestValidateStakeBounds(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Trading.MinStake = 100
	cfg.Trading.MaxStakePerBet = 50
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error when min_stake exceeds max_stake_per_bet")
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	dsn := cfg.GetDatabaseDSN()
	if dsn == "" {
		t.Fatal("expected non-empty DSN")
	}

	if !containsSubstring(dsn, postgresPrefix) {
		t.Errorf("expected DSN to start with '%s', got '%s'", postgresPrefix, dsn)
	}
}

// TestIsDevelopment tests environment check function
func TestIsDevelopment(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: developmentEnv},
	}

	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}

	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false")
	}
}

// TestIsProduction tests production environment check
func TestIsProduction(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: "production"},
	}

	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to return true")
	}

	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return false")
	}
}

// TestIsStaging tests staging environment check
func TestIsStaging(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: "staging"},
	}

	if !cfg.IsStaging() {
		t.Error("expected IsStaging() to return true")
	}

	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return false")
	}
}

// TestEnabledSources tests filtering of enabled collection sources
func TestEnabledSources(t *testing.T) {
	cfg := &Config{
		Collection: CollectionConfig{
			Sources: []DataSourceConfig{
				{Name: "nba_stats", Enabled: true},
				{Name: "prizepicks", Enabled: false},
			},
		},
	}

	enabled := cfg.EnabledSources()
	if len(enabled) != 1 || enabled[0].Name != "nba_stats" {
		t.Errorf("expected only nba_stats enabled, got %v", enabled)
	}

	source, ok := cfg.SourceByName("prizepicks")
	if !ok || source.Enabled {
		t.Errorf("expected to find disabled prizepicks source, got %v (%v)", source, ok)
	}

	if _, ok := cfg.SourceByName("unknown"); ok {
		t.Error("expected lookup miss for unknown source")
	}
}

// TestLoadConfigEnvironmentVariableExpansion tests environment variable expansion in config file
func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	// Set environment variable
	os.Setenv(testDBPassword, expandedSecretValue)
	defer os.Unsetenv(testDBPassword)

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config with expansion, got %v", err)
	}

	if cfg.Database.Password != expandedSecretValue {
		t.Errorf("expected password '%s' from environment expansion, got '%s'", expandedSecretValue, cfg.Database.Password)
	}
}

// TestLoadConfigMissingEnvironmentVariable tests handling of missing environment variables
func TestLoadConfigMissingEnvironmentVariable(t *testing.T) {
	// Ensure environment variable is not set
	os.Unsetenv(testMissingVar)

	cfg, err := Load(expansionConfigMissingPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	// os.ExpandEnv replaces unset variables with the empty string
	if cfg.Database.Password != "" {
		t.Logf("note: missing env var became: %q (expected empty)", cfg.Database.Password)
	}
}

// TestLoadWithDefaultsMissingFile tests that defaults populate when no config file exists
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected default environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}

	if cfg.Forecast.Window != 10 {
		t.Errorf("expected default forecast window 10, got %d", cfg.Forecast.Window)
	}

	if cfg.Forecast.Method != "SIMPLE" {
		t.Errorf("expected default forecast method SIMPLE, got '%s'", cfg.Forecast.Method)
	}

	if cfg.Trading.KellyFraction != 0.25 {
		t.Errorf("expected default kelly fraction 0.25, got %v", cfg.Trading.KellyFraction)
	}

	if cfg.Parlay.PayoutMultipliers[2] != 3 {
		t.Errorf("expected default 2-leg multiplier 3, got %v", cfg.Parlay.PayoutMultipliers[2])
	}

	if cfg.Parlay.PayoutMultipliers[5] != 20 {
		t.Errorf("expected default 5-leg multiplier 20, got %v", cfg.Parlay.PayoutMultipliers[5])
	}
}

// TestLoadWithDefaultsFileOverrides tests that file values win over defaults
func TestLoadWithDefaultsFileOverrides(t *testing.T) {
	cfg, err := LoadWithDefaults(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Forecast.Method != "WEIGHTED" {
		t.Errorf("expected file value WEIGHTED to override default method, got '%s'", cfg.Forecast.Method)
	}

	if cfg.Parlay.PayoutMultipliers[3] != 5 {
		t.Errorf("expected 3-leg multiplier 5 from file, got %v", cfg.Parlay.PayoutMultipliers[3])
	}
}

// TestReloadFromEnv tests wholesale reload from PROP_EDGE_CONFIG_PATH
func TestReloadFromEnv(t *testing.T) {
	os.Setenv("PROP_EDGE_CONFIG_PATH", validConfigPath)
	defer os.Unsetenv("PROP_EDGE_CONFIG_PATH")

	cfg := &Config{}
	if err := ReloadFromEnv(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != propEdgeName {
		t.Errorf("expected app name '%s' after reload, got '%s'", propEdgeName, cfg.App.Name)
	}
}

// Helper function
func containsSubstring(str, substr string) bool {
	for i := 0; i <= len(str)-len(substr); i++ {
		if str[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
