// Package config provides configuration management for the Prop Edge application.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Forecast   ForecastConfig   `mapstructure:"forecast" validate:"required"`
	Collection CollectionConfig `mapstructure:"collection" validate:"required"`
	LinesFeed  LinesFeedConfig  `mapstructure:"lines_feed"`
	Trading    TradingConfig    `mapstructure:"trading" validate:"required"`
	Parlay     ParlayConfig     `mapstructure:"parlay" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Features   FeaturesConfig   `mapstructure:"features" validate:"required"`
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

// ForecastConfig represents the projection engine configuration
type ForecastConfig struct {
	Window              int      `mapstructure:"window" validate:"required,gt=0"`
	Method              string   `mapstructure:"method" validate:"required,forecast_method"`
	Decay               float64  `mapstructure:"decay" validate:"required,gt=0,lt=1"`
	MinSampleSize       int      `mapstructure:"min_sample_size" validate:"required,gt=0"`
	StatTypes           []string `mapstructure:"stat_types" validate:"required,min=1,stat_types"`
	RestAdjustment      bool     `mapstructure:"rest_adjustment"`
	CacheTTLSeconds     int      `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheCleanupSeconds int      `mapstructure:"cache_cleanup_seconds" validate:"required,gt=0"`
}

// CollectionConfig represents data collection configuration
type CollectionConfig struct {
	Sources      []DataSourceConfig `mapstructure:"sources" validate:"required,min=1,dive"`
	Schedule     ScheduleConfig     `mapstructure:"schedule" validate:"required"`
	Season       string             `mapstructure:"season" validate:"required"`
	LookbackDays int                `mapstructure:"lookback_days" validate:"required,gt=0"`
}

// DataSourceConfig represents a single data source configuration
type DataSourceConfig struct {
	Name               string  `mapstructure:"name" validate:"required"`
	Enabled            bool    `mapstructure:"enabled"`
	BaseURL            string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey             string  `mapstructure:"api_key"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	RetryAttempts      int     `mapstructure:"retry_attempts" validate:"omitempty,gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"omitempty,gt=0"`
}

// ScheduleConfig represents collection job scheduling
type ScheduleConfig struct {
	StatsSync    string `mapstructure:"stats_sync" validate:"required,cron"`
	LinesSync    string `mapstructure:"lines_sync" validate:"required,cron"`
	ResolveSync  string `mapstructure:"resolve_sync" validate:"required,cron"`
	SnapshotSync string `mapstructure:"snapshot_sync" validate:"required,cron"`
}

// LinesFeedConfig represents the streaming lines feed configuration
type LinesFeedConfig struct {
	StreamURL             string `mapstructure:"stream_url" validate:"omitempty,url"`
	ReconnectDelaySeconds int    `mapstructure:"reconnect_delay_seconds" validate:"omitempty,gt=0"`
	MaxReconnectAttempts  int    `mapstructure:"max_reconnect_attempts" validate:"omitempty,gt=0"`
	PingIntervalSeconds   int    `mapstructure:"ping_interval_seconds" validate:"omitempty,gt=0"`
	StaleAfterSeconds     int    `mapstructure:"stale_after_seconds" validate:"omitempty,gt=0"`
}

// TradingConfig represents paper trading and risk management configuration
type TradingConfig struct {
	StartingBankroll     float64 `mapstructure:"starting_bankroll" validate:"required,gt=0"`
	MinEdge              float64 `mapstructure:"min_edge" validate:"gte=0"`
	ProbabilityFloor     float64 `mapstructure:"probability_floor" validate:"gte=0,lte=1"`
	ProbabilityCeiling   float64 `mapstructure:"probability_ceiling" validate:"gte=0,lte=1"`
	ConfidenceFloor      float64 `mapstructure:"confidence_floor" validate:"gte=0"`
	KellyFraction        float64 `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	MinStake             float64 `mapstructure:"min_stake" validate:"required,gt=0"`
	MaxStakePerBet       float64 `mapstructure:"max_stake_per_bet" validate:"required,gt=0"`
	MaxDailyLoss         float64 `mapstructure:"max_daily_loss" validate:"required,gt=0"`
	MaxExposure          float64 `mapstructure:"max_exposure" validate:"required,gt=0"`
	MaxConcurrentBets    int     `mapstructure:"max_concurrent_bets" validate:"required,gt=0"`
	MaxConsecutiveLosses int     `mapstructure:"max_consecutive_losses" validate:"required,gt=0"`
	MaxDrawdownPercent   float64 `mapstructure:"max_drawdown_percent" validate:"required,gt=0,lt=1"`
	DefaultAmericanOdds  int     `mapstructure:"default_american_odds" validate:"required"`
}

// ParlayConfig represents parlay analysis configuration
type ParlayConfig struct {
	MaxLegs                int             `mapstructure:"max_legs" validate:"required,gte=2,lte=8"`
	MinCombinedProbability float64         `mapstructure:"min_combined_probability" validate:"gte=0,lte=1"`
	KellyFraction          float64         `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	PayoutMultipliers      map[int]float64 `mapstructure:"payout_multipliers" validate:"required,min=1"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	StartDate            string    `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate              string    `mapstructure:"end_date" validate:"required,datetime=2006-01-02"`
	InitialBankroll      float64   `mapstructure:"initial_bankroll" validate:"required,gt=0"`
	MonteCarloIterations int       `mapstructure:"monte_carlo_iterations" validate:"required,gt=0"`
	WindowSweep          []int     `mapstructure:"window_sweep" validate:"omitempty,dive,gt=0"`
	DecaySweep           []float64 `mapstructure:"decay_sweep" validate:"omitempty,dive,gt=0,lt=1"`
	OutputPath           string    `mapstructure:"output_path" validate:"required"`
	RiskFreeRate         float64   `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	PaperTradingEnabled   bool `mapstructure:"paper_trading_enabled"`
	ParlayAnalysisEnabled bool `mapstructure:"parlay_analysis_enabled"`
	LinesStreamEnabled    bool `mapstructure:"lines_stream_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
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

// EnabledSources returns the collection sources that are switched on
func (c *Config) EnabledSources() []DataSourceConfig {
	var enabled []DataSourceConfig
	for _, source := range c.Collection.Sources {
		if source.Enabled {
			enabled = append(enabled, source)
		}
	}
	return enabled
}

// SourceByName looks up a collection source by its configured name
func (c *Config) SourceByName(name string) (DataSourceConfig, bool) {
	for _, source := range c.Collection.Sources {
		if source.Name == name {
			return source, true
		}
	}
	return DataSourceConfig{}, false
}
