package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/models"
)

// Config carries everything a replay needs. FromConfig assembles it from the
// application config; tests construct it directly.
type Config struct {
	StartDate       time.Time
	EndDate         time.Time
	InitialBankroll float64

	// Estimator defaults. The parameter sweep overrides them per candidate.
	Window         int
	Method         forecast.Method
	Decay          float64
	MinSampleSize  int
	StatTypes      []models.StatType
	RestAdjustment bool

	// Stake caps applied after the strategy's suggested fraction.
	MinStake       float64
	MaxStakePerBet float64

	MonteCarloIterations int
	WindowSweep          []int
	DecaySweep           []float64
	RiskFreeRate         float64
	OutputPath           string
}

// FromConfig pulls the replay settings out of the application sections: date
// range and sweep grids from backtest, estimator defaults from forecast,
// stake caps from trading.
func FromConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("config is required")
	}

	start, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		return Config{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		return Config{}, fmt.Errorf("invalid end date: %w", err)
	}
	method, err := forecast.ParseMethod(cfg.Forecast.Method)
	if err != nil {
		return Config{}, fmt.Errorf("invalid method: %w", err)
	}

	statTypes := make([]models.StatType, 0, len(cfg.Forecast.StatTypes))
	for _, raw := range cfg.Forecast.StatTypes {
		st, err := models.ParseStatType(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid stat type: %w", err)
		}
		statTypes = append(statTypes, st)
	}

	bt := Config{
		StartDate:            start.UTC(),
		EndDate:              end.UTC(),
		InitialBankroll:      cfg.Backtest.InitialBankroll,
		Window:               cfg.Forecast.Window,
		Method:               method,
		Decay:                cfg.Forecast.Decay,
		MinSampleSize:        cfg.Forecast.MinSampleSize,
		StatTypes:            statTypes,
		RestAdjustment:       cfg.Forecast.RestAdjustment,
		MinStake:             cfg.Trading.MinStake,
		MaxStakePerBet:       cfg.Trading.MaxStakePerBet,
		MonteCarloIterations: cfg.Backtest.MonteCarloIterations,
		WindowSweep:          cfg.Backtest.WindowSweep,
		DecaySweep:           cfg.Backtest.DecaySweep,
		RiskFreeRate:         cfg.Backtest.RiskFreeRate,
		OutputPath:           cfg.Backtest.OutputPath,
	}

	return bt, bt.Validate()
}

// Validate rejects parameter combinations the replay cannot run with
func (c Config) Validate() error {
	if !c.StartDate.Before(c.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if c.InitialBankroll <= 0 {
		return fmt.Errorf("initial bankroll must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if !c.Method.Valid() {
		return fmt.Errorf("unknown method %q", c.Method)
	}
	if c.Method == forecast.MethodWeighted && (c.Decay <= 0 || c.Decay >= 1) {
		return fmt.Errorf("decay must sit inside (0, 1)")
	}
	if c.MinSampleSize <= 0 {
		return fmt.Errorf("min sample size must be positive")
	}
	if len(c.StatTypes) == 0 {
		return fmt.Errorf("at least one stat type is required")
	}
	if c.MinStake < 0 {
		return fmt.Errorf("min stake cannot be negative")
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate > 1 {
		return fmt.Errorf("risk free rate must sit inside [0, 1]")
	}
	return nil
}
