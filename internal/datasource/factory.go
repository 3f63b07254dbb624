package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-edge/internal/config"
)

// Factory creates provider implementations from configuration
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new data source factory
func NewFactory(logger *logrus.Logger) *Factory {
	return &Factory{logger: logger}
}

// httpClientFor builds a rate-limited HTTP client tuned for one source
func (f *Factory) httpClientFor(cfg config.DataSourceConfig) *RateLimitedHTTPClient {
	clientCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		clientCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RetryAttempts > 0 {
		clientCfg.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RateLimitPerSecond > 0 {
		clientCfg.RateLimit = cfg.RateLimitPerSecond
	}
	return NewRateLimitedHTTPClient(clientCfg, f.logger)
}

// NewStatsProvider creates a stats provider from its source configuration
func (f *Factory) NewStatsProvider(cfg config.DataSourceConfig) (StatsProvider, error) {
	switch cfg.Name {
	case nbaStatsSourceName:
		return NewNBAStatsClient(f.httpClientFor(cfg), cfg.BaseURL, cfg.Enabled, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown stats source: %s", cfg.Name)
	}
}

// NewLinesProvider creates a lines provider from its source configuration
func (f *Factory) NewLinesProvider(cfg config.DataSourceConfig) (LinesProvider, error) {
	switch cfg.Name {
	case prizePicksSourceName:
		return NewPrizePicksClient(f.httpClientFor(cfg), cfg.BaseURL, cfg.Enabled, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown lines source: %s", cfg.Name)
	}
}

// NewProviders builds every enabled provider from the collection config.
// At least one enabled source of either kind is required.
func (f *Factory) NewProviders(cfg *config.Config) ([]StatsProvider, []LinesProvider, error) {
	var stats []StatsProvider
	var lines []LinesProvider

	for _, srcCfg := range cfg.Collection.Sources {
		if !srcCfg.Enabled {
			f.logger.WithField("source", srcCfg.Name).Info("Skipping disabled data source")
			continue
		}

		switch srcCfg.Name {
		case nbaStatsSourceName:
			provider, err := f.NewStatsProvider(srcCfg)
			if err != nil {
				return nil, nil, err
			}
			stats = append(stats, provider)
		case prizePicksSourceName:
			provider, err := f.NewLinesProvider(srcCfg)
			if err != nil {
				return nil, nil, err
			}
			lines = append(lines, provider)
		default:
			return nil, nil, fmt.Errorf("unknown data source: %s", srcCfg.Name)
		}

		f.logger.WithField("source", srcCfg.Name).Info("Created data source")
	}

	if len(stats) == 0 && len(lines) == 0 {
		return nil, nil, fmt.Errorf("no enabled data sources configured")
	}

	return stats, lines, nil
}
