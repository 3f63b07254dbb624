// Package main provides the entry point for the paper trading daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/health"
	applogger "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/scheduler"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/strategy"
	"github.com/yourusername/prop-edge/internal/trader"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile  string
	accountName string

	cfg    *config.Config
	logger *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&accountName, "account", "a", "paper-trader", "Paper trading account name (created if missing)")
}

var rootCmd = &cobra.Command{
	Use:   "paper-trader",
	Short: "Live paper trading daemon",
	Long: `Watches the streaming lines feed, projects every line move, runs the
strategies over each projection and places paper bets on the configured
account. Pending wagers are swept against ingested box scores.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func main() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !cfg.Features.PaperTradingEnabled {
		return fmt.Errorf("paper trading is disabled in the configuration")
	}
	if !cfg.Features.LinesStreamEnabled || cfg.LinesFeed.StreamURL == "" {
		return fmt.Errorf("the paper trader needs the lines stream: enable it and set lines_feed.stream_url")
	}

	logger = applogger.NewLoggerForEnv(cfg.App.LogLevel, cfg.App.Environment)
	return nil
}

func runDaemon() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"account":     accountName,
	}).Info("Paper trader starting")

	metrics.InitRegistry()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	trading := service.NewPaperTradingService(repos.Account, repos.PaperBet, repos.Parlay, repos.Snapshot, logger)

	account, err := ensureAccount(ctx, trading, repos.Account)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"balance":    account.CurrentBalance,
	}).Info("Trading account ready")

	statTypes, err := parseStatTypes(cfg.Forecast.StatTypes)
	if err != nil {
		return err
	}

	projections := service.NewProjectionService(
		repos.Player,
		repos.GameStat,
		repos.PropLine,
		cfg.Forecast,
		cfg.Trading.DefaultAmericanOdds,
		logger,
	)
	cache := service.NewProjectionCache(
		projections,
		time.Duration(cfg.Forecast.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.Forecast.CacheCleanupSeconds)*time.Second,
	)

	resolver := service.NewResolutionService(repos.PaperBet, repos.Parlay, repos.GameStat, trading, logger)

	stream := datasource.NewLinesStreamClient(cfg.LinesFeed.StreamURL, statTypes, logger)
	stream.SetReconnectConfig(reconnectConfig(cfg.LinesFeed))
	watcher := service.NewLineWatcher(stream, repos.Player, repos.PropLine, logger)

	orch, err := trader.NewOrchestrator(cfg, account.ID, trader.Deps{
		Trading:    trading,
		Resolver:   resolver,
		Projector:  cache,
		Feed:       watcher,
		Bets:       repos.PaperBet,
		Accounts:   repos.Account,
		Strategies: []strategy.Strategy{strategy.NewMinEdgeStrategy(cfg.Trading)},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	sched := scheduler.New(nil, resolver, trading, logger)
	if err := sched.ScheduleDailySnapshot(cfg.Collection.Schedule.SnapshotSync); err != nil {
		return fmt.Errorf("failed to schedule bankroll snapshot: %w", err)
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: "paper-trader",
		Version:     Version,
		Commit:      GitCommit,
		Logger:      logger,
		DB:          db,
	})
	healthServer.RegisterCheck("lines_stream", streamCheck(stream, cfg.LinesFeed))
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	metricsServer := startMetricsServer(cfg, logger)

	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.WithError(err).Error("Lines stream watcher stopped")
		}
	}()

	healthServer.SetReady(true)

	status := orch.GetStatus()
	logger.WithFields(logrus.Fields{
		"strategies":      status.Strategies,
		"circuit_breaker": status.CircuitBreakerState,
		"stream_url":      cfg.LinesFeed.StreamURL,
	}).Info("Paper trader running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()
	if err := orch.Stop(); err != nil {
		logger.WithError(err).Error("Error stopping orchestrator")
	}
	if err := sched.Stop(); err != nil {
		logger.WithError(err).Error("Error stopping scheduler")
	}
	if err := stream.Close(); err != nil {
		logger.WithError(err).Debug("Stream already closed")
	}
	shutdownMetricsServer(metricsServer, logger)

	logger.Info("Paper trader shut down")
	return nil
}

// ensureAccount loads the configured account, opening it with the configured
// starting bankroll on first run.
func ensureAccount(ctx context.Context, trading *service.PaperTradingService, accounts repository.AccountRepository) (*models.Account, error) {
	account, err := accounts.GetByName(ctx, accountName)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account %q: %w", accountName, err)
	}

	logger.WithFields(logrus.Fields{
		"account":  accountName,
		"bankroll": cfg.Trading.StartingBankroll,
	}).Info("Opening paper trading account")

	account, err = trading.OpenAccount(ctx, accountName, decimal.NewFromFloat(cfg.Trading.StartingBankroll))
	if err != nil {
		return nil, fmt.Errorf("failed to open account %q: %w", accountName, err)
	}
	return account, nil
}

func parseStatTypes(raw []string) ([]models.StatType, error) {
	statTypes := make([]models.StatType, 0, len(raw))
	for _, s := range raw {
		st, err := models.ParseStatType(s)
		if err != nil {
			return nil, fmt.Errorf("invalid stat type: %w", err)
		}
		statTypes = append(statTypes, st)
	}
	return statTypes, nil
}

func reconnectConfig(feed config.LinesFeedConfig) datasource.ReconnectConfig {
	reconnect := datasource.DefaultReconnectConfig()
	if feed.MaxReconnectAttempts > 0 {
		reconnect.MaxRetries = feed.MaxReconnectAttempts
	}
	if feed.ReconnectDelaySeconds > 0 {
		reconnect.InitialBackoff = time.Duration(feed.ReconnectDelaySeconds) * time.Second
	}
	return reconnect
}

// streamCheck reports the lines feed unhealthy when the socket is down or no
// message has arrived inside the staleness window.
func streamCheck(stream *datasource.LinesStreamClient, feed config.LinesFeedConfig) health.CheckFunc {
	staleAfter := 120 * time.Second
	if feed.StaleAfterSeconds > 0 {
		staleAfter = time.Duration(feed.StaleAfterSeconds) * time.Second
	}

	return func(ctx context.Context) error {
		if !stream.IsConnected() {
			return fmt.Errorf("stream disconnected")
		}
		if stream.IsStale(staleAfter) {
			return fmt.Errorf("no stream message in %s", staleAfter)
		}
		return nil
	}
}

// startMetricsServer exposes the Prometheus registry on its own port. A nil
// return means metrics are disabled.
func startMetricsServer(cfg *config.Config, logger *logrus.Logger) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port": cfg.Metrics.Port,
			"path": cfg.Metrics.Path,
		}).Info("Metrics server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server error")
		}
	}()

	return server
}

func shutdownMetricsServer(server *http.Server, logger *logrus.Logger) {
	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error stopping metrics server")
	}
}
