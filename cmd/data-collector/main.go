// Package main provides the entry point for the data collection daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/health"
	applogger "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/scheduler"
	"github.com/yourusername/prop-edge/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	syncNow    bool

	cfg    *config.Config
	logger *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&syncNow, "sync-now", false, "Run a full collection immediately on startup")
}

var rootCmd = &cobra.Command{
	Use:   "data-collector",
	Short: "NBA stats and prop lines collection daemon",
	Long: `Runs the recurring collection jobs on their configured schedules: daily box
score sync, prop line refresh, bet resolution sweeps and bankroll snapshots.`,
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

	logger = applogger.NewLoggerForEnv(cfg.App.LogLevel, cfg.App.Environment)
	return nil
}

func runDaemon() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"season":      cfg.Collection.Season,
	}).Info("Data collector starting")

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

	statsProviders, linesProviders, err := datasource.NewFactory(logger).NewProviders(cfg)
	if err != nil {
		return fmt.Errorf("failed to build providers: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"stats_providers": len(statsProviders),
		"lines_providers": len(linesProviders),
	}).Info("Data source providers initialized")

	collector := service.NewCollectorService(
		statsProviders,
		linesProviders,
		repos.Player,
		repos.GameStat,
		repos.PropLine,
		service.NewNormalizer(logger),
		service.NewValidator(logger),
		cfg.Collection.Season,
		logger,
	)
	trading := service.NewPaperTradingService(repos.Account, repos.PaperBet, repos.Parlay, repos.Snapshot, logger)
	resolver := service.NewResolutionService(repos.PaperBet, repos.Parlay, repos.GameStat, trading, logger)

	sched := scheduler.New(collector, resolver, trading, logger)
	if err := sched.Schedule(cfg.Collection.Schedule); err != nil {
		return fmt.Errorf("failed to schedule collection jobs: %w", err)
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: "data-collector",
		Version:     Version,
		Commit:      GitCommit,
		Logger:      logger,
		DB:          db,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	metricsServer := startMetricsServer(cfg, logger)

	if syncNow {
		logger.Info("Running initial collection")
		if err := collector.CollectAll(ctx); err != nil {
			logger.WithError(err).Error("Initial collection failed")
		}
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	healthServer.SetReady(true)

	logger.WithFields(logrus.Fields{
		"jobs":     len(sched.Entries()),
		"next_run": sched.NextRun().UTC().Format(time.RFC3339),
	}).Info("Data collector running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	healthServer.SetReady(false)
	if err := sched.Stop(); err != nil {
		logger.WithError(err).Error("Error stopping scheduler")
	}
	cancel()
	shutdownMetricsServer(metricsServer, logger)

	logger.Info("Data collector shut down")
	return nil
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
