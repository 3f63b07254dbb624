// Package main provides the historical replay CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/backtest"
	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/database"
	applogger "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/strategy"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	startDate  string
	endDate    string
	statsCSV   string
	runMC      bool
	runSweep   bool
	iterations int
	outputPath string

	cfg    *config.Config
	logger *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.Flags().StringVar(&startDate, "start-date", "", "Override replay start date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&endDate, "end-date", "", "Override replay end date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&statsCSV, "stats", "", "Comma-separated stat types to replay (default from config)")
	rootCmd.Flags().BoolVar(&runMC, "monte-carlo", false, "Bootstrap the replayed bets into simulated bankroll paths")
	rootCmd.Flags().IntVar(&iterations, "iterations", 0, "Monte Carlo iterations (0 uses the configured count)")
	rootCmd.Flags().BoolVar(&runSweep, "sweep", false, "Sweep the window/decay grid and rank the candidates")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Equity curve CSV path (default from config, empty disables)")
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay stored history against stored lines",
	Long: `Replays the configured date range day by day: projects each stored prop
line from the history available before that day, lets the strategy bet on
it and settles against the actual stat. Prints the performance report to
stdout; optional Monte Carlo resampling and parameter sweeps follow it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger = applogger.NewLoggerForEnv(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBacktest(cmd.Context())
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
		return err
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

	return config.Validate(cfg)
}

func runBacktest(ctx context.Context) error {
	btCfg, err := buildReplayConfig()
	if err != nil {
		return err
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	engine, err := backtest.NewEngine(btCfg, repos, strategy.NewMinEdgeStrategy(cfg.Trading), logger)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"start":      btCfg.StartDate.Format("2006-01-02"),
		"end":        btCfg.EndDate.Format("2006-01-02"),
		"stat_types": len(btCfg.StatTypes),
	}).Info("Starting replay")

	result, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	fmt.Print(backtest.FormatResult(result))

	if btCfg.OutputPath != "" {
		if err := backtest.WriteEquityCurve(btCfg.OutputPath, result.State.EquityCurve); err != nil {
			return fmt.Errorf("failed to write equity curve: %w", err)
		}
		logger.WithField("path", btCfg.OutputPath).Info("Equity curve written")
	}

	if runMC {
		if err := runMonteCarlo(btCfg, result); err != nil {
			return err
		}
	}

	if runSweep {
		if err := runParamSweep(ctx, engine); err != nil {
			return err
		}
	}

	return nil
}

// buildReplayConfig folds the CLI overrides into the configured replay settings
func buildReplayConfig() (backtest.Config, error) {
	btCfg, err := backtest.FromConfig(cfg)
	if err != nil {
		return backtest.Config{}, err
	}

	if startDate != "" {
		parsed, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return backtest.Config{}, fmt.Errorf("invalid start date: %w", err)
		}
		btCfg.StartDate = parsed.UTC()
	}
	if endDate != "" {
		parsed, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return backtest.Config{}, fmt.Errorf("invalid end date: %w", err)
		}
		btCfg.EndDate = parsed.UTC()
	}
	if statsCSV != "" {
		statTypes, err := parseStatTypes(statsCSV)
		if err != nil {
			return backtest.Config{}, err
		}
		btCfg.StatTypes = statTypes
	}
	if iterations > 0 {
		btCfg.MonteCarloIterations = iterations
	}
	if outputPath != "" {
		btCfg.OutputPath = outputPath
	}

	return btCfg, btCfg.Validate()
}

func parseStatTypes(csv string) ([]models.StatType, error) {
	parts := strings.Split(csv, ",")
	statTypes := make([]models.StatType, 0, len(parts))
	for _, raw := range parts {
		st, err := models.ParseStatType(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, err
		}
		statTypes = append(statTypes, st)
	}
	return statTypes, nil
}

func runMonteCarlo(btCfg backtest.Config, result *backtest.Result) error {
	pls := backtest.SettledPLs(result.State.Bets)
	if len(pls) == 0 {
		logger.Warn("No settled bets to resample, skipping Monte Carlo")
		return nil
	}

	mc, err := backtest.RunMonteCarlo(pls, backtest.MonteCarloConfig{
		Iterations:      btCfg.MonteCarloIterations,
		InitialBankroll: btCfg.InitialBankroll,
	})
	if err != nil {
		return fmt.Errorf("monte carlo failed: %w", err)
	}

	fmt.Print(backtest.FormatMonteCarlo(mc))
	return nil
}

func runParamSweep(ctx context.Context, engine *backtest.Engine) error {
	sweepCfg := backtest.DefaultSweepConfig(engine.Config())
	report, err := backtest.RunParamSweep(ctx, engine, sweepCfg)
	if err != nil {
		return fmt.Errorf("parameter sweep failed: %w", err)
	}

	fmt.Print(backtest.FormatSweep(report))
	return nil
}
