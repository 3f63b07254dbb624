// Package main provides the one-shot projection CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/forecast"
	applogger "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
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
	playerName string
	statName   string
	lineValue  float64
	odds       int
	window     int
	methodName string
	decay      float64
	daysRest   int
	gameDate   string

	parlayPicks []string
	parlayStake float64

	cfg         *config.Config
	logger      *logrus.Logger
	db          *database.DB
	repos       *repository.Repositories
	projections *service.ProjectionService
	trading     *service.PaperTradingService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.Flags().StringVarP(&playerName, "player", "p", "", "Player name (required)")
	rootCmd.Flags().StringVarP(&statName, "stat", "s", "points", "Stat type: points, rebounds, assists, threes")
	rootCmd.Flags().Float64VarP(&lineValue, "line", "l", 0, "Prop line to evaluate (0 uses the latest stored line)")
	rootCmd.Flags().IntVar(&odds, "odds", 0, "American odds (0 uses the stored line's quote, then the default)")
	rootCmd.Flags().IntVarP(&window, "window", "w", 0, "Games of history to use (0 uses the configured window)")
	rootCmd.Flags().StringVarP(&methodName, "method", "m", "", "Estimation method: simple or weighted (default from config)")
	rootCmd.Flags().Float64VarP(&decay, "decay", "d", 0, "Weighted-method decay factor (0 uses the configured decay)")
	rootCmd.Flags().IntVar(&daysRest, "days-rest", -1, "Days of rest before the game (-1 derives it from the schedule)")
	rootCmd.Flags().StringVar(&gameDate, "date", "", "Game date YYYY-MM-DD (defaults to today)")
	rootCmd.MarkFlagRequired("player")

	parlayCmd.Flags().StringArrayVar(&parlayPicks, "pick", nil, `Parlay leg as "player:stat:line:side" (repeatable)`)
	parlayCmd.Flags().Float64Var(&parlayStake, "stake", 10, "Ticket stake to price the parlay at")
}

var rootCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project a player prop and price the posted line",
	Long: `Loads the player's recent game history, runs the estimator and evaluates
the posted line: win probabilities for both sides, expected values and a
betting recommendation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return setupDependencies(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProjection(cmd)
	},
}

var parlayCmd = &cobra.Command{
	Use:   "parlay",
	Short: "Price a multi-leg parlay ticket",
	Long: `Projects every leg through the same estimator pipeline, multiplies the leg
probabilities and prices the ticket against the payout multiplier for its
leg count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParlay(cmd.Context())
	},
}

func main() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
	rootCmd.AddCommand(parlayCmd)

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

func setupDependencies(ctx context.Context) error {
	// A one-shot tool should not drown its own output
	logger = applogger.NewLoggerForEnv("warn", cfg.App.Environment)

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	projections = service.NewProjectionService(
		repos.Player,
		repos.GameStat,
		repos.PropLine,
		cfg.Forecast,
		cfg.Trading.DefaultAmericanOdds,
		logger,
	)
	trading = service.NewPaperTradingService(repos.Account, repos.PaperBet, repos.Parlay, repos.Snapshot, logger)

	return nil
}

func runProjection(cmd *cobra.Command) error {
	req, err := buildRequest(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	proj, err := projections.Project(ctx, req)
	if err != nil {
		return err
	}

	printProjection(proj)
	return nil
}

func buildRequest(cmd *cobra.Command) (service.ProjectionRequest, error) {
	statType, err := models.ParseStatType(strings.ToLower(statName))
	if err != nil {
		return service.ProjectionRequest{}, err
	}

	req := service.ProjectionRequest{
		PlayerName: playerName,
		StatType:   statType,
		Line:       lineValue,
		Window:     window,
		Decay:      decay,
		GameDate:   time.Now().UTC(),
	}

	if methodName != "" {
		method, err := forecast.ParseMethod(strings.ToUpper(methodName))
		if err != nil {
			return service.ProjectionRequest{}, err
		}
		req.Method = method
	}
	if gameDate != "" {
		parsed, err := time.Parse("2006-01-02", gameDate)
		if err != nil {
			return service.ProjectionRequest{}, fmt.Errorf("invalid game date: %w", err)
		}
		req.GameDate = parsed.UTC()
	}
	if daysRest >= 0 {
		rest := daysRest
		req.DaysRest = &rest
	}
	if odds != 0 {
		american := odds
		req.AmericanOdds = &american
	}

	return req, nil
}

func printProjection(proj *service.Projection) {
	title := fmt.Sprintf("Projection for %s (%s)", proj.Player.Name, proj.StatType)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))

	fmt.Printf("Game date:       %s\n", proj.GameDate.Format("2006-01-02"))
	fmt.Printf("Line:            %.1f\n", proj.Line)
	fmt.Printf("Odds profit:     %.3f per unit (implied %.1f%%)\n",
		proj.Odds.ProfitPerUnit, proj.Odds.ImpliedProbability()*100)
	fmt.Printf("Predicted:       %.2f (dispersion %.2f, sample %d)\n",
		proj.Prediction.Value, proj.Prediction.Dispersion, proj.Prediction.SampleSize)
	if proj.DaysRest != nil {
		fmt.Printf("Days rest:       %d\n", *proj.DaysRest)
	}
	fmt.Printf("P(over):         %.1f%%\n", proj.EV.ProbOver*100)
	fmt.Printf("P(under):        %.1f%%\n", proj.EV.ProbUnder*100)
	fmt.Printf("EV over:         %+.3f per unit staked\n", proj.EV.EVOver)
	fmt.Printf("EV under:        %+.3f per unit staked\n", proj.EV.EVUnder)
	fmt.Printf("Confidence:      %.2f\n", proj.Confidence)
	fmt.Printf("Recommendation:  %s\n", proj.EV.Recommendation)
}

func runParlay(ctx context.Context) error {
	if len(parlayPicks) < 2 {
		return fmt.Errorf("a parlay needs at least 2 --pick flags")
	}

	picks := make([]service.ParlayPick, 0, len(parlayPicks))
	for _, raw := range parlayPicks {
		pick, err := parsePick(raw)
		if err != nil {
			return err
		}
		picks = append(picks, pick)
	}

	parlays := service.NewParlayService(projections, trading, cfg.Parlay, logger)

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	analysis, err := parlays.Analyze(runCtx, picks, decimal.NewFromFloat(parlayStake))
	if err != nil {
		return err
	}

	printParlay(analysis, parlayStake)
	return nil
}

// parsePick splits a "player:stat:line:side" flag value into a parlay leg
func parsePick(raw string) (service.ParlayPick, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 {
		return service.ParlayPick{}, fmt.Errorf(`invalid pick %q: expected "player:stat:line:side"`, raw)
	}

	statType, err := models.ParseStatType(strings.ToLower(strings.TrimSpace(parts[1])))
	if err != nil {
		return service.ParlayPick{}, fmt.Errorf("invalid pick %q: %w", raw, err)
	}

	line, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return service.ParlayPick{}, fmt.Errorf("invalid pick %q: bad line: %w", raw, err)
	}

	var side models.BetSide
	switch strings.ToUpper(strings.TrimSpace(parts[3])) {
	case string(models.BetSideOver):
		side = models.BetSideOver
	case string(models.BetSideUnder):
		side = models.BetSideUnder
	default:
		return service.ParlayPick{}, fmt.Errorf("invalid pick %q: side must be over or under", raw)
	}

	return service.ParlayPick{
		PlayerName: strings.TrimSpace(parts[0]),
		StatType:   statType,
		Line:       line,
		Side:       side,
		GameDate:   time.Now().UTC(),
	}, nil
}

func printParlay(analysis *service.ParlayAnalysis, stake float64) {
	title := fmt.Sprintf("Parlay Analysis (%d legs at %.2f stake)", len(analysis.Legs), stake)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LEG\tPLAYER\tSTAT\tLINE\tSIDE\tP(HIT)")
	for i, leg := range analysis.Legs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%s\t%.1f%%\n",
			i+1,
			leg.Projection.Player.Name,
			leg.Pick.StatType,
			leg.Pick.Line,
			leg.Pick.Side,
			leg.Probability*100,
		)
	}
	w.Flush()

	fmt.Printf("\nCombined probability:  %.1f%%\n", analysis.CombinedProbability*100)
	fmt.Printf("Payout multiplier:     %.1fx\n", analysis.PayoutMultiplier)
	fmt.Printf("Expected value:        %+.2f\n", analysis.ExpectedValue)
	fmt.Printf("Kelly fraction:        %.3f\n", analysis.KellyFraction)
	if analysis.Reason != "" {
		fmt.Printf("Recommendation:        %s (%s)\n", analysis.Recommendation, analysis.Reason)
	} else {
		fmt.Printf("Recommendation:        %s\n", analysis.Recommendation)
	}
}
