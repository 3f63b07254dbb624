// Package backtest replays stored game history against stored prop lines to
// measure how the estimator and a betting strategy would have performed.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/strategy"
)

// Engine orchestrates replay runs
type Engine struct {
	cfg     Config
	players repository.PlayerRepository
	stats   repository.GameStatRepository
	lines   repository.PropLineRepository
	strat   strategy.Strategy
	logger  *logrus.Logger
}

// Result bundles everything a finished replay produced
type Result struct {
	State       *State
	Metrics     Metrics
	Predictions []PredictionRecord
}

// MAE returns the mean absolute error of the replay's predictions
func (r *Result) MAE() float64 {
	return MeanAbsoluteError(r.Predictions)
}

// ReplayParams carries the estimator settings for one replay. The parameter
// sweep drives Replay with grid values; Run uses the configured defaults.
type ReplayParams struct {
	Start  time.Time
	End    time.Time
	Window int
	Method forecast.Method
	Decay  float64
}

func (p ReplayParams) validate() error {
	if !p.Start.Before(p.End) {
		return fmt.Errorf("replay start must be before end")
	}
	if p.Window <= 0 {
		return fmt.Errorf("replay window must be positive")
	}
	if !p.Method.Valid() {
		return fmt.Errorf("unknown replay method %q", p.Method)
	}
	if p.Method == forecast.MethodWeighted && (p.Decay <= 0 || p.Decay >= 1) {
		return fmt.Errorf("replay decay must sit inside (0, 1)")
	}
	return nil
}

// NewEngine creates a replay engine over the stored game and line history
func NewEngine(cfg Config, repos *repository.Repositories, strat strategy.Strategy, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if strat == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Engine{
		cfg:     cfg,
		players: repos.Player,
		stats:   repos.GameStat,
		lines:   repos.PropLine,
		strat:   strat,
		logger:  logger,
	}, nil
}

// Config returns the replay configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Run replays the configured date range with the configured estimator
// parameters and records run metrics
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	result, err := e.Replay(ctx, ReplayParams{
		Start:  e.cfg.StartDate,
		End:    e.cfg.EndDate,
		Window: e.cfg.Window,
		Method: e.cfg.Method,
		Decay:  e.cfg.Decay,
	})
	metrics.RecordBacktestDuration(time.Since(started).Seconds())
	if err != nil {
		metrics.RecordBacktestRun("historical_replay", "failure")
		return nil, err
	}
	metrics.RecordBacktestRun("historical_replay", "success")
	metrics.RecordBacktestROI("historical_replay", result.Metrics.TotalReturn*100)
	return result, nil
}

// Replay walks every stored game in [Start, End] in chronological order. At
// each game it estimates from the games before it, looks up the stored prop
// line for that date (no line, no bet), asks the strategy for a decision,
// sizes the stake and settles against the value the player actually posted.
func (e *Engine) Replay(ctx context.Context, params ReplayParams) (*Result, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"start":  params.Start.Format("2006-01-02"),
		"end":    params.End.Format("2006-01-02"),
		"window": params.Window,
		"method": params.Method,
	}).Info("Starting backtest replay")

	events, err := e.loadEvents(ctx, params.Start, params.End)
	if err != nil {
		return nil, err
	}

	state := NewState(e.cfg.InitialBankroll, params.Start)
	predictions := make([]PredictionRecord, 0, len(events))

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, statType := range e.cfg.StatTypes {
			record, bet, err := e.replayGame(ctx, ev, statType, params, state.CurrentBankroll)
			if err != nil {
				return nil, err
			}
			if record != nil {
				predictions = append(predictions, *record)
			}
			if bet != nil {
				state.Settle(bet)
				state.RecordEquityPoint(bet.GameDate, state.CurrentBankroll)
			}
		}
	}

	m := CalculateMetrics(state, params.Start, params.End, e.cfg.RiskFreeRate)

	e.logger.WithFields(logrus.Fields{
		"games":        len(events),
		"bets":         m.TotalBets,
		"total_return": m.TotalReturn,
		"max_drawdown": m.MaxDrawdown,
	}).Info("Backtest replay completed")

	return &Result{State: state, Metrics: m, Predictions: predictions}, nil
}

// replayEvent is one player-game occurrence in the replay schedule. games
// holds the player's full chronological timeline so games[:idx] is exactly
// the history available before tip-off.
type replayEvent struct {
	player *models.Player
	games  []*models.GameStat
	idx    int
}

// loadEvents builds the chronological replay schedule across every player
func (e *Engine) loadEvents(ctx context.Context, start, end time.Time) ([]replayEvent, error) {
	players, err := e.players.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	var events []replayEvent
	for _, player := range players {
		// The zero lower bound reaches back to the player's first recorded
		// game so replay dates near the range start still have a window.
		games, err := e.stats.GetByPlayerRange(ctx, player.ID, time.Time{}, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load games for %s: %w", player.Name, err)
		}
		for idx, game := range games {
			if game.GameDate.Before(start) {
				continue
			}
			events = append(events, replayEvent{player: player, games: games, idx: idx})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		gi := events[i].games[events[i].idx].GameDate
		gj := events[j].games[events[j].idx].GameDate
		if gi.Equal(gj) {
			return events[i].player.Name < events[j].player.Name
		}
		return gi.Before(gj)
	})

	return events, nil
}

// replayGame runs one player-game-stat through the estimator, the stored
// line and the strategy. The returned prediction record feeds calibration
// scoring; the settled bet is nil when nothing playable came out of the game.
func (e *Engine) replayGame(ctx context.Context, ev replayEvent, statType models.StatType, params ReplayParams, bankroll float64) (*PredictionRecord, *SettledBet, error) {
	game := ev.games[ev.idx]

	history := priorHistory(ev.games[:ev.idx], statType)
	samples := len(history)
	if samples > params.Window {
		samples = params.Window
	}
	if samples < e.cfg.MinSampleSize {
		return nil, nil, nil
	}

	pred, err := forecast.Estimate(history, params.Window, params.Method, params.Decay)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to estimate: %w", err)
	}
	if e.cfg.RestAdjustment && game.DaysRest != nil {
		pred = forecast.AdjustForRest(pred, *game.DaysRest)
	}

	actual, ok := game.Value(statType)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported stat type %q", statType)
	}

	// A game the player sat out says nothing about estimator calibration.
	var record *PredictionRecord
	if !game.DidNotPlay() {
		record = &PredictionRecord{Predicted: pred.Value, Actual: actual}
	}

	line, err := e.lines.Latest(ctx, ev.player.ID, statType, game.GameDate)
	if errors.Is(err, models.ErrNotFound) {
		return record, nil, nil
	}
	if err != nil {
		return record, nil, fmt.Errorf("failed to load line for %s %s: %w", ev.player.Name, statType, err)
	}

	odds, err := forecast.OddsFromAmerican(line.OddsFor(models.BetSideOver))
	if err != nil {
		return record, nil, fmt.Errorf("failed to parse odds: %w", err)
	}

	evResult, err := forecast.Evaluate(pred, line.Line, odds)
	if err != nil {
		return record, nil, fmt.Errorf("failed to evaluate line: %w", err)
	}

	confidence := 0.0
	if pred.Dispersion > 0 {
		confidence = math.Abs(pred.Value-line.Line) / pred.Dispersion
	}

	proj := &service.Projection{
		Player:     ev.player,
		StatType:   statType,
		Line:       line.Line,
		GameDate:   game.GameDate,
		Prediction: pred,
		EV:         evResult,
		Confidence: confidence,
		DaysRest:   game.DaysRest,
		Odds:       odds,
		ComputedAt: time.Now().UTC(),
	}

	decision, err := e.strat.EvaluateBet(proj)
	if err != nil {
		return record, nil, fmt.Errorf("strategy evaluation failed: %w", err)
	}
	if decision == nil {
		return record, nil, nil
	}

	stake := e.sizeStake(decision.SuggestedStakeFraction, bankroll)
	if stake <= 0 {
		return record, nil, nil
	}

	bet := settleBet(ev.player, game, statType, line.Line, decision, pred, odds, stake, actual)
	return record, bet, nil
}

// sizeStake converts the strategy's suggested fraction of bankroll into a
// stake under the configured caps. Returns 0 when the bet is not worth
// placing.
func (e *Engine) sizeStake(fraction, bankroll float64) float64 {
	if fraction <= 0 || bankroll <= 0 {
		return 0
	}
	stake := bankroll * fraction
	if e.cfg.MaxStakePerBet > 0 && stake > e.cfg.MaxStakePerBet {
		stake = e.cfg.MaxStakePerBet
	}
	if stake > bankroll {
		stake = bankroll
	}
	if stake < e.cfg.MinStake {
		return 0
	}
	return math.Round(stake*100) / 100
}

// settleBet grades a placed bet against the realized value. A push or a
// game the player sat out voids the bet and returns the stake.
func settleBet(player *models.Player, game *models.GameStat, statType models.StatType, line float64, decision *strategy.BetDecision, pred forecast.Prediction, odds forecast.OddsSpec, stake, actual float64) *SettledBet {
	bet := &SettledBet{
		PlayerID:      player.ID,
		PlayerName:    player.Name,
		StatType:      statType,
		GameDate:      game.GameDate,
		Side:          decision.Side,
		Line:          line,
		Predicted:     pred.Value,
		Probability:   decision.Probability,
		ExpectedValue: decision.EV,
		Stake:         stake,
		ProfitPerUnit: odds.ProfitPerUnit,
		Actual:        actual,
	}

	switch {
	case game.DidNotPlay(), actual == line:
		bet.Status = models.BetStatusVoid
		bet.ProfitLoss = 0
	case wonAgainst(decision.Side, line, actual):
		bet.Status = models.BetStatusWon
		bet.ProfitLoss = stake * odds.ProfitPerUnit
	default:
		bet.Status = models.BetStatusLost
		bet.ProfitLoss = -stake
	}

	return bet
}

func wonAgainst(side models.BetSide, line, actual float64) bool {
	if side == models.BetSideOver {
		return actual > line
	}
	return actual < line
}

// priorHistory projects a game slice onto one statistic, preserving the
// oldest-first ordering the estimator expects. Games the player sat out stay
// in, matching what the live projection pipeline sees.
func priorHistory(games []*models.GameStat, stat models.StatType) forecast.History {
	history := make(forecast.History, 0, len(games))
	for _, g := range games {
		if v, ok := g.Value(stat); ok {
			history = append(history, forecast.Observation{GameDate: g.GameDate, Value: v})
		}
	}
	return history
}
