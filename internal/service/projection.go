package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/forecast"
	applog "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
)

// Projection errors
var (
	ErrThinHistory = errors.New("insufficient history for projection")
	ErrNoLine      = errors.New("no line available")
)

// Projector produces projections for player-stat-line questions. Both the
// plain service and the cached wrapper satisfy it.
type Projector interface {
	Project(ctx context.Context, req ProjectionRequest) (*Projection, error)
}

// ProjectionRequest identifies one player-stat-line question. Zero-valued
// tuning fields fall back to the configured defaults; a zero Line is resolved
// from the most recently stored prop line for the game date.
type ProjectionRequest struct {
	PlayerID     uuid.UUID
	PlayerName   string // used to resolve the player when PlayerID is zero
	StatType     models.StatType
	Line         float64
	GameDate     time.Time
	Window       int
	Method       forecast.Method
	Decay        float64
	DaysRest     *int // nil derives rest from the stored schedule when enabled
	AmericanOdds *int // nil takes the stored line's odds, then the default
}

// Projection is the full answer: the estimator output, the EV assessment and
// a dispersion-scaled confidence in the edge.
type Projection struct {
	Player     *models.Player      `json:"player"`
	StatType   models.StatType     `json:"stat_type"`
	Line       float64             `json:"line"`
	GameDate   time.Time           `json:"game_date"`
	Prediction forecast.Prediction `json:"prediction"`
	EV         forecast.EVResult   `json:"ev"`
	Confidence float64             `json:"confidence"`
	DaysRest   *int                `json:"days_rest,omitempty"`
	Odds       forecast.OddsSpec   `json:"odds"`
	ComputedAt time.Time           `json:"computed_at"`
}

// ProbabilityFor returns the win probability of the given side
func (p *Projection) ProbabilityFor(side models.BetSide) float64 {
	if side == models.BetSideUnder {
		return p.EV.ProbUnder
	}
	return p.EV.ProbOver
}

// ExpectedValueFor returns the per-unit expected value of the given side
func (p *Projection) ExpectedValueFor(side models.BetSide) float64 {
	if side == models.BetSideUnder {
		return p.EV.EVUnder
	}
	return p.EV.EVOver
}

// ProjectionService resolves players, loads their recent history and runs the
// estimator and EV engine against a posted line
type ProjectionService struct {
	players     repository.PlayerRepository
	gameStats   repository.GameStatRepository
	propLines   repository.PropLineRepository
	cfg         config.ForecastConfig
	defaultOdds int
	logger      *logrus.Logger
	flog        *applog.ForecastLogger
}

// NewProjectionService creates a new projection service
func NewProjectionService(
	players repository.PlayerRepository,
	gameStats repository.GameStatRepository,
	propLines repository.PropLineRepository,
	cfg config.ForecastConfig,
	defaultOdds int,
	logger *logrus.Logger,
) *ProjectionService {
	if defaultOdds == 0 {
		defaultOdds = models.DefaultAmericanOdds
	}
	return &ProjectionService{
		players:     players,
		gameStats:   gameStats,
		propLines:   propLines,
		cfg:         cfg,
		defaultOdds: defaultOdds,
		logger:      logger,
		flog:        applog.NewForecastLogger(logger),
	}
}

// Project answers a projection request
func (s *ProjectionService) Project(ctx context.Context, req ProjectionRequest) (*Projection, error) {
	start := time.Now()

	player, err := s.resolvePlayer(ctx, req)
	if err != nil {
		return nil, err
	}

	window := req.Window
	if window <= 0 {
		window = s.cfg.Window
	}
	method := req.Method
	if method == "" {
		method, err = forecast.ParseMethod(s.cfg.Method)
		if err != nil {
			return nil, fmt.Errorf("invalid configured method: %w", err)
		}
	}
	decay := req.Decay
	if decay == 0 {
		decay = s.cfg.Decay
	}

	history, err := s.gameStats.RecentHistory(ctx, player.ID, req.StatType, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) < s.cfg.MinSampleSize {
		s.flog.LogProjectionSkipped(player.ID.String(), string(req.StatType), "thin_history", len(history))
		return nil, fmt.Errorf("%w: %d games, need %d", ErrThinHistory, len(history), s.cfg.MinSampleSize)
	}

	pred, err := forecast.Estimate(history, window, method, decay)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate: %w", err)
	}

	daysRest := s.resolveDaysRest(req, history)
	if daysRest != nil {
		pred = forecast.AdjustForRest(pred, *daysRest)
	}

	line, storedLine, err := s.resolveLine(ctx, player.ID, req)
	if err != nil {
		return nil, err
	}

	odds, err := s.resolveOdds(req, storedLine)
	if err != nil {
		return nil, err
	}

	ev, err := forecast.Evaluate(pred, line, odds)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate line: %w", err)
	}

	confidence := 0.0
	if pred.Dispersion > 0 {
		confidence = math.Abs(pred.Value-line) / pred.Dispersion
	}

	elapsed := time.Since(start)
	metrics.RecordProjection(string(method), string(req.StatType), elapsed.Seconds())
	s.flog.LogProjectionRequest(player.ID.String(), string(req.StatType), string(method), pred.SampleSize, false, float64(elapsed.Microseconds())/1000.0)

	return &Projection{
		Player:     player,
		StatType:   req.StatType,
		Line:       line,
		GameDate:   req.GameDate,
		Prediction: pred,
		EV:         ev,
		Confidence: confidence,
		DaysRest:   daysRest,
		Odds:       odds,
		ComputedAt: time.Now().UTC(),
	}, nil
}

// ProjectLine answers a projection for a stored prop line
func (s *ProjectionService) ProjectLine(ctx context.Context, line *models.PropLine) (*Projection, error) {
	odds := line.OddsFor(models.BetSideOver)
	return s.Project(ctx, ProjectionRequest{
		PlayerID:     line.PlayerID,
		StatType:     line.StatType,
		Line:         line.Line,
		GameDate:     line.GameDate,
		AmericanOdds: &odds,
	})
}

// resolvePlayer looks the player up by ID, falling back to an exact name match
func (s *ProjectionService) resolvePlayer(ctx context.Context, req ProjectionRequest) (*models.Player, error) {
	if req.PlayerID != uuid.Nil {
		player, err := s.players.GetByID(ctx, req.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve player: %w", err)
		}
		return player, nil
	}
	if req.PlayerName == "" {
		return nil, fmt.Errorf("failed to resolve player: %w", models.ErrNotFound)
	}
	player, err := s.players.GetByName(ctx, req.PlayerName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player %q: %w", req.PlayerName, err)
	}
	return player, nil
}

// resolveDaysRest prefers the explicit request value; otherwise, when rest
// adjustment is enabled and the upcoming game date is known, it derives rest
// from the gap since the most recent stored game.
func (s *ProjectionService) resolveDaysRest(req ProjectionRequest, history forecast.History) *int {
	if req.DaysRest != nil {
		return req.DaysRest
	}
	if !s.cfg.RestAdjustment || req.GameDate.IsZero() {
		return nil
	}
	latest, ok := history.Latest()
	if !ok || latest.GameDate.IsZero() {
		return nil
	}
	rest := calendarDaysBetween(toUTCDate(latest.GameDate), toUTCDate(req.GameDate)) - 1
	if rest < 0 {
		rest = 0
	}
	return &rest
}

// resolveLine returns the line to evaluate and the stored board line backing
// it when one exists. A zero request line requires a stored line.
func (s *ProjectionService) resolveLine(ctx context.Context, playerID uuid.UUID, req ProjectionRequest) (float64, *models.PropLine, error) {
	var stored *models.PropLine
	if !req.GameDate.IsZero() {
		line, err := s.propLines.Latest(ctx, playerID, req.StatType, toUTCDate(req.GameDate))
		switch {
		case err == nil:
			stored = line
		case errors.Is(err, models.ErrNotFound):
			// No board line for this game; the request line must carry it.
		default:
			return 0, nil, fmt.Errorf("failed to look up stored line: %w", err)
		}
	}

	if req.Line != 0 {
		return req.Line, stored, nil
	}
	if stored != nil {
		return stored.Line, stored, nil
	}
	return 0, nil, fmt.Errorf("%w for %s %s", ErrNoLine, playerID, req.StatType)
}

// resolveOdds prefers explicit request odds, then the stored line's quote,
// then the configured default
func (s *ProjectionService) resolveOdds(req ProjectionRequest, stored *models.PropLine) (forecast.OddsSpec, error) {
	american := s.defaultOdds
	if req.AmericanOdds != nil {
		american = *req.AmericanOdds
	} else if stored != nil {
		american = stored.OddsFor(models.BetSideOver)
	}

	odds, err := forecast.OddsFromAmerican(american)
	if err != nil {
		return forecast.OddsSpec{}, fmt.Errorf("failed to parse odds %d: %w", american, err)
	}
	return odds, nil
}
