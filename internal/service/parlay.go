package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/models"
)

// Parlay recommendations
const (
	RecommendationBet  = "BET"
	RecommendationSkip = "SKIP"
)

// ErrUnsupportedLegCount is returned when no payout multiplier is configured
// for the requested number of legs
var ErrUnsupportedLegCount = errors.New("unsupported parlay leg count")

// ParlayPick names one leg of a proposed parlay
type ParlayPick struct {
	PlayerID   uuid.UUID       `json:"player_id,omitempty"`
	PlayerName string          `json:"player_name,omitempty"`
	StatType   models.StatType `json:"stat_type"`
	Line       float64         `json:"line"`
	Side       models.BetSide  `json:"side"`
	GameDate   time.Time       `json:"game_date,omitempty"`
}

// ParlayLegAnalysis carries the projection behind one leg
type ParlayLegAnalysis struct {
	Pick        ParlayPick  `json:"pick"`
	Projection  *Projection `json:"projection"`
	Probability float64     `json:"probability"`
}

// ParlayAnalysis is the verdict on a proposed parlay ticket
type ParlayAnalysis struct {
	Legs                []ParlayLegAnalysis `json:"legs"`
	CombinedProbability float64             `json:"combined_probability"`
	PayoutMultiplier    float64             `json:"payout_multiplier"`
	ExpectedValue       float64             `json:"expected_value"`
	KellyFraction       float64             `json:"kelly_fraction"`
	Recommendation      string              `json:"recommendation"`
	Reason              string              `json:"reason,omitempty"`
}

// ParlayService prices multi-leg tickets. Legs are treated as independent,
// so the combined probability is the plain product of the leg probabilities.
type ParlayService struct {
	projections Projector
	trading     *PaperTradingService
	cfg         config.ParlayConfig
	logger      *logrus.Logger
}

// NewParlayService creates a new parlay analysis service
func NewParlayService(projections Projector, trading *PaperTradingService, cfg config.ParlayConfig, logger *logrus.Logger) *ParlayService {
	return &ParlayService{
		projections: projections,
		trading:     trading,
		cfg:         cfg,
		logger:      logger,
	}
}

// Analyze projects every leg and prices the ticket at the given stake.
// A ticket is a BET only when its expected value is positive and the
// combined probability clears the configured floor.
func (s *ParlayService) Analyze(ctx context.Context, picks []ParlayPick, stake decimal.Decimal) (*ParlayAnalysis, error) {
	if len(picks) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 legs, got %d", ErrUnsupportedLegCount, len(picks))
	}
	if s.cfg.MaxLegs > 0 && len(picks) > s.cfg.MaxLegs {
		return nil, fmt.Errorf("%w: %d legs exceeds maximum of %d", ErrUnsupportedLegCount, len(picks), s.cfg.MaxLegs)
	}
	multiplier, ok := s.cfg.PayoutMultipliers[len(picks)]
	if !ok {
		return nil, fmt.Errorf("%w: no payout multiplier for %d legs", ErrUnsupportedLegCount, len(picks))
	}

	legs := make([]ParlayLegAnalysis, 0, len(picks))
	combined := 1.0
	for _, pick := range picks {
		proj, err := s.projections.Project(ctx, ProjectionRequest{
			PlayerID:   pick.PlayerID,
			PlayerName: pick.PlayerName,
			StatType:   pick.StatType,
			Line:       pick.Line,
			GameDate:   pick.GameDate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to project leg %s %s: %w", pick.PlayerName, pick.StatType, err)
		}

		prob := proj.ProbabilityFor(pick.Side)
		combined *= prob
		legs = append(legs, ParlayLegAnalysis{
			Pick:        pick,
			Projection:  proj,
			Probability: prob,
		})
	}

	stakeF, _ := stake.Float64()
	ev := combined*(stakeF*multiplier) - (1-combined)*stakeF

	kelly := 0.0
	if multiplier > 1 {
		kelly = s.cfg.KellyFraction * (combined*multiplier - 1) / (multiplier - 1)
		if kelly < 0 {
			kelly = 0
		}
	}

	analysis := &ParlayAnalysis{
		Legs:                legs,
		CombinedProbability: combined,
		PayoutMultiplier:    multiplier,
		ExpectedValue:       ev,
		KellyFraction:       kelly,
	}

	switch {
	case ev <= 0:
		analysis.Recommendation = RecommendationSkip
		analysis.Reason = fmt.Sprintf("negative expected value (%.2f at %.0fx)", ev, multiplier)
	case combined <= s.cfg.MinCombinedProbability:
		analysis.Recommendation = RecommendationSkip
		analysis.Reason = fmt.Sprintf("combined probability %.3f below floor %.3f", combined, s.cfg.MinCombinedProbability)
	default:
		analysis.Recommendation = RecommendationBet
	}

	s.logger.WithFields(logrus.Fields{
		"legs":           len(legs),
		"combined_prob":  combined,
		"multiplier":     multiplier,
		"expected_value": ev,
		"recommendation": analysis.Recommendation,
	}).Info("Analyzed parlay")

	return analysis, nil
}

// Place turns a BET analysis into a pending parlay on the account
func (s *ParlayService) Place(ctx context.Context, accountID uuid.UUID, analysis *ParlayAnalysis, stake decimal.Decimal) (*models.ParlayBet, error) {
	if analysis.Recommendation != RecommendationBet {
		return nil, fmt.Errorf("refusing to place a %s parlay: %s", analysis.Recommendation, analysis.Reason)
	}

	parlay := &models.ParlayBet{
		ID:                  uuid.New(),
		AccountID:           accountID,
		Stake:               stake,
		PayoutMultiplier:    analysis.PayoutMultiplier,
		CombinedProbability: analysis.CombinedProbability,
		ExpectedValue:       analysis.ExpectedValue,
		KellyFraction:       analysis.KellyFraction,
		Status:              models.BetStatusPending,
		ProfitLoss:          decimal.Zero,
		PlacedAt:            time.Now().UTC(),
	}

	for _, leg := range analysis.Legs {
		gameDate := leg.Pick.GameDate
		if gameDate.IsZero() {
			gameDate = leg.Projection.GameDate
		}
		parlay.Legs = append(parlay.Legs, &models.ParlayLeg{
			ID:          uuid.New(),
			ParlayID:    parlay.ID,
			PlayerID:    leg.Projection.Player.ID,
			PlayerName:  leg.Projection.Player.Name,
			StatType:    leg.Pick.StatType,
			Line:        leg.Projection.Line,
			Side:        leg.Pick.Side,
			Probability: leg.Probability,
			GameDate:    gameDate,
			Status:      models.BetStatusPending,
		})
	}

	if err := s.trading.PlaceParlay(ctx, parlay); err != nil {
		return nil, err
	}

	return parlay, nil
}
