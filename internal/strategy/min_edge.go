package strategy

import (
	"fmt"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
)

const passDecision = "PASS"

// MinEdgeStrategy bets the engine's recommended side when its expected value
// clears a configured minimum edge and the probability and confidence gates
// pass. With a zero minimum edge it reduces to the engine's raw sign-based
// recommendation.
type MinEdgeStrategy struct {
	BaseStrategy
}

// NewMinEdgeStrategy creates a minimum-edge strategy from trading config.
// A zero probability ceiling means no ceiling.
func NewMinEdgeStrategy(cfg config.TradingConfig) *MinEdgeStrategy {
	kelly := cfg.KellyFraction
	if kelly <= 0 {
		kelly = 0.25
	}
	return &MinEdgeStrategy{
		BaseStrategy: BaseStrategy{
			MinEdge:            cfg.MinEdge,
			ProbabilityFloor:   cfg.ProbabilityFloor,
			ProbabilityCeiling: cfg.ProbabilityCeiling,
			ConfidenceFloor:    cfg.ConfidenceFloor,
			KellyFraction:      kelly,
		},
	}
}

// Name returns the strategy name
func (s *MinEdgeStrategy) Name() string {
	return "min_edge"
}

// EvaluateBet judges one projection against the strategy's gates
func (s *MinEdgeStrategy) EvaluateBet(proj *service.Projection) (*BetDecision, error) {
	if proj == nil {
		return nil, fmt.Errorf("projection is required")
	}

	side, ok := recommendedSide(proj.EV.Recommendation)
	if !ok {
		s.recordPass(proj)
		return nil, nil
	}

	ev := proj.ExpectedValueFor(side)
	prob := s.NormalizeProbability(proj.ProbabilityFor(side))

	if !s.ClearsEdge(ev) || !s.WithinProbabilityBounds(prob) || !s.ClearsConfidence(proj.Confidence) {
		s.recordPass(proj)
		return nil, nil
	}

	metrics.RecordStrategyDecision(s.Name(), string(proj.StatType), string(side))
	metrics.RecordStrategyEdge(s.Name(), ev)
	metrics.RecordEdgeRecommendation(string(side), ConfidenceBucket(proj.Confidence))

	return &BetDecision{
		Side:                   side,
		EV:                     ev,
		Probability:            prob,
		Confidence:             proj.Confidence,
		SuggestedStakeFraction: s.Kelly(prob, proj.Odds.ProfitPerUnit),
	}, nil
}

func (s *MinEdgeStrategy) recordPass(proj *service.Projection) {
	metrics.RecordStrategyDecision(s.Name(), string(proj.StatType), passDecision)
}

func recommendedSide(rec forecast.Recommendation) (models.BetSide, bool) {
	switch rec {
	case forecast.RecommendOver:
		return models.BetSideOver, true
	case forecast.RecommendUnder:
		return models.BetSideUnder, true
	default:
		return "", false
	}
}
