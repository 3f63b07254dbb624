package strategy

import (
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
)

// Strategy turns a projection into an actionable bet decision.
// A nil decision with a nil error means pass: the projection carries no
// playable edge under this strategy's rules.
type Strategy interface {
	Name() string
	EvaluateBet(proj *service.Projection) (*BetDecision, error)
}

// BetDecision is a strategy's verdict on one projection. The suggested stake
// fraction is advisory; the risk manager applies its own caps before sizing.
type BetDecision struct {
	Side                   models.BetSide `json:"side"`
	EV                     float64        `json:"ev"`
	Probability            float64        `json:"probability"`
	Confidence             float64        `json:"confidence"`
	SuggestedStakeFraction float64        `json:"suggested_stake_fraction"`
}
