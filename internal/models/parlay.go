package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParlayBet represents a simulated multi-pick wager. Every leg must win for
// the parlay to pay out; a single pushed or voided leg voids the whole ticket.
type ParlayBet struct {
	ID                  uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	AccountID           uuid.UUID       `db:"account_id" json:"account_id" validate:"required,uuid4"`
	Stake               decimal.Decimal `db:"stake" json:"stake"`
	PayoutMultiplier    float64         `db:"payout_multiplier" json:"payout_multiplier" validate:"gt=1"`
	CombinedProbability float64         `db:"combined_probability" json:"combined_probability" validate:"gte=0,lte=1"`
	ExpectedValue       float64         `db:"expected_value" json:"expected_value"`
	KellyFraction       float64         `db:"kelly_fraction" json:"kelly_fraction"`
	Status              BetStatus       `db:"status" json:"status" validate:"required"`
	ProfitLoss          decimal.Decimal `db:"profit_loss" json:"profit_loss"`
	PlacedAt            time.Time       `db:"placed_at" json:"placed_at"`
	ResolvedAt          *time.Time      `db:"resolved_at" json:"resolved_at"`
	Legs                []*ParlayLeg    `db:"-" json:"legs"`
}

// ParlayLeg represents a single pick inside a parlay
type ParlayLeg struct {
	ID           uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	ParlayID     uuid.UUID `db:"parlay_id" json:"parlay_id" validate:"required,uuid4"`
	PlayerID     uuid.UUID `db:"player_id" json:"player_id" validate:"required,uuid4"`
	PlayerName   string    `db:"player_name" json:"player_name" validate:"required"`
	StatType     StatType  `db:"stat_type" json:"stat_type" validate:"required,oneof=points rebounds assists threes"`
	Line         float64   `db:"line" json:"line" validate:"required"`
	Side         BetSide   `db:"side" json:"side" validate:"required,oneof=OVER UNDER"`
	Probability  float64   `db:"probability" json:"probability" validate:"gte=0,lte=1"`
	GameDate     time.Time `db:"game_date" json:"game_date"`
	Status       BetStatus `db:"status" json:"status" validate:"required"`
	ActualResult *float64  `db:"actual_result" json:"actual_result"`
}

// PotentialPayout returns the full credit returned when every leg wins
func (p *ParlayBet) PotentialPayout() decimal.Decimal {
	return p.Stake.Mul(decimal.NewFromFloat(p.PayoutMultiplier))
}

// WonAgainst reports whether this leg's side beats the given actual value.
// A push (actual exactly on the line) is neither won nor lost.
func (l *ParlayLeg) WonAgainst(actual float64) bool {
	if l.Side == BetSideOver {
		return actual > l.Line
	}
	return actual < l.Line
}

// IsPush reports whether the actual value landed exactly on the line
func (l *ParlayLeg) IsPush(actual float64) bool {
	return actual == l.Line
}

// IsResolved reports whether the parlay has left the pending state
func (p *ParlayBet) IsResolved() bool {
	return p.Status != BetStatusPending
}

// LegCount returns the number of picks on the ticket
func (p *ParlayBet) LegCount() int {
	return len(p.Legs)
}
