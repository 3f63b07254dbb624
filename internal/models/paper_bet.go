package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetSide represents the side of an over/under bet
type BetSide string

const (
	BetSideOver  BetSide = "OVER"
	BetSideUnder BetSide = "UNDER"
)

// BetStatus represents the lifecycle state of a paper bet
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
	BetStatusVoid    BetStatus = "void"
)

// PaperBet represents a simulated single-pick wager against a prop line.
// Stake is debited from the account at placement; PotentialPayout is the
// full credit (stake plus profit) returned on a win.
type PaperBet struct {
	ID              uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	AccountID       uuid.UUID       `db:"account_id" json:"account_id" validate:"required,uuid4"`
	PlayerID        uuid.UUID       `db:"player_id" json:"player_id" validate:"required,uuid4"`
	PlayerName      string          `db:"player_name" json:"player_name" validate:"required"`
	StatType        StatType        `db:"stat_type" json:"stat_type" validate:"required,oneof=points rebounds assists threes"`
	Line            float64         `db:"line" json:"line" validate:"required"`
	Side            BetSide         `db:"side" json:"side" validate:"required,oneof=OVER UNDER"`
	Stake           decimal.Decimal `db:"stake" json:"stake"`
	ProfitPerUnit   float64         `db:"profit_per_unit" json:"profit_per_unit" validate:"gt=0"`
	PotentialPayout decimal.Decimal `db:"potential_payout" json:"potential_payout"`
	Prediction      float64         `db:"prediction" json:"prediction"`
	Probability     float64         `db:"probability" json:"probability" validate:"gte=0,lte=1"`
	ExpectedValue   float64         `db:"expected_value" json:"expected_value"`
	Confidence      float64         `db:"confidence" json:"confidence" validate:"gte=0"`
	StdDev          float64         `db:"std_dev" json:"std_dev" validate:"gte=0"`
	DaysRest        *int            `db:"days_rest" json:"days_rest"`
	GameDate        time.Time       `db:"game_date" json:"game_date"`
	Status          BetStatus       `db:"status" json:"status" validate:"required"`
	ActualResult    *float64        `db:"actual_result" json:"actual_result"`
	ProfitLoss      decimal.Decimal `db:"profit_loss" json:"profit_loss"`
	PlacedAt        time.Time       `db:"placed_at" json:"placed_at"`
	ResolvedAt      *time.Time      `db:"resolved_at" json:"resolved_at"`
}

// IsResolved reports whether the bet has left the pending state
func (b *PaperBet) IsResolved() bool {
	return b.Status != BetStatusPending
}

// WonAgainst reports whether this bet's side beats the given actual value.
// A push (actual exactly on the line) is neither won nor lost.
func (b *PaperBet) WonAgainst(actual float64) bool {
	if b.Side == BetSideOver {
		return actual > b.Line
	}
	return actual < b.Line
}

// IsPush reports whether the actual value landed exactly on the line
func (b *PaperBet) IsPush(actual float64) bool {
	return actual == b.Line
}

// ROI returns the realized return on stake as a percentage
func (b *PaperBet) ROI() float64 {
	if b.Stake.IsZero() {
		return 0
	}
	roi, _ := b.ProfitLoss.Div(b.Stake).Float64()
	return roi * 100
}
