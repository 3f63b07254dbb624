package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAmericanOdds is the standard juice both sides of a prop carry
// when the board does not quote odds explicitly.
const DefaultAmericanOdds = -110

// PropLine represents a posted over/under threshold for one player statistic
type PropLine struct {
	ID        uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	PlayerID  uuid.UUID `db:"player_id" json:"player_id" validate:"required,uuid4"`
	StatType  StatType  `db:"stat_type" json:"stat_type" validate:"required,oneof=points rebounds assists threes"`
	Line      float64   `db:"line" json:"line" validate:"required,gt=0"`
	Source    string    `db:"source" json:"source" validate:"required"`
	GameDate  time.Time `db:"game_date" json:"game_date" validate:"required"`
	OverOdds  int       `db:"over_odds" json:"over_odds"`
	UnderOdds int       `db:"under_odds" json:"under_odds"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}

// OddsFor returns the American odds quoted for the given side,
// falling back to the board default when unset.
func (l *PropLine) OddsFor(side BetSide) int {
	odds := l.OverOdds
	if side == BetSideUnder {
		odds = l.UnderOdds
	}
	if odds == 0 {
		return DefaultAmericanOdds
	}
	return odds
}

// IsStale reports whether the line was fetched longer than maxAge ago
func (l *PropLine) IsStale(maxAge time.Duration) bool {
	return time.Since(l.FetchedAt) > maxAge
}
