package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStat represents one player's box-score line for a single game.
// DaysRest is nil when the previous game is unknown (first collected game).
type GameStat struct {
	ID           uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	PlayerID     uuid.UUID `db:"player_id" json:"player_id" validate:"required,uuid4"`
	GameDate     time.Time `db:"game_date" json:"game_date" validate:"required"`
	Opponent     string    `db:"opponent" json:"opponent"`
	IsHome       bool      `db:"is_home" json:"is_home"`
	Minutes      float64   `db:"minutes" json:"minutes" validate:"gte=0,lte=60"`
	Points       float64   `db:"points" json:"points" validate:"gte=0"`
	Rebounds     float64   `db:"rebounds" json:"rebounds" validate:"gte=0"`
	Assists      float64   `db:"assists" json:"assists" validate:"gte=0"`
	Threes       float64   `db:"threes" json:"threes" validate:"gte=0"`
	DaysRest     *int      `db:"days_rest" json:"days_rest"`
	IsBackToBack bool      `db:"is_back_to_back" json:"is_back_to_back"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Value returns the recorded value for the given stat type
func (g *GameStat) Value(stat StatType) (float64, bool) {
	switch stat {
	case StatTypePoints:
		return g.Points, true
	case StatTypeRebounds:
		return g.Rebounds, true
	case StatTypeAssists:
		return g.Assists, true
	case StatTypeThrees:
		return g.Threes, true
	}
	return 0, false
}

// DidNotPlay reports whether the player logged no minutes
func (g *GameStat) DidNotPlay() bool {
	return g.Minutes == 0
}
