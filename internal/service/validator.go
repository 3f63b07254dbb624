package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/models"
)

// Validator checks collected rows against domain constraints before they are
// persisted. Each method returns the list of violations; an empty slice means
// the row is acceptable.
type Validator struct {
	logger *logrus.Logger
}

// NewValidator creates a new validator
func NewValidator(logger *logrus.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateGameStat validates a box-score line
func (v *Validator) ValidateGameStat(stat *models.GameStat) []string {
	var errors []string

	if stat.PlayerID == uuid.Nil {
		errors = append(errors, "player_id is required")
	}

	if stat.GameDate.IsZero() {
		errors = append(errors, "game_date is required")
	}

	// Box scores are for finished games only
	if stat.GameDate.After(time.Now().UTC().Add(24 * time.Hour)) {
		errors = append(errors, fmt.Sprintf("game_date %s is in the future", stat.GameDate.Format("2006-01-02")))
	}

	if stat.Minutes < 0 || stat.Minutes > 60 {
		errors = append(errors, fmt.Sprintf("minutes out of range (0-60), got %.1f", stat.Minutes))
	}

	if stat.Points < 0 {
		errors = append(errors, fmt.Sprintf("points cannot be negative, got %.1f", stat.Points))
	}

	if stat.Rebounds < 0 {
		errors = append(errors, fmt.Sprintf("rebounds cannot be negative, got %.1f", stat.Rebounds))
	}

	if stat.Assists < 0 {
		errors = append(errors, fmt.Sprintf("assists cannot be negative, got %.1f", stat.Assists))
	}

	if stat.Threes < 0 {
		errors = append(errors, fmt.Sprintf("threes cannot be negative, got %.1f", stat.Threes))
	}

	// Each made three is worth exactly three points
	if stat.Threes*3 > stat.Points {
		errors = append(errors, fmt.Sprintf("threes (%.0f) inconsistent with points (%.0f)", stat.Threes, stat.Points))
	}

	if stat.DaysRest != nil && *stat.DaysRest < 0 {
		errors = append(errors, "days_rest cannot be negative")
	}

	return errors
}

// ValidatePropLine validates a posted over/under line
func (v *Validator) ValidatePropLine(line *models.PropLine) []string {
	var errors []string

	if line.PlayerID == uuid.Nil {
		errors = append(errors, "player_id is required")
	}

	if !line.StatType.Valid() {
		errors = append(errors, fmt.Sprintf("unknown stat_type %q", line.StatType))
	}

	if line.Line <= 0 {
		errors = append(errors, fmt.Sprintf("line must be positive, got %.1f", line.Line))
	}

	if line.Line > 100 {
		errors = append(errors, fmt.Sprintf("line implausibly high, got %.1f", line.Line))
	}

	if line.Source == "" {
		errors = append(errors, "source is required")
	}

	if line.GameDate.IsZero() {
		errors = append(errors, "game_date is required")
	}

	// A line for a game more than a day gone is useless for trading
	if !line.GameDate.IsZero() && line.GameDate.Before(time.Now().UTC().Add(-48*time.Hour)) {
		errors = append(errors, fmt.Sprintf("game_date %s is in the past", line.GameDate.Format("2006-01-02")))
	}

	return errors
}

// ValidatePlayer validates a player row before upsert
func (v *Validator) ValidatePlayer(player *models.Player) []string {
	var errors []string

	if player.ExternalID == "" {
		errors = append(errors, "external_id is required")
	}

	if player.Name == "" {
		errors = append(errors, "name is required")
	}

	if len(player.Name) > 100 {
		errors = append(errors, "name too long")
	}

	return errors
}
