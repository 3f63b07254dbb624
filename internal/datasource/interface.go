// Package datasource implements clients for the external feeds the collector
// consumes: the NBA stats API for box scores and the PrizePicks board for
// prop lines, plus a websocket stream for live line moves.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/prop-edge/internal/models"
)

// StatsProvider fetches box-score data for players
type StatsProvider interface {
	// FetchGameLog retrieves a player's games for the season, normalized and
	// ordered oldest first.
	FetchGameLog(ctx context.Context, externalPlayerID string, season string) ([]GameLogEntry, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// LinesProvider fetches currently posted prop lines
type LinesProvider interface {
	// FetchLines retrieves the current prop board, one entry per
	// player/stat/game-date combination.
	FetchLines(ctx context.Context) ([]LineEntry, error)

	Name() string
	IsEnabled() bool
}

// GameLogEntry represents one normalized game from a stats provider
type GameLogEntry struct {
	GameDate time.Time `json:"game_date"`
	Opponent string    `json:"opponent"`
	IsHome   bool      `json:"is_home"`
	Minutes  float64   `json:"minutes"`
	Points   float64   `json:"points"`
	Rebounds float64   `json:"rebounds"`
	Assists  float64   `json:"assists"`
	Threes   float64   `json:"threes"`
}

// LineEntry represents one normalized prop line from a lines provider.
// Players are identified by the provider's own name/ID pair; the collector
// maps them onto stored players.
type LineEntry struct {
	ExternalPlayerID string          `json:"external_player_id"`
	PlayerName       string          `json:"player_name"`
	Team             string          `json:"team"`
	Position         string          `json:"position"`
	StatType         models.StatType `json:"stat_type"`
	Line             float64         `json:"line"`
	GameDate         time.Time       `json:"game_date"`
	OverOdds         int             `json:"over_odds"`
	UnderOdds        int             `json:"under_odds"`
	Source           string          `json:"source"`
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limited")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap exposes the underlying error to errors.Is/As
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeConnectionFailed = "connection_failed"
	ErrCodeInvalidResponse  = "invalid_response"
	ErrCodeNotFound         = "not_found"
	ErrCodeParseError       = "parse_error"
	ErrCodeDisabled         = "disabled"
)

// Error constructors
var (
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrConnectionFailed = errors.New("connection failed")
	ErrInvalidResponse  = errors.New("invalid response")
	ErrSourceNotFound   = errors.New("data not found")
	ErrSourceDisabled   = errors.New("data source disabled")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
