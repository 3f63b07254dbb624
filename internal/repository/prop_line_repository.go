package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/models"
)

const errScanPropLine = "failed to scan prop line: %w"

// PostgresPropLineRepository implements PropLineRepository for PostgreSQL
type PostgresPropLineRepository struct {
	db *database.DB
}

// NewPostgresPropLineRepository creates a new prop line repository
func NewPostgresPropLineRepository(db *database.DB) PropLineRepository {
	return &PostgresPropLineRepository{db: db}
}

// Upsert inserts a line or replaces the existing one for the same player,
// stat and game date. Boards move lines during the day; the latest fetch wins.
func (r *PostgresPropLineRepository) Upsert(ctx context.Context, line *models.PropLine) error {
	query := `
		INSERT INTO prop_lines (id, player_id, stat_type, line, source, game_date,
		                        over_odds, under_odds, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (player_id, stat_type, game_date) DO UPDATE
		SET line = EXCLUDED.line,
		    source = EXCLUDED.source,
		    over_odds = EXCLUDED.over_odds,
		    under_odds = EXCLUDED.under_odds,
		    fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		line.ID, line.PlayerID, line.StatType, line.Line, line.Source, line.GameDate,
		line.OverOdds, line.UnderOdds, line.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert prop line: %w", err)
	}

	return nil
}

// GetByID retrieves a prop line by ID
func (r *PostgresPropLineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PropLine, error) {
	query := `
		SELECT id, player_id, stat_type, line, source, game_date, over_odds, under_odds, fetched_at
		FROM prop_lines WHERE id = $1
	`

	line := &models.PropLine{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&line.ID, &line.PlayerID, &line.StatType, &line.Line, &line.Source,
		&line.GameDate, &line.OverOdds, &line.UnderOdds, &line.FetchedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prop line: %w", err)
	}

	return line, nil
}

// Latest retrieves the current line for a player, stat and game date
func (r *PostgresPropLineRepository) Latest(ctx context.Context, playerID uuid.UUID, stat models.StatType, gameDate time.Time) (*models.PropLine, error) {
	query := `
		SELECT id, player_id, stat_type, line, source, game_date, over_odds, under_odds, fetched_at
		FROM prop_lines
		WHERE player_id = $1 AND stat_type = $2 AND game_date = $3
	`

	line := &models.PropLine{}
	err := r.db.GetPool().QueryRow(ctx, query, playerID, stat, gameDate).Scan(
		&line.ID, &line.PlayerID, &line.StatType, &line.Line, &line.Source,
		&line.GameDate, &line.OverOdds, &line.UnderOdds, &line.FetchedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest prop line: %w", err)
	}

	return line, nil
}

// GetByDate retrieves every line posted for one game date
func (r *PostgresPropLineRepository) GetByDate(ctx context.Context, gameDate time.Time) ([]*models.PropLine, error) {
	query := `
		SELECT id, player_id, stat_type, line, source, game_date, over_odds, under_odds, fetched_at
		FROM prop_lines
		WHERE game_date = $1
		ORDER BY player_id, stat_type
	`

	rows, err := r.db.GetPool().Query(ctx, query, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query prop lines by date: %w", err)
	}
	defer rows.Close()

	return scanPropLines(rows)
}

// GetBySource retrieves lines fetched from a source since the given time
func (r *PostgresPropLineRepository) GetBySource(ctx context.Context, source string, since time.Time) ([]*models.PropLine, error) {
	query := `
		SELECT id, player_id, stat_type, line, source, game_date, over_odds, under_odds, fetched_at
		FROM prop_lines
		WHERE source = $1 AND fetched_at >= $2
		ORDER BY fetched_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, source, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query prop lines by source: %w", err)
	}
	defer rows.Close()

	return scanPropLines(rows)
}

func scanPropLines(rows pgx.Rows) ([]*models.PropLine, error) {
	var lines []*models.PropLine
	for rows.Next() {
		line := &models.PropLine{}
		err := rows.Scan(
			&line.ID, &line.PlayerID, &line.StatType, &line.Line, &line.Source,
			&line.GameDate, &line.OverOdds, &line.UnderOdds, &line.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanPropLine, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
