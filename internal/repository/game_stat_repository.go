package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/models"
)

const errScanGameStat = "failed to scan game stat: %w"

// PostgresGameStatRepository implements GameStatRepository for PostgreSQL
type PostgresGameStatRepository struct {
	db *database.DB
}

// NewPostgresGameStatRepository creates a new game stat repository
func NewPostgresGameStatRepository(db *database.DB) GameStatRepository {
	return &PostgresGameStatRepository{db: db}
}

// Create inserts a new game stat line. A second line for the same player and
// game date violates the uniqueness index and maps to ErrDuplicateKey.
func (r *PostgresGameStatRepository) Create(ctx context.Context, stat *models.GameStat) error {
	query := `
		INSERT INTO game_stats (id, player_id, game_date, opponent, is_home, minutes,
		                        points, rebounds, assists, threes, days_rest, is_back_to_back)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		stat.ID, stat.PlayerID, stat.GameDate, stat.Opponent, stat.IsHome, stat.Minutes,
		stat.Points, stat.Rebounds, stat.Assists, stat.Threes, stat.DaysRest, stat.IsBackToBack,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create game stat: %w", err)
	}

	return nil
}

// GetByPlayerAndDate retrieves the stat line for one player on one game date
func (r *PostgresGameStatRepository) GetByPlayerAndDate(ctx context.Context, playerID uuid.UUID, gameDate time.Time) (*models.GameStat, error) {
	query := `
		SELECT id, player_id, game_date, opponent, is_home, minutes,
		       points, rebounds, assists, threes, days_rest, is_back_to_back, created_at
		FROM game_stats
		WHERE player_id = $1 AND game_date = $2
	`

	stat := &models.GameStat{}
	err := r.db.GetPool().QueryRow(ctx, query, playerID, gameDate).Scan(
		&stat.ID, &stat.PlayerID, &stat.GameDate, &stat.Opponent, &stat.IsHome, &stat.Minutes,
		&stat.Points, &stat.Rebounds, &stat.Assists, &stat.Threes, &stat.DaysRest,
		&stat.IsBackToBack, &stat.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game stat: %w", err)
	}

	return stat, nil
}

// RecentByPlayer retrieves the player's most recent game lines. The query
// walks the date index backwards for the limit, then the slice is reversed so
// callers always see chronological order with the newest game last.
func (r *PostgresGameStatRepository) RecentByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]*models.GameStat, error) {
	query := `
		SELECT id, player_id, game_date, opponent, is_home, minutes,
		       points, rebounds, assists, threes, days_rest, is_back_to_back, created_at
		FROM game_stats
		WHERE player_id = $1
		ORDER BY game_date DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent game stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.GameStat
	for rows.Next() {
		stat := &models.GameStat{}
		err := rows.Scan(
			&stat.ID, &stat.PlayerID, &stat.GameDate, &stat.Opponent, &stat.IsHome, &stat.Minutes,
			&stat.Points, &stat.Rebounds, &stat.Assists, &stat.Threes, &stat.DaysRest,
			&stat.IsBackToBack, &stat.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanGameStat, err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DESC fetch, ASC contract: reverse in place.
	for i, j := 0, len(stats)-1; i < j; i, j = i+1, j-1 {
		stats[i], stats[j] = stats[j], stats[i]
	}

	return stats, nil
}

// RecentHistory projects recent game lines onto one statistic, oldest first
func (r *PostgresGameStatRepository) RecentHistory(ctx context.Context, playerID uuid.UUID, stat models.StatType, limit int) (forecast.History, error) {
	stats, err := r.RecentByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, err
	}

	history := make(forecast.History, 0, len(stats))
	for _, gs := range stats {
		value, ok := gs.Value(stat)
		if !ok {
			return nil, fmt.Errorf("unsupported stat type %q", stat)
		}
		history = append(history, forecast.Observation{GameDate: gs.GameDate, Value: value})
	}

	return history, nil
}

// GetByDate retrieves every stat line recorded for one game date
func (r *PostgresGameStatRepository) GetByDate(ctx context.Context, gameDate time.Time) ([]*models.GameStat, error) {
	query := `
		SELECT id, player_id, game_date, opponent, is_home, minutes,
		       points, rebounds, assists, threes, days_rest, is_back_to_back, created_at
		FROM game_stats
		WHERE game_date = $1
		ORDER BY player_id
	`

	rows, err := r.db.GetPool().Query(ctx, query, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query game stats by date: %w", err)
	}
	defer rows.Close()

	var stats []*models.GameStat
	for rows.Next() {
		stat := &models.GameStat{}
		err := rows.Scan(
			&stat.ID, &stat.PlayerID, &stat.GameDate, &stat.Opponent, &stat.IsHome, &stat.Minutes,
			&stat.Points, &stat.Rebounds, &stat.Assists, &stat.Threes, &stat.DaysRest,
			&stat.IsBackToBack, &stat.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanGameStat, err)
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// GetByPlayerRange retrieves one player's stat lines within a date range,
// oldest first
func (r *PostgresGameStatRepository) GetByPlayerRange(ctx context.Context, playerID uuid.UUID, start, end time.Time) ([]*models.GameStat, error) {
	query := `
		SELECT id, player_id, game_date, opponent, is_home, minutes,
		       points, rebounds, assists, threes, days_rest, is_back_to_back, created_at
		FROM game_stats
		WHERE player_id = $1 AND game_date >= $2 AND game_date <= $3
		ORDER BY game_date ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, playerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query game stats by range: %w", err)
	}
	defer rows.Close()

	var stats []*models.GameStat
	for rows.Next() {
		stat := &models.GameStat{}
		err := rows.Scan(
			&stat.ID, &stat.PlayerID, &stat.GameDate, &stat.Opponent, &stat.IsHome, &stat.Minutes,
			&stat.Points, &stat.Rebounds, &stat.Assists, &stat.Threes, &stat.DaysRest,
			&stat.IsBackToBack, &stat.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanGameStat, err)
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// CountByPlayer returns how many games are stored for a player
func (r *PostgresGameStatRepository) CountByPlayer(ctx context.Context, playerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetPool().QueryRow(ctx,
		`SELECT COUNT(*) FROM game_stats WHERE player_id = $1`, playerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count game stats: %w", err)
	}
	return count, nil
}
