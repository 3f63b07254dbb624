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

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Insert records a bankroll snapshot
func (r *PostgresSnapshotRepository) Insert(ctx context.Context, snapshot *models.BankrollSnapshot) error {
	query := `
		INSERT INTO bankroll_snapshots (id, account_id, balance, total_bets, won_bets,
		                                lost_bets, void_bets, snapshot_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		snapshot.ID, snapshot.AccountID, snapshot.Balance, snapshot.TotalBets,
		snapshot.WonBets, snapshot.LostBets, snapshot.VoidBets, snapshot.SnapshotAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetByAccount retrieves snapshots for an account inside a time window,
// oldest first for charting
func (r *PostgresSnapshotRepository) GetByAccount(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]*models.BankrollSnapshot, error) {
	query := `
		SELECT id, account_id, balance, total_bets, won_bets, lost_bets, void_bets, snapshot_at
		FROM bankroll_snapshots
		WHERE account_id = $1 AND snapshot_at >= $2 AND snapshot_at <= $3
		ORDER BY snapshot_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.BankrollSnapshot
	for rows.Next() {
		snapshot := &models.BankrollSnapshot{}
		err := rows.Scan(
			&snapshot.ID, &snapshot.AccountID, &snapshot.Balance, &snapshot.TotalBets,
			&snapshot.WonBets, &snapshot.LostBets, &snapshot.VoidBets, &snapshot.SnapshotAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// Latest retrieves the most recent snapshot for an account
func (r *PostgresSnapshotRepository) Latest(ctx context.Context, accountID uuid.UUID) (*models.BankrollSnapshot, error) {
	query := `
		SELECT id, account_id, balance, total_bets, won_bets, lost_bets, void_bets, snapshot_at
		FROM bankroll_snapshots
		WHERE account_id = $1
		ORDER BY snapshot_at DESC
		LIMIT 1
	`

	snapshot := &models.BankrollSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, accountID).Scan(
		&snapshot.ID, &snapshot.AccountID, &snapshot.Balance, &snapshot.TotalBets,
		&snapshot.WonBets, &snapshot.LostBets, &snapshot.VoidBets, &snapshot.SnapshotAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return snapshot, nil
}
