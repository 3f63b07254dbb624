// Package repository implements PostgreSQL persistence for players, game
// stats, prop lines, paper bets, parlays and bankroll accounts.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/prop-edge/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Player   PlayerRepository
	GameStat GameStatRepository
	PropLine PropLineRepository
	PaperBet PaperBetRepository
	Parlay   ParlayRepository
	Account  AccountRepository
	Snapshot SnapshotRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Player:   NewPostgresPlayerRepository(db),
		GameStat: NewPostgresGameStatRepository(db),
		PropLine: NewPostgresPropLineRepository(db),
		PaperBet: NewPostgresPaperBetRepository(db),
		Parlay:   NewPostgresParlayRepository(db),
		Account:  NewPostgresAccountRepository(db),
		Snapshot: NewPostgresSnapshotRepository(db),
	}, nil
}

// isUniqueViolation reports whether the error is a Postgres unique constraint
// violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
