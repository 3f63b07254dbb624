package database

import (
	"context"
	"fmt"

	"github.com/yourusername/prop-edge/internal/config"
)

// schema holds the DDL statements executed by Initialize, in dependency
// order. Every statement is idempotent so Initialize can run on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id UUID PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		team TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS game_stats (
		id UUID PRIMARY KEY,
		player_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		game_date DATE NOT NULL,
		opponent TEXT NOT NULL DEFAULT '',
		is_home BOOLEAN NOT NULL DEFAULT FALSE,
		minutes DOUBLE PRECISION NOT NULL DEFAULT 0,
		points DOUBLE PRECISION NOT NULL DEFAULT 0,
		rebounds DOUBLE PRECISION NOT NULL DEFAULT 0,
		assists DOUBLE PRECISION NOT NULL DEFAULT 0,
		threes DOUBLE PRECISION NOT NULL DEFAULT 0,
		days_rest INTEGER,
		is_back_to_back BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_game_stats_player_date
		ON game_stats (player_id, game_date)`,
	`CREATE INDEX IF NOT EXISTS idx_game_stats_game_date
		ON game_stats (game_date)`,
	`CREATE TABLE IF NOT EXISTS prop_lines (
		id UUID PRIMARY KEY,
		player_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		stat_type TEXT NOT NULL,
		line DOUBLE PRECISION NOT NULL,
		source TEXT NOT NULL,
		game_date DATE NOT NULL,
		over_odds INTEGER NOT NULL DEFAULT -110,
		under_odds INTEGER NOT NULL DEFAULT -110,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_prop_lines_player_stat_date
		ON prop_lines (player_id, stat_type, game_date)`,
	`CREATE TABLE IF NOT EXISTS paper_trading_accounts (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		starting_balance NUMERIC(12,2) NOT NULL,
		current_balance NUMERIC(12,2) NOT NULL,
		bets_placed INTEGER NOT NULL DEFAULT 0,
		bets_won INTEGER NOT NULL DEFAULT 0,
		bets_lost INTEGER NOT NULL DEFAULT 0,
		bets_void INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS paper_bets (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES paper_trading_accounts(id) ON DELETE CASCADE,
		player_id UUID NOT NULL REFERENCES players(id),
		player_name TEXT NOT NULL,
		stat_type TEXT NOT NULL,
		line DOUBLE PRECISION NOT NULL,
		side TEXT NOT NULL,
		stake NUMERIC(12,2) NOT NULL,
		profit_per_unit DOUBLE PRECISION NOT NULL,
		potential_payout NUMERIC(12,2) NOT NULL,
		prediction DOUBLE PRECISION NOT NULL,
		probability DOUBLE PRECISION NOT NULL,
		expected_value DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		std_dev DOUBLE PRECISION NOT NULL DEFAULT 0,
		days_rest INTEGER,
		game_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		actual_result DOUBLE PRECISION,
		profit_loss NUMERIC(12,2) NOT NULL DEFAULT 0,
		placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_paper_bets_status
		ON paper_bets (status)`,
	`CREATE INDEX IF NOT EXISTS idx_paper_bets_account
		ON paper_bets (account_id, placed_at)`,
	`CREATE TABLE IF NOT EXISTS parlay_bets (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES paper_trading_accounts(id) ON DELETE CASCADE,
		stake NUMERIC(12,2) NOT NULL,
		payout_multiplier DOUBLE PRECISION NOT NULL,
		combined_probability DOUBLE PRECISION NOT NULL,
		expected_value DOUBLE PRECISION NOT NULL,
		kelly_fraction DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		profit_loss NUMERIC(12,2) NOT NULL DEFAULT 0,
		placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS parlay_legs (
		id UUID PRIMARY KEY,
		parlay_id UUID NOT NULL REFERENCES parlay_bets(id) ON DELETE CASCADE,
		player_id UUID NOT NULL REFERENCES players(id),
		player_name TEXT NOT NULL,
		stat_type TEXT NOT NULL,
		line DOUBLE PRECISION NOT NULL,
		side TEXT NOT NULL,
		probability DOUBLE PRECISION NOT NULL,
		game_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		actual_result DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parlay_legs_parlay
		ON parlay_legs (parlay_id)`,
	`CREATE TABLE IF NOT EXISTS bankroll_snapshots (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES paper_trading_accounts(id) ON DELETE CASCADE,
		balance NUMERIC(12,2) NOT NULL,
		total_bets INTEGER NOT NULL DEFAULT 0,
		won_bets INTEGER NOT NULL DEFAULT 0,
		lost_bets INTEGER NOT NULL DEFAULT 0,
		void_bets INTEGER NOT NULL DEFAULT 0,
		snapshot_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bankroll_snapshots_account
		ON bankroll_snapshots (account_id, snapshot_at)`,
}

// Initialize creates a database connection pool and bootstraps the schema.
// All DDL is IF NOT EXISTS, so calling this against an existing database is
// a no-op apart from the connectivity check.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CreateSchema executes the bootstrap DDL against the connected database
func (db *DB) CreateSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
