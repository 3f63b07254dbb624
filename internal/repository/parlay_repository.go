package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/models"
)

const errScanParlay = "failed to scan parlay: %w"

// PostgresParlayRepository implements ParlayRepository for PostgreSQL
type PostgresParlayRepository struct {
	db *database.DB
}

// NewPostgresParlayRepository creates a new parlay repository
func NewPostgresParlayRepository(db *database.DB) ParlayRepository {
	return &PostgresParlayRepository{db: db}
}

// Create inserts a parlay together with its legs in one transaction
func (r *PostgresParlayRepository) Create(ctx context.Context, parlay *models.ParlayBet) error {
	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	parlayQuery := `
		INSERT INTO parlay_bets (id, account_id, stake, payout_multiplier, combined_probability,
		                         expected_value, kelly_fraction, status, profit_loss, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, parlayQuery,
		parlay.ID, parlay.AccountID, parlay.Stake, parlay.PayoutMultiplier,
		parlay.CombinedProbability, parlay.ExpectedValue, parlay.KellyFraction,
		parlay.Status, parlay.ProfitLoss, parlay.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create parlay: %w", err)
	}

	legQuery := `
		INSERT INTO parlay_legs (id, parlay_id, player_id, player_name, stat_type, line, side,
		                         probability, game_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, leg := range parlay.Legs {
		_, err = tx.Exec(ctx, legQuery,
			leg.ID, leg.ParlayID, leg.PlayerID, leg.PlayerName, leg.StatType,
			leg.Line, leg.Side, leg.Probability, leg.GameDate, leg.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to create parlay leg: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit parlay: %w", err)
	}

	return nil
}

// GetByID retrieves a parlay with its legs
func (r *PostgresParlayRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParlayBet, error) {
	query := `
		SELECT id, account_id, stake, payout_multiplier, combined_probability,
		       expected_value, kelly_fraction, status, profit_loss, placed_at, resolved_at
		FROM parlay_bets WHERE id = $1
	`

	parlay := &models.ParlayBet{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&parlay.ID, &parlay.AccountID, &parlay.Stake, &parlay.PayoutMultiplier,
		&parlay.CombinedProbability, &parlay.ExpectedValue, &parlay.KellyFraction,
		&parlay.Status, &parlay.ProfitLoss, &parlay.PlacedAt, &parlay.ResolvedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parlay: %w", err)
	}

	legs, err := r.legsFor(ctx, parlay.ID)
	if err != nil {
		return nil, err
	}
	parlay.Legs = legs

	return parlay, nil
}

// GetPending retrieves all unresolved parlays with their legs
func (r *PostgresParlayRepository) GetPending(ctx context.Context) ([]*models.ParlayBet, error) {
	query := `
		SELECT id, account_id, stake, payout_multiplier, combined_probability,
		       expected_value, kelly_fraction, status, profit_loss, placed_at, resolved_at
		FROM parlay_bets
		WHERE status = 'pending'
		ORDER BY placed_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending parlays: %w", err)
	}
	defer rows.Close()

	parlays, err := collectParlays(rows)
	if err != nil {
		return nil, err
	}

	for _, parlay := range parlays {
		legs, err := r.legsFor(ctx, parlay.ID)
		if err != nil {
			return nil, err
		}
		parlay.Legs = legs
	}

	return parlays, nil
}

// GetByAccount retrieves an account's parlays, most recent first, legs included
func (r *PostgresParlayRepository) GetByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.ParlayBet, error) {
	query := `
		SELECT id, account_id, stake, payout_multiplier, combined_probability,
		       expected_value, kelly_fraction, status, profit_loss, placed_at, resolved_at
		FROM parlay_bets
		WHERE account_id = $1
		ORDER BY placed_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query parlays by account: %w", err)
	}
	defer rows.Close()

	parlays, err := collectParlays(rows)
	if err != nil {
		return nil, err
	}

	for _, parlay := range parlays {
		legs, err := r.legsFor(ctx, parlay.ID)
		if err != nil {
			return nil, err
		}
		parlay.Legs = legs
	}

	return parlays, nil
}

// UpdateLeg records the outcome of a single leg
func (r *PostgresParlayRepository) UpdateLeg(ctx context.Context, legID uuid.UUID, status models.BetStatus, actual float64) error {
	query := `
		UPDATE parlay_legs
		SET status = $2, actual_result = $3
		WHERE id = $1
	`

	result, err := r.db.GetPool().Exec(ctx, query, legID, status, actual)
	if err != nil {
		return fmt.Errorf("failed to update parlay leg: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Resolve moves a pending parlay into a terminal status
func (r *PostgresParlayRepository) Resolve(ctx context.Context, id uuid.UUID, status models.BetStatus, profitLoss decimal.Decimal, resolvedAt time.Time) error {
	query := `
		UPDATE parlay_bets
		SET status = $2, profit_loss = $3, resolved_at = $4
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.GetPool().Exec(ctx, query, id, status, profitLoss, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve parlay: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrBetNotPending
	}

	return nil
}

func (r *PostgresParlayRepository) legsFor(ctx context.Context, parlayID uuid.UUID) ([]*models.ParlayLeg, error) {
	query := `
		SELECT id, parlay_id, player_id, player_name, stat_type, line, side,
		       probability, game_date, status, actual_result
		FROM parlay_legs
		WHERE parlay_id = $1
		ORDER BY player_name
	`

	rows, err := r.db.GetPool().Query(ctx, query, parlayID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parlay legs: %w", err)
	}
	defer rows.Close()

	var legs []*models.ParlayLeg
	for rows.Next() {
		leg := &models.ParlayLeg{}
		err := rows.Scan(
			&leg.ID, &leg.ParlayID, &leg.PlayerID, &leg.PlayerName, &leg.StatType,
			&leg.Line, &leg.Side, &leg.Probability, &leg.GameDate, &leg.Status, &leg.ActualResult,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parlay leg: %w", err)
		}
		legs = append(legs, leg)
	}

	return legs, rows.Err()
}

func collectParlays(rows pgx.Rows) ([]*models.ParlayBet, error) {
	var parlays []*models.ParlayBet
	for rows.Next() {
		parlay := &models.ParlayBet{}
		err := rows.Scan(
			&parlay.ID, &parlay.AccountID, &parlay.Stake, &parlay.PayoutMultiplier,
			&parlay.CombinedProbability, &parlay.ExpectedValue, &parlay.KellyFraction,
			&parlay.Status, &parlay.ProfitLoss, &parlay.PlacedAt, &parlay.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanParlay, err)
		}
		parlays = append(parlays, parlay)
	}
	return parlays, rows.Err()
}
