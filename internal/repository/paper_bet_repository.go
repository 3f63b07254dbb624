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

const (
	errScanPaperBet = "failed to scan paper bet: %w"

	paperBetColumns = `id, account_id, player_id, player_name, stat_type, line, side,
		stake, profit_per_unit, potential_payout, prediction, probability,
		expected_value, confidence, std_dev, days_rest, game_date, status,
		actual_result, profit_loss, placed_at, resolved_at`
)

// PostgresPaperBetRepository implements PaperBetRepository for PostgreSQL
type PostgresPaperBetRepository struct {
	db *database.DB
}

// NewPostgresPaperBetRepository creates a new paper bet repository
func NewPostgresPaperBetRepository(db *database.DB) PaperBetRepository {
	return &PostgresPaperBetRepository{db: db}
}

// Create inserts a new paper bet
func (r *PostgresPaperBetRepository) Create(ctx context.Context, bet *models.PaperBet) error {
	query := `
		INSERT INTO paper_bets (id, account_id, player_id, player_name, stat_type, line, side,
		                        stake, profit_per_unit, potential_payout, prediction, probability,
		                        expected_value, confidence, std_dev, days_rest, game_date, status,
		                        profit_loss, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		bet.ID, bet.AccountID, bet.PlayerID, bet.PlayerName, bet.StatType, bet.Line, bet.Side,
		bet.Stake, bet.ProfitPerUnit, bet.PotentialPayout, bet.Prediction, bet.Probability,
		bet.ExpectedValue, bet.Confidence, bet.StdDev, bet.DaysRest, bet.GameDate, bet.Status,
		bet.ProfitLoss, bet.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create paper bet: %w", err)
	}

	return nil
}

// GetByID retrieves a paper bet by ID
func (r *PostgresPaperBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PaperBet, error) {
	query := fmt.Sprintf(`SELECT %s FROM paper_bets WHERE id = $1`, paperBetColumns)

	bet := &models.PaperBet{}
	err := scanPaperBet(r.db.GetPool().QueryRow(ctx, query, id), bet)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paper bet: %w", err)
	}

	return bet, nil
}

// GetPending retrieves all unresolved bets, oldest game first so the
// resolver settles past games before today's
func (r *PostgresPaperBetRepository) GetPending(ctx context.Context) ([]*models.PaperBet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM paper_bets
		WHERE status = 'pending'
		ORDER BY game_date ASC, placed_at ASC
	`, paperBetColumns)

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending bets: %w", err)
	}
	defer rows.Close()

	return collectPaperBets(rows)
}

// GetByAccount retrieves an account's bets, most recent first
func (r *PostgresPaperBetRepository) GetByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.PaperBet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM paper_bets
		WHERE account_id = $1
		ORDER BY placed_at DESC
		LIMIT $2
	`, paperBetColumns)

	rows, err := r.db.GetPool().Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets by account: %w", err)
	}
	defer rows.Close()

	return collectPaperBets(rows)
}

// GetResolvedBetween retrieves settled bets resolved inside a time window
func (r *PostgresPaperBetRepository) GetResolvedBetween(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]*models.PaperBet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM paper_bets
		WHERE account_id = $1 AND status != 'pending'
		  AND resolved_at >= $2 AND resolved_at <= $3
		ORDER BY resolved_at ASC
	`, paperBetColumns)

	rows, err := r.db.GetPool().Query(ctx, query, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved bets: %w", err)
	}
	defer rows.Close()

	return collectPaperBets(rows)
}

// Resolve moves a pending bet into a terminal status. The status guard in the
// WHERE clause makes resolution idempotent under concurrent sweeps.
func (r *PostgresPaperBetRepository) Resolve(ctx context.Context, id uuid.UUID, status models.BetStatus, actual float64, profitLoss decimal.Decimal, resolvedAt time.Time) error {
	query := `
		UPDATE paper_bets
		SET status = $2, actual_result = $3, profit_loss = $4, resolved_at = $5
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.GetPool().Exec(ctx, query, id, status, actual, profitLoss, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve paper bet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrBetNotPending
	}

	return nil
}

type paperBetRow interface {
	Scan(dest ...any) error
}

func scanPaperBet(row paperBetRow, bet *models.PaperBet) error {
	return row.Scan(
		&bet.ID, &bet.AccountID, &bet.PlayerID, &bet.PlayerName, &bet.StatType, &bet.Line, &bet.Side,
		&bet.Stake, &bet.ProfitPerUnit, &bet.PotentialPayout, &bet.Prediction, &bet.Probability,
		&bet.ExpectedValue, &bet.Confidence, &bet.StdDev, &bet.DaysRest, &bet.GameDate, &bet.Status,
		&bet.ActualResult, &bet.ProfitLoss, &bet.PlacedAt, &bet.ResolvedAt,
	)
}

func collectPaperBets(rows pgx.Rows) ([]*models.PaperBet, error) {
	var bets []*models.PaperBet
	for rows.Next() {
		bet := &models.PaperBet{}
		if err := scanPaperBet(rows, bet); err != nil {
			return nil, fmt.Errorf(errScanPaperBet, err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}
