package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/models"
)

// PostgresAccountRepository implements AccountRepository for PostgreSQL
type PostgresAccountRepository struct {
	db *database.DB
}

// NewPostgresAccountRepository creates a new account repository
func NewPostgresAccountRepository(db *database.DB) AccountRepository {
	return &PostgresAccountRepository{db: db}
}

// Create inserts a new paper trading account
func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO paper_trading_accounts (id, name, starting_balance, current_balance,
		                                    bets_placed, bets_won, bets_lost, bets_void)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		account.ID, account.Name, account.StartingBalance, account.CurrentBalance,
		account.BetsPlaced, account.BetsWon, account.BetsLost, account.BetsVoid,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `
		SELECT id, name, starting_balance, current_balance,
		       bets_placed, bets_won, bets_lost, bets_void, created_at, updated_at
		FROM paper_trading_accounts WHERE id = $1
	`

	account := &models.Account{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&account.ID, &account.Name, &account.StartingBalance, &account.CurrentBalance,
		&account.BetsPlaced, &account.BetsWon, &account.BetsLost, &account.BetsVoid,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// GetByName retrieves an account by its unique name
func (r *PostgresAccountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	query := `
		SELECT id, name, starting_balance, current_balance,
		       bets_placed, bets_won, bets_lost, bets_void, created_at, updated_at
		FROM paper_trading_accounts WHERE name = $1
	`

	account := &models.Account{}
	err := r.db.GetPool().QueryRow(ctx, query, name).Scan(
		&account.ID, &account.Name, &account.StartingBalance, &account.CurrentBalance,
		&account.BetsPlaced, &account.BetsWon, &account.BetsLost, &account.BetsVoid,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by name: %w", err)
	}

	return account, nil
}

// GetAll retrieves every account
func (r *PostgresAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT id, name, starting_balance, current_balance,
		       bets_placed, bets_won, bets_lost, bets_void, created_at, updated_at
		FROM paper_trading_accounts
		ORDER BY created_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{}
		err := rows.Scan(
			&account.ID, &account.Name, &account.StartingBalance, &account.CurrentBalance,
			&account.BetsPlaced, &account.BetsWon, &account.BetsLost, &account.BetsVoid,
			&account.CreatedAt, &account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// Debit atomically subtracts a stake from the balance. The balance guard in
// the WHERE clause rejects overdrafts without a read-modify-write race.
func (r *PostgresAccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE paper_trading_accounts
		SET current_balance = current_balance - $2, updated_at = NOW()
		WHERE id = $1 AND current_balance >= $2
	`

	result, err := r.db.GetPool().Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Distinguish a missing account from an overdraft.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return models.ErrInsufficientFunds
	}

	return nil
}

// Credit atomically adds a payout or refund to the balance
func (r *PostgresAccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE paper_trading_accounts
		SET current_balance = current_balance + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.GetPool().Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RecordPlacement bumps the placed counter when a bet is accepted
func (r *PostgresAccountRepository) RecordPlacement(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE paper_trading_accounts
		SET bets_placed = bets_placed + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.GetPool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to record placement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RecordResult bumps the counter matching the settled status
func (r *PostgresAccountRepository) RecordResult(ctx context.Context, id uuid.UUID, status models.BetStatus) error {
	column, err := resultColumn(status)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE paper_trading_accounts
		SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1
	`, column, column)

	result, err := r.db.GetPool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Settle applies a resolution in one statement: the credit (payout or refund,
// zero for a loss) lands on the balance and the outcome counter bumps
// together, so a crash between the two cannot skew the books.
func (r *PostgresAccountRepository) Settle(ctx context.Context, id uuid.UUID, credit decimal.Decimal, status models.BetStatus) error {
	column, err := resultColumn(status)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE paper_trading_accounts
		SET current_balance = current_balance + $2, %s = %s + 1, updated_at = NOW()
		WHERE id = $1
	`, column, column)

	result, err := r.db.GetPool().Exec(ctx, query, id, credit)
	if err != nil {
		return fmt.Errorf("failed to settle account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// resultColumn maps a terminal bet status onto its account counter column.
// The column name never comes from input, so the Sprintf below stays safe.
func resultColumn(status models.BetStatus) (string, error) {
	switch status {
	case models.BetStatusWon:
		return "bets_won", nil
	case models.BetStatusLost:
		return "bets_lost", nil
	case models.BetStatusVoid:
		return "bets_void", nil
	default:
		return "", fmt.Errorf("cannot record result for status %q", status)
	}
}
