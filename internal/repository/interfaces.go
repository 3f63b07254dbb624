package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/models"
)

// PlayerRepository defines the interface for player data access
type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	Upsert(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Player, error)
	GetByName(ctx context.Context, name string) (*models.Player, error)
	GetActive(ctx context.Context) ([]*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// GameStatRepository defines the interface for box-score data access
type GameStatRepository interface {
	Create(ctx context.Context, stat *models.GameStat) error
	GetByPlayerAndDate(ctx context.Context, playerID uuid.UUID, gameDate time.Time) (*models.GameStat, error)
	// RecentByPlayer returns the player's most recent game lines in
	// chronological order: oldest first, most recent last.
	RecentByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]*models.GameStat, error)
	// RecentHistory projects the recent game lines onto a single statistic,
	// preserving the oldest-first ordering the estimator expects.
	RecentHistory(ctx context.Context, playerID uuid.UUID, stat models.StatType, limit int) (forecast.History, error)
	GetByDate(ctx context.Context, gameDate time.Time) ([]*models.GameStat, error)
	GetByPlayerRange(ctx context.Context, playerID uuid.UUID, start, end time.Time) ([]*models.GameStat, error)
	CountByPlayer(ctx context.Context, playerID uuid.UUID) (int, error)
}

// PropLineRepository defines the interface for prop line data access
type PropLineRepository interface {
	Upsert(ctx context.Context, line *models.PropLine) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PropLine, error)
	Latest(ctx context.Context, playerID uuid.UUID, stat models.StatType, gameDate time.Time) (*models.PropLine, error)
	GetByDate(ctx context.Context, gameDate time.Time) ([]*models.PropLine, error)
	GetBySource(ctx context.Context, source string, since time.Time) ([]*models.PropLine, error)
}

// PaperBetRepository defines the interface for paper bet data access
type PaperBetRepository interface {
	Create(ctx context.Context, bet *models.PaperBet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaperBet, error)
	GetPending(ctx context.Context) ([]*models.PaperBet, error)
	GetByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.PaperBet, error)
	GetResolvedBetween(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]*models.PaperBet, error)
	// Resolve moves a pending bet to its terminal status. Returns
	// models.ErrBetNotPending when the bet was already resolved.
	Resolve(ctx context.Context, id uuid.UUID, status models.BetStatus, actual float64, profitLoss decimal.Decimal, resolvedAt time.Time) error
}

// ParlayRepository defines the interface for parlay data access
type ParlayRepository interface {
	Create(ctx context.Context, parlay *models.ParlayBet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ParlayBet, error)
	GetPending(ctx context.Context) ([]*models.ParlayBet, error)
	GetByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.ParlayBet, error)
	UpdateLeg(ctx context.Context, legID uuid.UUID, status models.BetStatus, actual float64) error
	Resolve(ctx context.Context, id uuid.UUID, status models.BetStatus, profitLoss decimal.Decimal, resolvedAt time.Time) error
}

// AccountRepository defines the interface for paper trading account access
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByName(ctx context.Context, name string) (*models.Account, error)
	GetAll(ctx context.Context) ([]*models.Account, error)
	// Debit atomically subtracts the stake, returning
	// models.ErrInsufficientFunds when the balance does not cover it.
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	// Settle credits a payout or refund and bumps the outcome counter in a
	// single atomic statement.
	Settle(ctx context.Context, id uuid.UUID, credit decimal.Decimal, status models.BetStatus) error
	// RecordResult bumps the placed/won/lost/void counters for a settled bet
	RecordResult(ctx context.Context, id uuid.UUID, status models.BetStatus) error
	RecordPlacement(ctx context.Context, id uuid.UUID) error
}

// SnapshotRepository defines the interface for bankroll snapshot access
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot *models.BankrollSnapshot) error
	GetByAccount(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]*models.BankrollSnapshot, error)
	Latest(ctx context.Context, accountID uuid.UUID) (*models.BankrollSnapshot, error)
}
