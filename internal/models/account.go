package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a paper-trading bankroll
type Account struct {
	ID              uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	Name            string          `db:"name" json:"name" validate:"required"`
	StartingBalance decimal.Decimal `db:"starting_balance" json:"starting_balance"`
	CurrentBalance  decimal.Decimal `db:"current_balance" json:"current_balance"`
	BetsPlaced      int             `db:"bets_placed" json:"bets_placed"`
	BetsWon         int             `db:"bets_won" json:"bets_won"`
	BetsLost        int             `db:"bets_lost" json:"bets_lost"`
	BetsVoid        int             `db:"bets_void" json:"bets_void"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// TotalProfit returns the net profit since the account was opened
func (a *Account) TotalProfit() decimal.Decimal {
	return a.CurrentBalance.Sub(a.StartingBalance)
}

// ROI returns profit as a percentage of the starting balance
func (a *Account) ROI() float64 {
	if a.StartingBalance.IsZero() {
		return 0
	}
	roi, _ := a.TotalProfit().Div(a.StartingBalance).Float64()
	return roi * 100
}

// WinRate returns the share of resolved (non-void) bets that won, as a percentage
func (a *Account) WinRate() float64 {
	resolved := a.BetsWon + a.BetsLost
	if resolved == 0 {
		return 0
	}
	return float64(a.BetsWon) / float64(resolved) * 100
}

// CanAfford reports whether the balance covers the given stake
func (a *Account) CanAfford(stake decimal.Decimal) bool {
	return a.CurrentBalance.GreaterThanOrEqual(stake)
}

// BankrollSnapshot captures the account state at a point in time for charting
type BankrollSnapshot struct {
	ID         uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	AccountID  uuid.UUID       `db:"account_id" json:"account_id" validate:"required,uuid4"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	TotalBets  int             `db:"total_bets" json:"total_bets"`
	WonBets    int             `db:"won_bets" json:"won_bets"`
	LostBets   int             `db:"lost_bets" json:"lost_bets"`
	VoidBets   int             `db:"void_bets" json:"void_bets"`
	SnapshotAt time.Time       `db:"snapshot_at" json:"snapshot_at"`
}
