package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/repository"
)

const defaultKellyFraction = 0.25

// RiskMetrics is a point-in-time snapshot of the risk manager's state
type RiskMetrics struct {
	CurrentExposure   float64   `json:"current_exposure"`
	PendingBets       int       `json:"pending_bets"`
	DailyLoss         float64   `json:"daily_loss"`
	MaxExposure       float64   `json:"max_exposure"`
	MaxDailyLoss      float64   `json:"max_daily_loss"`
	RemainingCapacity float64   `json:"remaining_capacity"`
	LastRefreshed     time.Time `json:"last_refreshed"`
}

// RiskManager sizes stakes with fractional Kelly and enforces the account's
// exposure, daily loss and concurrency limits. Exposure and daily loss are
// cached locally and refreshed from the repositories between sweeps.
type RiskManager struct {
	cfg       config.TradingConfig
	accountID uuid.UUID
	bets      repository.PaperBetRepository
	accounts  repository.AccountRepository
	logger    *logrus.Logger

	mu                 sync.RWMutex
	currentExposure    float64
	pendingCount       int
	dailyLoss          float64
	dailyLossResetTime time.Time
	lastRefreshed      time.Time
}

// NewRiskManager creates a risk manager for one paper account
func NewRiskManager(
	cfg config.TradingConfig,
	accountID uuid.UUID,
	bets repository.PaperBetRepository,
	accounts repository.AccountRepository,
	logger *logrus.Logger,
) *RiskManager {
	return &RiskManager{
		cfg:                cfg,
		accountID:          accountID,
		bets:               bets,
		accounts:           accounts,
		logger:             logger,
		dailyLossResetTime: nextMidnightUTC(time.Now()),
	}
}

// Kelly returns the stake fraction f = (b*p - q) / b scaled by the configured
// Kelly multiplier, where b is the net profit per unit staked. Never negative.
func (rm *RiskManager) Kelly(probability, profitPerUnit float64) float64 {
	if probability <= 0 || probability >= 1 || profitPerUnit <= 0 {
		return 0
	}

	full := (profitPerUnit*probability - (1 - probability)) / profitPerUnit
	if full <= 0 {
		return 0
	}

	fraction := rm.cfg.KellyFraction
	if fraction <= 0 {
		fraction = defaultKellyFraction
	}
	return full * fraction
}

// Bankroll loads the account's current balance
func (rm *RiskManager) Bankroll(ctx context.Context) (float64, error) {
	account, err := rm.accounts.GetByID(ctx, rm.accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	return account.CurrentBalance.InexactFloat64(), nil
}

// PositionSize converts a win probability into a stake: fractional Kelly of
// the live bankroll, capped at the per-bet maximum. Stakes that land below
// the minimum are zero, meaning no bet.
func (rm *RiskManager) PositionSize(ctx context.Context, probability, profitPerUnit float64) (decimal.Decimal, error) {
	fraction := rm.Kelly(probability, profitPerUnit)
	if fraction <= 0 {
		return decimal.Zero, nil
	}

	bankroll, err := rm.Bankroll(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if bankroll <= 0 {
		return decimal.Zero, nil
	}

	stake := bankroll * fraction
	if rm.cfg.MaxStakePerBet > 0 && stake > rm.cfg.MaxStakePerBet {
		stake = rm.cfg.MaxStakePerBet
	}
	if stake < rm.cfg.MinStake {
		rm.logger.WithFields(logrus.Fields{
			"stake":     stake,
			"min_stake": rm.cfg.MinStake,
		}).Debug("Stake below minimum, skipping")
		return decimal.Zero, nil
	}

	return decimal.NewFromFloat(stake).Round(2), nil
}

// CheckLimits rejects a stake that would breach the per-bet cap, the total
// exposure cap, the daily loss cap or the concurrent bet cap
func (rm *RiskManager) CheckLimits(ctx context.Context, stake decimal.Decimal) error {
	rm.maybeResetDailyLoss(ctx)

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	stakeValue := stake.InexactFloat64()

	if stakeValue > rm.cfg.MaxStakePerBet {
		return fmt.Errorf("stake %.2f exceeds max stake per bet %.2f", stakeValue, rm.cfg.MaxStakePerBet)
	}
	if rm.currentExposure+stakeValue > rm.cfg.MaxExposure {
		return fmt.Errorf("stake %.2f would push exposure past %.2f (current %.2f)",
			stakeValue, rm.cfg.MaxExposure, rm.currentExposure)
	}
	if rm.dailyLoss >= rm.cfg.MaxDailyLoss {
		return fmt.Errorf("daily loss limit reached: %.2f >= %.2f", rm.dailyLoss, rm.cfg.MaxDailyLoss)
	}
	if rm.cfg.MaxConcurrentBets > 0 && rm.pendingCount >= rm.cfg.MaxConcurrentBets {
		return fmt.Errorf("concurrent bet limit reached: %d pending", rm.pendingCount)
	}

	return nil
}

// RefreshExposure recomputes open exposure as the sum of this account's
// pending stakes
func (rm *RiskManager) RefreshExposure(ctx context.Context) error {
	pending, err := rm.bets.GetPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending bets: %w", err)
	}

	exposure := decimal.Zero
	count := 0
	for _, bet := range pending {
		if bet.AccountID != rm.accountID {
			continue
		}
		exposure = exposure.Add(bet.Stake)
		count++
	}

	rm.mu.Lock()
	rm.currentExposure = exposure.InexactFloat64()
	rm.pendingCount = count
	rm.lastRefreshed = time.Now()
	rm.mu.Unlock()

	metrics.UpdateExposure(exposure.InexactFloat64())
	metrics.UpdatePendingBets(float64(count))

	rm.logger.WithFields(logrus.Fields{
		"exposure":     exposure.InexactFloat64(),
		"pending_bets": count,
	}).Debug("Exposure refreshed")

	return nil
}

// RefreshDailyLoss recomputes today's realized loss from resolved bets
func (rm *RiskManager) RefreshDailyLoss(ctx context.Context) error {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	resolved, err := rm.bets.GetResolvedBetween(ctx, rm.accountID, startOfDay, now)
	if err != nil {
		return fmt.Errorf("failed to load resolved bets: %w", err)
	}

	pnl := decimal.Zero
	for _, bet := range resolved {
		pnl = pnl.Add(bet.ProfitLoss)
	}

	loss := 0.0
	if pnl.IsNegative() {
		loss = pnl.Neg().InexactFloat64()
	}

	rm.mu.Lock()
	rm.dailyLoss = loss
	rm.mu.Unlock()

	metrics.UpdateDailyPnL(pnl.InexactFloat64())

	rm.logger.WithFields(logrus.Fields{
		"daily_pnl":  pnl.InexactFloat64(),
		"daily_loss": loss,
	}).Debug("Daily loss refreshed")

	return nil
}

// RecordPlacement bumps the cached exposure immediately after a bet is
// placed so limits stay honest between refreshes
func (rm *RiskManager) RecordPlacement(stake decimal.Decimal) {
	rm.mu.Lock()
	rm.currentExposure += stake.InexactFloat64()
	rm.pendingCount++
	rm.mu.Unlock()
}

// WithinLimits reports whether the account can still take on new bets
func (rm *RiskManager) WithinLimits() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if rm.currentExposure >= rm.cfg.MaxExposure {
		return false
	}
	if rm.dailyLoss >= rm.cfg.MaxDailyLoss {
		return false
	}
	return true
}

// GetRiskMetrics returns a snapshot of current risk state
func (rm *RiskManager) GetRiskMetrics() RiskMetrics {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return RiskMetrics{
		CurrentExposure:   rm.currentExposure,
		PendingBets:       rm.pendingCount,
		DailyLoss:         rm.dailyLoss,
		MaxExposure:       rm.cfg.MaxExposure,
		MaxDailyLoss:      rm.cfg.MaxDailyLoss,
		RemainingCapacity: rm.cfg.MaxExposure - rm.currentExposure,
		LastRefreshed:     rm.lastRefreshed,
	}
}

// maybeResetDailyLoss rolls the daily loss window over at midnight UTC. A
// refresh failure keeps the stale value and is only logged; the next sweep
// retries.
func (rm *RiskManager) maybeResetDailyLoss(ctx context.Context) {
	rm.mu.Lock()
	now := time.Now()
	due := now.After(rm.dailyLossResetTime)
	if due {
		rm.dailyLossResetTime = nextMidnightUTC(now)
	}
	rm.mu.Unlock()

	if !due {
		return
	}

	if err := rm.RefreshDailyLoss(ctx); err != nil {
		rm.logger.WithError(err).Warn("Failed to refresh daily loss after rollover")
	}
}

func nextMidnightUTC(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
