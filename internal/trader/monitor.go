package trader

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/service"
)

// SweepRunner runs one settlement sweep. *service.ResolutionService satisfies it.
type SweepRunner interface {
	ResolvePending(ctx context.Context) (*service.ResolutionReport, error)
}

// MonitorMetrics tracks settlement sweep statistics
type MonitorMetrics struct {
	SweepsPerformed  int64         `json:"sweeps_performed"`
	SweepErrors      int64         `json:"sweep_errors"`
	LastSweepTime    time.Time     `json:"last_sweep_time"`
	OldestPendingAge time.Duration `json:"oldest_pending_age"`
}

// Monitor periodically settles pending wagers, feeds the results into the
// circuit breaker and flags bets still pending long after their game date
type Monitor struct {
	resolver   SweepRunner
	bets       repository.PaperBetRepository
	risk       *RiskManager
	circuit    *CircuitBreaker
	accountID  uuid.UUID
	interval   time.Duration
	staleAfter time.Duration
	logger     *logrus.Logger

	mu        sync.RWMutex
	metrics   MonitorMetrics
	lastSweep time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a settlement monitor for one paper account
func NewMonitor(
	resolver SweepRunner,
	bets repository.PaperBetRepository,
	risk *RiskManager,
	circuit *CircuitBreaker,
	accountID uuid.UUID,
	interval time.Duration,
	staleAfter time.Duration,
	logger *logrus.Logger,
) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 48 * time.Hour
	}
	return &Monitor{
		resolver:   resolver,
		bets:       bets,
		risk:       risk,
		circuit:    circuit,
		accountID:  accountID,
		interval:   interval,
		staleAfter: staleAfter,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins the sweep loop and blocks until the context is cancelled or
// Stop is called
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.WithField("interval", m.interval).Info("Starting settlement monitor")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	if err := m.Sweep(ctx); err != nil {
		m.logger.WithError(err).Error("Initial settlement sweep failed")
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Settlement monitor stopped by context")
			return ctx.Err()

		case <-m.done:
			m.logger.Info("Settlement monitor stopped")
			return nil

		case <-ticker.C:
			if err := m.Sweep(ctx); err != nil {
				m.logger.WithError(err).Error("Settlement sweep failed")
			}
		}
	}
}

// Stop gracefully stops the monitor
func (m *Monitor) Stop() error {
	m.stopOnce.Do(func() { close(m.done) })
	return nil
}

// Sweep runs one settlement pass: resolve what can be resolved, feed settled
// results into the circuit breaker, refresh risk caches and flag stale bets
func (m *Monitor) Sweep(ctx context.Context) error {
	now := time.Now()

	m.mu.Lock()
	since := m.lastSweep
	m.lastSweep = now
	m.mu.Unlock()

	report, err := m.resolver.ResolvePending(ctx)
	if err != nil {
		m.mu.Lock()
		m.metrics.SweepErrors++
		m.mu.Unlock()
		m.circuit.RecordFailure(err)
		return fmt.Errorf("failed to run settlement sweep: %w", err)
	}

	// The first sweep after startup establishes a baseline; old results are
	// not replayed into the breaker.
	if !since.IsZero() && report.Total() > 0 {
		if err := m.feedCircuitBreaker(ctx, since, now); err != nil {
			m.logger.WithError(err).Warn("Failed to feed settled results into circuit breaker")
		}
	}

	if err := m.risk.RefreshExposure(ctx); err != nil {
		m.logger.WithError(err).Warn("Failed to refresh exposure after sweep")
	}
	if err := m.risk.RefreshDailyLoss(ctx); err != nil {
		m.logger.WithError(err).Warn("Failed to refresh daily loss after sweep")
	}

	oldest, err := m.checkPendingAges(ctx, now)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to check pending bet ages")
	}

	m.mu.Lock()
	m.metrics.SweepsPerformed++
	m.metrics.LastSweepTime = now
	m.metrics.OldestPendingAge = oldest
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"settled":      report.Total(),
		"bets_waiting": report.BetsWaiting,
		"errors":       report.Errors,
	}).Info("Settlement sweep completed")

	return nil
}

// GetMetrics returns a snapshot of sweep statistics
func (m *Monitor) GetMetrics() MonitorMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.metrics
}

// feedCircuitBreaker replays bets settled in the window through the breaker
// with the bankroll each settlement left behind
func (m *Monitor) feedCircuitBreaker(ctx context.Context, since, now time.Time) error {
	resolved, err := m.bets.GetResolvedBetween(ctx, m.accountID, since, now)
	if err != nil {
		return fmt.Errorf("failed to load resolved bets: %w", err)
	}
	if len(resolved) == 0 {
		return nil
	}

	balance, err := m.risk.Bankroll(ctx)
	if err != nil {
		return err
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolvedTime(resolved[i]).Before(resolvedTime(resolved[j]))
	})

	// Walk back from the current balance to the bankroll after each bet.
	afters := make([]float64, len(resolved))
	afters[len(resolved)-1] = balance
	for i := len(resolved) - 2; i >= 0; i-- {
		afters[i] = afters[i+1] - resolved[i+1].ProfitLoss.InexactFloat64()
	}

	for i, bet := range resolved {
		m.circuit.RecordBetResult(bet, afters[i])
	}

	return nil
}

// checkPendingAges warns about bets still pending long after their game and
// returns the oldest such age
func (m *Monitor) checkPendingAges(ctx context.Context, now time.Time) (time.Duration, error) {
	pending, err := m.bets.GetPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending bets: %w", err)
	}

	var oldest time.Duration
	for _, bet := range pending {
		if bet.AccountID != m.accountID {
			continue
		}
		age := now.Sub(bet.GameDate)
		if age <= 0 {
			continue
		}
		if age > oldest {
			oldest = age
		}
		if age > m.staleAfter {
			m.logger.WithFields(logrus.Fields{
				"bet_id":    bet.ID,
				"player":    bet.PlayerName,
				"game_date": bet.GameDate.Format("2006-01-02"),
				"age":       age.Round(time.Minute),
			}).Warn("Pending bet is stale, box score never arrived")
		}
	}

	return oldest, nil
}

func resolvedTime(bet *models.PaperBet) time.Time {
	if bet.ResolvedAt != nil {
		return *bet.ResolvedAt
	}
	return bet.PlacedAt
}
