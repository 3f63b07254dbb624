package trader

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
)

func newTestMonitor(breakerCfg CircuitBreakerConfig) (*Monitor, *MockSweepRunner, *MockPaperBetRepository, *MockAccountRepository, *CircuitBreaker, uuid.UUID) {
	resolver := new(MockSweepRunner)
	bets := new(MockPaperBetRepository)
	accounts := new(MockAccountRepository)
	accountID := uuid.New()
	risk := NewRiskManager(testTradingConfig(), accountID, bets, accounts, testLogger())
	circuit := NewCircuitBreaker(breakerCfg, testLogger())
	monitor := NewMonitor(resolver, bets, risk, circuit, accountID, time.Minute, 48*time.Hour, testLogger())
	return monitor, resolver, bets, accounts, circuit, accountID
}

func resolvedBet(accountID uuid.UUID, pl float64, resolvedAt time.Time) *models.PaperBet {
	status := models.BetStatusWon
	if pl < 0 {
		status = models.BetStatusLost
	}
	return &models.PaperBet{
		ID:         uuid.New(),
		AccountID:  accountID,
		ProfitLoss: decimal.NewFromFloat(pl),
		Status:     status,
		ResolvedAt: &resolvedAt,
	}
}

func TestSweepFirstPassEstablishesBaseline(t *testing.T) {
	monitor, resolver, bets, _, circuit, accountID := newTestMonitor(testBreakerConfig())

	ctx := context.Background()
	resolver.On("ResolvePending", ctx).Return(&service.ResolutionReport{BetsWon: 1}, nil)
	bets.On("GetPending", ctx).Return([]*models.PaperBet{}, nil)
	bets.On("GetResolvedBetween", ctx, accountID, mock.Anything, mock.Anything).
		Return([]*models.PaperBet{}, nil)

	err := monitor.Sweep(ctx)
	require.NoError(t, err)

	m := monitor.GetMetrics()
	assert.Equal(t, int64(1), m.SweepsPerformed)
	assert.Equal(t, int64(0), m.SweepErrors)
	assert.Equal(t, CircuitClosed, circuit.GetState(), "old results must not replay into the breaker")
	resolver.AssertExpectations(t)
}

func TestSweepFeedsSettledResultsIntoBreaker(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.MaxConsecutiveLosses = 2
	monitor, resolver, bets, accounts, circuit, accountID := newTestMonitor(cfg)
	monitor.lastSweep = time.Now().Add(-time.Hour)

	ctx := context.Background()
	now := time.Now()
	resolved := []*models.PaperBet{
		resolvedBet(accountID, -10, now.Add(-10*time.Minute)),
		resolvedBet(accountID, -10, now.Add(-5*time.Minute)),
	}

	resolver.On("ResolvePending", ctx).Return(&service.ResolutionReport{BetsLost: 2}, nil)
	bets.On("GetResolvedBetween", ctx, accountID, mock.Anything, mock.Anything).Return(resolved, nil)
	bets.On("GetPending", ctx).Return([]*models.PaperBet{}, nil)
	accounts.On("GetByID", ctx, accountID).
		Return(&models.Account{ID: accountID, CurrentBalance: decimal.NewFromInt(980)}, nil)

	err := monitor.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, CircuitOpen, circuit.GetState(), "two straight losses should trip the breaker")
}

func TestSweepResolverFailure(t *testing.T) {
	monitor, resolver, _, _, circuit, _ := newTestMonitor(testBreakerConfig())

	ctx := context.Background()
	resolver.On("ResolvePending", ctx).Return(nil, assert.AnError)

	err := monitor.Sweep(ctx)
	assert.ErrorContains(t, err, "failed to run settlement sweep")
	assert.Equal(t, int64(1), monitor.GetMetrics().SweepErrors)
	assert.Equal(t, 1, circuit.failureCount)
}

func TestSweepFlagsStaleBets(t *testing.T) {
	monitor, resolver, bets, _, _, accountID := newTestMonitor(testBreakerConfig())

	ctx := context.Background()
	pending := []*models.PaperBet{
		{
			ID:         uuid.New(),
			AccountID:  accountID,
			PlayerName: "Jayson Tatum",
			GameDate:   time.Now().Add(-72 * time.Hour),
			Status:     models.BetStatusPending,
		},
		{
			ID:        uuid.New(),
			AccountID: uuid.New(),
			GameDate:  time.Now().Add(-96 * time.Hour),
			Status:    models.BetStatusPending,
		},
	}

	resolver.On("ResolvePending", ctx).Return(&service.ResolutionReport{BetsWaiting: 1}, nil)
	bets.On("GetPending", ctx).Return(pending, nil)
	bets.On("GetResolvedBetween", ctx, accountID, mock.Anything, mock.Anything).
		Return([]*models.PaperBet{}, nil)

	err := monitor.Sweep(ctx)
	require.NoError(t, err)

	oldest := monitor.GetMetrics().OldestPendingAge
	assert.Greater(t, oldest, 71*time.Hour, "other accounts' bets do not count")
	assert.Less(t, oldest, 73*time.Hour)
}

func TestSweepRefreshesRiskCaches(t *testing.T) {
	monitor, resolver, bets, _, _, accountID := newTestMonitor(testBreakerConfig())

	ctx := context.Background()
	pending := []*models.PaperBet{
		{ID: uuid.New(), AccountID: accountID, Stake: decimal.NewFromInt(25), Status: models.BetStatusPending, GameDate: time.Now().Add(24 * time.Hour)},
	}
	resolved := []*models.PaperBet{
		resolvedBet(accountID, -15, time.Now()),
	}

	resolver.On("ResolvePending", ctx).Return(&service.ResolutionReport{}, nil)
	bets.On("GetPending", ctx).Return(pending, nil)
	bets.On("GetResolvedBetween", ctx, accountID, mock.Anything, mock.Anything).Return(resolved, nil)

	err := monitor.Sweep(ctx)
	require.NoError(t, err)

	rm := monitor.risk.GetRiskMetrics()
	assert.Equal(t, 25.0, rm.CurrentExposure)
	assert.Equal(t, 1, rm.PendingBets)
	assert.Equal(t, 15.0, rm.DailyLoss)
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	monitor, _, _, _, _, _ := newTestMonitor(testBreakerConfig())

	assert.NoError(t, monitor.Stop())
	assert.NoError(t, monitor.Stop())
}

func TestMonitorStartStopsOnStop(t *testing.T) {
	monitor, resolver, bets, _, _, accountID := newTestMonitor(testBreakerConfig())

	ctx := context.Background()
	resolver.On("ResolvePending", ctx).Return(&service.ResolutionReport{}, nil).Maybe()
	bets.On("GetPending", ctx).Return([]*models.PaperBet{}, nil).Maybe()
	bets.On("GetResolvedBetween", ctx, accountID, mock.Anything, mock.Anything).
		Return([]*models.PaperBet{}, nil).Maybe()

	done := make(chan error, 1)
	go func() { done <- monitor.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, monitor.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
