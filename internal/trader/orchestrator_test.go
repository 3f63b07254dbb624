package trader

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/strategy"
)

type orchestratorFixture struct {
	o         *Orchestrator
	projector *MockProjector
	placer    *MockBetPlacer
	bets      *MockPaperBetRepository
	accounts  *MockAccountRepository
	resolver  *MockSweepRunner
	feed      *stubFeed
	accountID uuid.UUID
}

func newOrchestratorFixture(t *testing.T, strategies ...strategy.Strategy) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		projector: new(MockProjector),
		placer:    new(MockBetPlacer),
		bets:      new(MockPaperBetRepository),
		accounts:  new(MockAccountRepository),
		resolver:  new(MockSweepRunner),
		feed:      &stubFeed{},
		accountID: uuid.New(),
	}

	cfg := &config.Config{Trading: testTradingConfig()}
	o, err := NewOrchestrator(cfg, f.accountID, Deps{
		Trading:    f.placer,
		Resolver:   f.resolver,
		Projector:  f.projector,
		Feed:       f.feed,
		Bets:       f.bets,
		Accounts:   f.accounts,
		Strategies: strategies,
	}, testLogger())
	require.NoError(t, err)
	f.o = o
	return f
}

func testLineMove() (*models.Player, *models.PropLine) {
	player := &models.Player{ID: uuid.New(), Name: "Jayson Tatum", Team: "BOS"}
	line := &models.PropLine{
		ID:       uuid.New(),
		PlayerID: player.ID,
		StatType: models.StatTypePoints,
		Line:     28.5,
		Source:   "stream",
		GameDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		OverOdds: -115,
	}
	return player, line
}

func TestNewOrchestratorValidation(t *testing.T) {
	cfg := &config.Config{Trading: testTradingConfig()}
	logger := testLogger()
	deps := Deps{
		Trading:    new(MockBetPlacer),
		Resolver:   new(MockSweepRunner),
		Projector:  new(MockProjector),
		Feed:       &stubFeed{},
		Bets:       new(MockPaperBetRepository),
		Accounts:   new(MockAccountRepository),
		Strategies: []strategy.Strategy{&stubStrategy{name: "test"}},
	}

	t.Run("missing account", func(t *testing.T) {
		_, err := NewOrchestrator(cfg, uuid.Nil, deps, logger)
		assert.ErrorContains(t, err, "account id")
	})

	t.Run("missing dependencies", func(t *testing.T) {
		broken := deps
		broken.Projector = nil
		_, err := NewOrchestrator(cfg, uuid.New(), broken, logger)
		assert.Error(t, err)
	})

	t.Run("no strategies", func(t *testing.T) {
		broken := deps
		broken.Strategies = nil
		_, err := NewOrchestrator(cfg, uuid.New(), broken, logger)
		assert.ErrorContains(t, err, "strategy")
	})
}

func TestNewOrchestratorSubscribesToFeed(t *testing.T) {
	f := newOrchestratorFixture(t, &stubStrategy{name: "test"})
	assert.Len(t, f.feed.subscribers, 1)
	assert.NotNil(t, f.o)
}

func TestHandleLineMovePlacesBet(t *testing.T) {
	strat := &stubStrategy{name: "min_edge", decision: testDecision()}
	f := newOrchestratorFixture(t, strat)

	ctx := context.Background()
	player, line := testLineMove()
	proj := testProjection()

	f.projector.On("Project", ctx, mock.MatchedBy(func(req service.ProjectionRequest) bool {
		return req.PlayerID == player.ID &&
			req.StatType == models.StatTypePoints &&
			req.Line == 28.5 &&
			req.AmericanOdds != nil && *req.AmericanOdds == -115
	})).Return(proj, nil)

	f.accounts.On("GetByID", ctx, f.accountID).
		Return(&models.Account{ID: f.accountID, CurrentBalance: decimal.NewFromInt(1000)}, nil)

	f.placer.On("PlaceBet", ctx, mock.AnythingOfType("service.PlaceBetRequest")).
		Return(&models.PaperBet{
			ID:         uuid.New(),
			AccountID:  f.accountID,
			PlayerName: player.Name,
			Side:       models.BetSideOver,
			Stake:      decimal.NewFromInt(40),
			Status:     models.BetStatusPending,
		}, nil)

	f.o.handleLineMove(ctx, player, line)

	assert.Equal(t, 1, strat.calls)
	assert.Equal(t, int64(1), f.o.executor.GetMetrics().BetsPlaced)
	f.projector.AssertExpectations(t)
	f.placer.AssertExpectations(t)
}

func TestHandleLineMoveSkipsWhenBreakerOpen(t *testing.T) {
	strat := &stubStrategy{name: "min_edge", decision: testDecision()}
	f := newOrchestratorFixture(t, strat)
	f.o.circuit.Trip("halt for test")

	player, line := testLineMove()
	f.o.handleLineMove(context.Background(), player, line)

	assert.Equal(t, 0, strat.calls)
	f.projector.AssertNotCalled(t, "Project", mock.Anything, mock.Anything)
}

func TestHandleLineMoveSkipsWhenOverExposed(t *testing.T) {
	strat := &stubStrategy{name: "min_edge", decision: testDecision()}
	f := newOrchestratorFixture(t, strat)
	f.o.risk.currentExposure = 500.0

	player, line := testLineMove()
	f.o.handleLineMove(context.Background(), player, line)

	f.projector.AssertNotCalled(t, "Project", mock.Anything, mock.Anything)
}

func TestHandleLineMoveThinHistory(t *testing.T) {
	strat := &stubStrategy{name: "min_edge", decision: testDecision()}
	f := newOrchestratorFixture(t, strat)

	ctx := context.Background()
	player, line := testLineMove()
	f.projector.On("Project", ctx, mock.Anything).
		Return(nil, fmt.Errorf("%w: 3 games, need 5", service.ErrThinHistory))

	f.o.handleLineMove(ctx, player, line)

	assert.Equal(t, 0, strat.calls)
	assert.Equal(t, 0, f.o.circuit.failureCount, "thin history is not an infrastructure failure")
}

func TestHandleLineMoveProjectionFailure(t *testing.T) {
	strat := &stubStrategy{name: "min_edge", decision: testDecision()}
	f := newOrchestratorFixture(t, strat)

	ctx := context.Background()
	player, line := testLineMove()
	f.projector.On("Project", ctx, mock.Anything).Return(nil, assert.AnError)

	f.o.handleLineMove(ctx, player, line)

	assert.Equal(t, 0, strat.calls)
	assert.Equal(t, 1, f.o.circuit.failureCount)
}

func TestHandleLineMoveFirstDecisionWins(t *testing.T) {
	first := &stubStrategy{name: "first", decision: testDecision()}
	second := &stubStrategy{name: "second", decision: testDecision()}
	f := newOrchestratorFixture(t, first, second)

	ctx := context.Background()
	player, line := testLineMove()

	f.projector.On("Project", ctx, mock.Anything).Return(testProjection(), nil)
	f.accounts.On("GetByID", ctx, f.accountID).
		Return(&models.Account{ID: f.accountID, CurrentBalance: decimal.NewFromInt(1000)}, nil)
	f.placer.On("PlaceBet", ctx, mock.AnythingOfType("service.PlaceBetRequest")).
		Return(&models.PaperBet{ID: uuid.New(), Stake: decimal.NewFromInt(40), Status: models.BetStatusPending}, nil).
		Once()

	f.o.handleLineMove(ctx, player, line)

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "the bet is placed by the first strategy that fires")
	f.placer.AssertExpectations(t)
}

func TestHandleLineMoveStrategyErrorContinues(t *testing.T) {
	failing := &stubStrategy{name: "failing", err: assert.AnError}
	passing := &stubStrategy{name: "passing", decision: nil}
	f := newOrchestratorFixture(t, failing, passing)

	ctx := context.Background()
	player, line := testLineMove()
	f.projector.On("Project", ctx, mock.Anything).Return(testProjection(), nil)

	f.o.handleLineMove(ctx, player, line)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, passing.calls)
	f.placer.AssertNotCalled(t, "PlaceBet", mock.Anything, mock.Anything)
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	f := newOrchestratorFixture(t, &stubStrategy{name: "test"})

	player, line := testLineMove()
	for i := 0; i < lineQueueSize+10; i++ {
		f.o.enqueue(player, line)
	}

	assert.Len(t, f.o.updates, lineQueueSize)
}

func TestOrchestratorStartStop(t *testing.T) {
	f := newOrchestratorFixture(t, &stubStrategy{name: "test"})

	ctx := context.Background()
	f.resolver.On("ResolvePending", ctx).Return(&service.ResolutionReport{}, nil).Maybe()
	f.bets.On("GetPending", ctx).Return([]*models.PaperBet{}, nil).Maybe()
	f.bets.On("GetResolvedBetween", ctx, f.accountID, mock.Anything, mock.Anything).
		Return([]*models.PaperBet{}, nil).Maybe()

	require.NoError(t, f.o.Start(ctx))
	assert.True(t, f.o.GetStatus().Running)

	assert.Error(t, f.o.Start(ctx), "second start must be rejected")

	require.NoError(t, f.o.Stop())
	assert.False(t, f.o.GetStatus().Running)
	assert.NoError(t, f.o.Stop(), "stop is idempotent")
}
