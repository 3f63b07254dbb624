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

	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/strategy"
)

func testProjection() *service.Projection {
	return &service.Projection{
		Player: &models.Player{
			ID:   uuid.New(),
			Name: "Jayson Tatum",
			Team: "BOS",
		},
		StatType: models.StatTypePoints,
		Line:     28.5,
		GameDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Prediction: forecast.Prediction{
			Value:      30.0,
			Dispersion: 4.0,
			SampleSize: 10,
		},
		EV: forecast.EVResult{
			ProbOver:       0.6,
			ProbUnder:      0.4,
			EVOver:         0.04,
			EVUnder:        -0.25,
			Recommendation: forecast.RecommendOver,
		},
		Confidence: 1.2,
		Odds:       forecast.DefaultOdds(),
		ComputedAt: time.Now().UTC(),
	}
}

func testDecision() *strategy.BetDecision {
	return &strategy.BetDecision{
		Side:                   models.BetSideOver,
		EV:                     0.04,
		Probability:            0.6,
		Confidence:             1.2,
		SuggestedStakeFraction: 0.04,
	}
}

func newTestExecutor() (*Executor, *MockBetPlacer, *RiskManager, *MockAccountRepository, uuid.UUID) {
	placer := new(MockBetPlacer)
	bets := new(MockPaperBetRepository)
	accounts := new(MockAccountRepository)
	accountID := uuid.New()
	risk := NewRiskManager(testTradingConfig(), accountID, bets, accounts, testLogger())
	executor := NewExecutor(placer, risk, accountID, testLogger())
	return executor, placer, risk, accounts, accountID
}

func TestExecutePlacesBet(t *testing.T) {
	executor, placer, risk, accounts, accountID := newTestExecutor()

	ctx := context.Background()
	proj := testProjection()
	decision := testDecision()

	accounts.On("GetByID", ctx, accountID).
		Return(&models.Account{ID: accountID, CurrentBalance: decimal.NewFromInt(1000)}, nil)

	var placed service.PlaceBetRequest
	placer.On("PlaceBet", ctx, mock.AnythingOfType("service.PlaceBetRequest")).
		Run(func(args mock.Arguments) {
			placed = args.Get(1).(service.PlaceBetRequest)
		}).
		Return(&models.PaperBet{
			ID:         uuid.New(),
			AccountID:  accountID,
			PlayerName: proj.Player.Name,
			StatType:   proj.StatType,
			Side:       models.BetSideOver,
			Line:       proj.Line,
			Stake:      decimal.NewFromInt(40),
			Status:     models.BetStatusPending,
		}, nil)

	bet, err := executor.Execute(ctx, proj, decision)
	require.NoError(t, err)
	require.NotNil(t, bet)

	assert.Equal(t, accountID, placed.AccountID)
	assert.Equal(t, models.BetSideOver, placed.Side)
	assert.Same(t, proj, placed.Projection)
	// Quarter Kelly at p=0.6 and -110 odds is 4% of the 1000 bankroll.
	assert.True(t, placed.Stake.Equal(decimal.NewFromInt(40)), "got stake %s", placed.Stake)

	m := executor.GetMetrics()
	assert.Equal(t, int64(1), m.BetsPlaced)
	assert.Equal(t, int64(0), m.BetsRejected)
	assert.Equal(t, 40.0, risk.GetRiskMetrics().CurrentExposure, "placement should bump cached exposure")

	placer.AssertExpectations(t)
}

func TestExecuteNilDecision(t *testing.T) {
	executor, placer, _, _, _ := newTestExecutor()

	bet, err := executor.Execute(context.Background(), testProjection(), nil)
	assert.NoError(t, err)
	assert.Nil(t, bet)
	placer.AssertNotCalled(t, "PlaceBet", mock.Anything, mock.Anything)
}

func TestExecuteNilProjection(t *testing.T) {
	executor, _, _, _, _ := newTestExecutor()

	_, err := executor.Execute(context.Background(), nil, testDecision())
	assert.Error(t, err)
}

func TestExecuteNoEdgeSkips(t *testing.T) {
	executor, placer, _, _, _ := newTestExecutor()

	decision := testDecision()
	decision.Probability = 0.45

	bet, err := executor.Execute(context.Background(), testProjection(), decision)
	assert.NoError(t, err)
	assert.Nil(t, bet)
	assert.Equal(t, int64(1), executor.GetMetrics().BetsRejected)
	placer.AssertNotCalled(t, "PlaceBet", mock.Anything, mock.Anything)
}

func TestExecuteRiskLimitRejection(t *testing.T) {
	executor, placer, risk, accounts, accountID := newTestExecutor()
	risk.currentExposure = 480.0

	ctx := context.Background()
	accounts.On("GetByID", ctx, accountID).
		Return(&models.Account{ID: accountID, CurrentBalance: decimal.NewFromInt(1000)}, nil)

	bet, err := executor.Execute(ctx, testProjection(), testDecision())
	assert.NoError(t, err, "limit rejections are not errors")
	assert.Nil(t, bet)
	assert.Equal(t, int64(1), executor.GetMetrics().BetsRejected)
	placer.AssertNotCalled(t, "PlaceBet", mock.Anything, mock.Anything)
}

func TestExecutePlacementFailure(t *testing.T) {
	executor, placer, _, accounts, accountID := newTestExecutor()

	ctx := context.Background()
	accounts.On("GetByID", ctx, accountID).
		Return(&models.Account{ID: accountID, CurrentBalance: decimal.NewFromInt(1000)}, nil)
	placer.On("PlaceBet", ctx, mock.AnythingOfType("service.PlaceBetRequest")).
		Return(nil, assert.AnError)

	_, err := executor.Execute(ctx, testProjection(), testDecision())
	assert.ErrorContains(t, err, "failed to place bet")
	assert.Equal(t, int64(1), executor.GetMetrics().BetsRejected)
}

func TestExecuteBatch(t *testing.T) {
	executor, placer, _, accounts, accountID := newTestExecutor()

	ctx := context.Background()
	accounts.On("GetByID", ctx, accountID).
		Return(&models.Account{ID: accountID, CurrentBalance: decimal.NewFromInt(1000)}, nil)

	good := testProjection()
	bad := testProjection()

	placer.On("PlaceBet", ctx, mock.MatchedBy(func(req service.PlaceBetRequest) bool {
		return req.Projection == good
	})).Return(&models.PaperBet{ID: uuid.New(), Status: models.BetStatusPending, Stake: decimal.NewFromInt(40)}, nil)
	placer.On("PlaceBet", ctx, mock.MatchedBy(func(req service.PlaceBetRequest) bool {
		return req.Projection == bad
	})).Return(nil, assert.AnError)

	bets, err := executor.ExecuteBatch(ctx, []Candidate{
		{Projection: good, Decision: testDecision()},
		{Projection: bad, Decision: testDecision()},
	})

	assert.Len(t, bets, 1)
	assert.ErrorContains(t, err, "1 failures")
	placer.AssertExpectations(t)
}
