package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/models"
)

func newTestResolver() (*ResolutionService, *MockAccountRepository, *MockPaperBetRepository, *MockParlayRepository, *MockGameStatRepository) {
	accounts := new(MockAccountRepository)
	bets := new(MockPaperBetRepository)
	parlays := new(MockParlayRepository)
	snapshots := new(MockSnapshotRepository)
	stats := new(MockGameStatRepository)
	trading := NewPaperTradingService(accounts, bets, parlays, snapshots, testLogger())
	svc := NewResolutionService(bets, parlays, stats, trading, testLogger())
	return svc, accounts, bets, parlays, stats
}

func boxScore(playerID uuid.UUID, gameDate time.Time, points, minutes float64) *models.GameStat {
	return &models.GameStat{
		ID:       uuid.New(),
		PlayerID: playerID,
		GameDate: gameDate,
		Opponent: "NYK",
		Minutes:  minutes,
		Points:   points,
		Rebounds: 8,
		Assists:  5,
		Threes:   3,
	}
}

// expectBetSettlement wires the full settlement chain for one bet
func expectBetSettlement(accounts *MockAccountRepository, bets *MockPaperBetRepository, bet *models.PaperBet, status models.BetStatus, credit decimal.Decimal) {
	bets.On("GetByID", mock.Anything, bet.ID).Return(bet, nil)
	bets.On("Resolve", mock.Anything, bet.ID, status, mock.AnythingOfType("float64"), mock.Anything, mock.AnythingOfType("time.Time")).Return(nil)
	accounts.On("Settle", mock.Anything, bet.AccountID, decimalEq(credit), status).Return(nil)
	accounts.On("GetByID", mock.Anything, bet.AccountID).Return(&models.Account{
		ID:              bet.AccountID,
		StartingBalance: decimal.NewFromInt(1000),
		CurrentBalance:  decimal.NewFromInt(1000),
	}, nil)
}

// TestResolvePendingSettlesBets tests a sweep that wins one bet, loses one
// and leaves one waiting for its box score
func TestResolvePendingSettlesBets(t *testing.T) {
	svc, accounts, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	gameDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	winner := pendingBet(uuid.New(), models.BetSideOver, 25.5)
	winner.GameDate = gameDate
	loser := pendingBet(uuid.New(), models.BetSideOver, 25.5)
	loser.GameDate = gameDate
	waiting := pendingBet(uuid.New(), models.BetSideOver, 25.5)
	waiting.GameDate = gameDate

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{winner, loser, waiting}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{}, nil)

	stats.On("GetByPlayerAndDate", mock.Anything, winner.PlayerID, gameDate).Return(boxScore(winner.PlayerID, gameDate, 30, 36), nil)
	stats.On("GetByPlayerAndDate", mock.Anything, loser.PlayerID, gameDate).Return(boxScore(loser.PlayerID, gameDate, 20, 34), nil)
	stats.On("GetByPlayerAndDate", mock.Anything, waiting.PlayerID, gameDate).Return(nil, models.ErrNotFound)

	expectBetSettlement(accounts, bets, winner, models.BetStatusWon, winner.PotentialPayout)
	expectBetSettlement(accounts, bets, loser, models.BetStatusLost, decimal.Zero)

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.BetsWon)
	assert.Equal(t, 1, report.BetsLost)
	assert.Equal(t, 1, report.BetsWaiting)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 2, report.Total())

	bets.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

// TestResolvePendingVoidsDNP tests that a zero-minute box score voids the bet
func TestResolvePendingVoidsDNP(t *testing.T) {
	svc, accounts, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	gameDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	bet := pendingBet(uuid.New(), models.BetSideOver, 25.5)
	bet.GameDate = gameDate

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{bet}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{}, nil)
	stats.On("GetByPlayerAndDate", mock.Anything, bet.PlayerID, gameDate).Return(boxScore(bet.PlayerID, gameDate, 0, 0), nil)

	expectBetSettlement(accounts, bets, bet, models.BetStatusVoid, bet.Stake)

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.BetsVoided)
	assert.Equal(t, 0, report.BetsWon)
	assert.Equal(t, 0, report.BetsLost)
}

func TestResolvePendingCountsLookupErrors(t *testing.T) {
	svc, _, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	bet := pendingBet(uuid.New(), models.BetSideOver, 25.5)
	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{bet}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{}, nil)
	stats.On("GetByPlayerAndDate", mock.Anything, bet.PlayerID, mock.Anything).Return(nil, errors.New("connection refused"))

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 0, report.Total())
}

func TestResolvePendingLoadFailure(t *testing.T) {
	svc, _, bets, _, _ := newTestResolver()
	ctx := context.Background()

	bets.On("GetPending", mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.ResolvePending(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load pending bets")
}

func TestResolvePendingStopsOnCancel(t *testing.T) {
	svc, _, bets, _, stats := newTestResolver()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bet := pendingBet(uuid.New(), models.BetSideOver, 25.5)
	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{bet}, nil)

	_, err := svc.ResolvePending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	stats.AssertNotCalled(t, "GetByPlayerAndDate", mock.Anything, mock.Anything, mock.Anything)
}

// expectParlaySettlement wires the settlement chain for one parlay
func expectParlaySettlement(accounts *MockAccountRepository, parlays *MockParlayRepository, parlay *models.ParlayBet, status models.BetStatus, credit, pl decimal.Decimal) {
	parlays.On("GetByID", mock.Anything, parlay.ID).Return(parlay, nil)
	parlays.On("Resolve", mock.Anything, parlay.ID, status, decimalEq(pl), mock.AnythingOfType("time.Time")).Return(nil)
	accounts.On("Settle", mock.Anything, parlay.AccountID, decimalEq(credit), status).Return(nil)
	accounts.On("GetByID", mock.Anything, parlay.AccountID).Return(&models.Account{
		ID:              parlay.AccountID,
		StartingBalance: decimal.NewFromInt(1000),
		CurrentBalance:  decimal.NewFromInt(1000),
	}, nil)
}

// TestResolveParlayAllLegsWon tests that a ticket pays out once every leg
// beats its line
func TestResolveParlayAllLegsWon(t *testing.T) {
	svc, accounts, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	parlay := testParlay(uuid.New(), 2)
	gameDate := parlay.Legs[0].GameDate

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{parlay}, nil)

	// Both legs are OVER 20.5 and both players clear it.
	for _, leg := range parlay.Legs {
		stats.On("GetByPlayerAndDate", mock.Anything, leg.PlayerID, gameDate).Return(boxScore(leg.PlayerID, gameDate, 25, 35), nil)
		parlays.On("UpdateLeg", mock.Anything, leg.ID, models.BetStatusWon, 25.0).Return(nil)
	}

	// 10 at 3x: credit 30, profit 20.
	expectParlaySettlement(accounts, parlays, parlay, models.BetStatusWon, decimal.NewFromInt(30), decimal.NewFromInt(20))

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParlaysWon)
	assert.Equal(t, 0, report.ParlaysWaiting)
	parlays.AssertExpectations(t)
}

// TestResolveParlayVoidShortCircuits tests that one voided leg voids the
// ticket even while another leg is still waiting on its box score
func TestResolveParlayVoidShortCircuits(t *testing.T) {
	svc, accounts, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	parlay := testParlay(uuid.New(), 2)
	gameDate := parlay.Legs[0].GameDate

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{parlay}, nil)

	// First player did not play; second box score has not arrived.
	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[0].PlayerID, gameDate).Return(boxScore(parlay.Legs[0].PlayerID, gameDate, 0, 0), nil)
	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[1].PlayerID, gameDate).Return(nil, models.ErrNotFound)
	parlays.On("UpdateLeg", mock.Anything, parlay.Legs[0].ID, models.BetStatusVoid, 0.0).Return(nil)

	expectParlaySettlement(accounts, parlays, parlay, models.BetStatusVoid, parlay.Stake, decimal.Zero)

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParlaysVoided)
	assert.Equal(t, 0, report.ParlaysWaiting)
}

// TestResolveParlayWaitsForAllLegs tests that a won leg alone does not settle
// the ticket while another leg is ungraded
func TestResolveParlayWaitsForAllLegs(t *testing.T) {
	svc, _, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	parlay := testParlay(uuid.New(), 2)
	gameDate := parlay.Legs[0].GameDate

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{parlay}, nil)

	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[0].PlayerID, gameDate).Return(boxScore(parlay.Legs[0].PlayerID, gameDate, 25, 35), nil)
	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[1].PlayerID, gameDate).Return(nil, models.ErrNotFound)
	parlays.On("UpdateLeg", mock.Anything, parlay.Legs[0].ID, models.BetStatusWon, 25.0).Return(nil)

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParlaysWaiting)
	assert.Equal(t, 0, report.Total())
	parlays.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestResolveParlayLostAfterAllGraded tests that a lost leg settles the
// ticket only once every leg has a grade
func TestResolveParlayLostAfterAllGraded(t *testing.T) {
	svc, accounts, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	parlay := testParlay(uuid.New(), 2)
	gameDate := parlay.Legs[0].GameDate

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{parlay}, nil)

	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[0].PlayerID, gameDate).Return(boxScore(parlay.Legs[0].PlayerID, gameDate, 25, 35), nil)
	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[1].PlayerID, gameDate).Return(boxScore(parlay.Legs[1].PlayerID, gameDate, 15, 33), nil)
	parlays.On("UpdateLeg", mock.Anything, parlay.Legs[0].ID, models.BetStatusWon, 25.0).Return(nil)
	parlays.On("UpdateLeg", mock.Anything, parlay.Legs[1].ID, models.BetStatusLost, 15.0).Return(nil)

	expectParlaySettlement(accounts, parlays, parlay, models.BetStatusLost, decimal.Zero, decimal.NewFromInt(-10))

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParlaysLost)
	assert.Equal(t, 0, report.ParlaysWon)
}

// TestResolveParlayPushVoidsLeg tests that landing exactly on the line voids
// the leg, and with it the ticket
func TestResolveParlayPushVoidsLeg(t *testing.T) {
	svc, accounts, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	parlay := testParlay(uuid.New(), 2)
	gameDate := parlay.Legs[0].GameDate

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{parlay}, nil)

	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[0].PlayerID, gameDate).Return(boxScore(parlay.Legs[0].PlayerID, gameDate, 25, 35), nil)
	// Legs are OVER 20.5; a fractional line cannot normally push, so grade
	// against a whole-number line instead.
	parlay.Legs[1].Line = 20
	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[1].PlayerID, gameDate).Return(boxScore(parlay.Legs[1].PlayerID, gameDate, 20, 35), nil)

	parlays.On("UpdateLeg", mock.Anything, parlay.Legs[0].ID, models.BetStatusWon, 25.0).Return(nil)
	parlays.On("UpdateLeg", mock.Anything, parlay.Legs[1].ID, models.BetStatusVoid, 20.0).Return(nil)

	expectParlaySettlement(accounts, parlays, parlay, models.BetStatusVoid, parlay.Stake, decimal.Zero)

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParlaysVoided)
}

// TestResolveParlaySkipsAlreadyGradedLegs tests that a leg graded in an
// earlier sweep is not re-fetched
func TestResolveParlaySkipsAlreadyGradedLegs(t *testing.T) {
	svc, accounts, bets, parlays, stats := newTestResolver()
	ctx := context.Background()

	parlay := testParlay(uuid.New(), 2)
	gameDate := parlay.Legs[0].GameDate
	parlay.Legs[0].Status = models.BetStatusWon

	bets.On("GetPending", mock.Anything).Return([]*models.PaperBet{}, nil)
	parlays.On("GetPending", mock.Anything).Return([]*models.ParlayBet{parlay}, nil)

	stats.On("GetByPlayerAndDate", mock.Anything, parlay.Legs[1].PlayerID, gameDate).Return(boxScore(parlay.Legs[1].PlayerID, gameDate, 25, 35), nil)
	parlays.On("UpdateLeg", mock.Anything, parlay.Legs[1].ID, models.BetStatusWon, 25.0).Return(nil)

	expectParlaySettlement(accounts, parlays, parlay, models.BetStatusWon, decimal.NewFromInt(30), decimal.NewFromInt(20))

	report, err := svc.ResolvePending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParlaysWon)
	stats.AssertNotCalled(t, "GetByPlayerAndDate", mock.Anything, parlay.Legs[0].PlayerID, mock.Anything)
}
