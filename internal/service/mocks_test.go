package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// MockPlayerRepository is a mock implementation of repository.PlayerRepository
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockPlayerRepository) Upsert(ctx context.Context, player *models.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Player, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetByName(ctx context.Context, name string) (*models.Player, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) GetActive(ctx context.Context) ([]*models.Player, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockPlayerRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGameStatRepository is a mock implementation of repository.GameStatRepository
type MockGameStatRepository struct {
	mock.Mock
}

func (m *MockGameStatRepository) Create(ctx context.Context, stat *models.GameStat) error {
	args := m.Called(ctx, stat)
	return args.Error(0)
}

func (m *MockGameStatRepository) GetByPlayerAndDate(ctx context.Context, playerID uuid.UUID, gameDate time.Time) (*models.GameStat, error) {
	args := m.Called(ctx, playerID, gameDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameStat), args.Error(1)
}

func (m *MockGameStatRepository) RecentByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]*models.GameStat, error) {
	args := m.Called(ctx, playerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameStat), args.Error(1)
}

func (m *MockGameStatRepository) RecentHistory(ctx context.Context, playerID uuid.UUID, stat models.StatType, limit int) (forecast.History, error) {
	args := m.Called(ctx, playerID, stat, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(forecast.History), args.Error(1)
}

func (m *MockGameStatRepository) GetByDate(ctx context.Context, gameDate time.Time) ([]*models.GameStat, error) {
	args := m.Called(ctx, gameDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameStat), args.Error(1)
}

func (m *MockGameStatRepository) GetByPlayerRange(ctx context.Context, playerID uuid.UUID, start, end time.Time) ([]*models.GameStat, error) {
	args := m.Called(ctx, playerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameStat), args.Error(1)
}

func (m *MockGameStatRepository) CountByPlayer(ctx context.Context, playerID uuid.UUID) (int, error) {
	args := m.Called(ctx, playerID)
	return args.Int(0), args.Error(1)
}

// MockPropLineRepository is a mock implementation of repository.PropLineRepository
type MockPropLineRepository struct {
	mock.Mock
}

func (m *MockPropLineRepository) Upsert(ctx context.Context, line *models.PropLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockPropLineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PropLine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropLine), args.Error(1)
}

func (m *MockPropLineRepository) Latest(ctx context.Context, playerID uuid.UUID, stat models.StatType, gameDate time.Time) (*models.PropLine, error) {
	args := m.Called(ctx, playerID, stat, gameDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropLine), args.Error(1)
}

func (m *MockPropLineRepository) GetByDate(ctx context.Context, gameDate time.Time) ([]*models.PropLine, error) {
	args := m.Called(ctx, gameDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PropLine), args.Error(1)
}

func (m *MockPropLineRepository) GetBySource(ctx context.Context, source string, since time.Time) ([]*models.PropLine, error) {
	args := m.Called(ctx, source, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PropLine), args.Error(1)
}

// MockPaperBetRepository is a mock implementation of repository.PaperBetRepository
type MockPaperBetRepository struct {
	mock.Mock
}

func (m *MockPaperBetRepository) Create(ctx context.Context, bet *models.PaperBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockPaperBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PaperBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaperBet), args.Error(1)
}

func (m *MockPaperBetRepository) GetPending(ctx context.Context) ([]*models.PaperBet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaperBet), args.Error(1)
}

func (m *MockPaperBetRepository) GetByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.PaperBet, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaperBet), args.Error(1)
}

func (m *MockPaperBetRepository) GetResolvedBetween(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]*models.PaperBet, error) {
	args := m.Called(ctx, accountID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaperBet), args.Error(1)
}

func (m *MockPaperBetRepository) Resolve(ctx context.Context, id uuid.UUID, status models.BetStatus, actual float64, profitLoss decimal.Decimal, resolvedAt time.Time) error {
	args := m.Called(ctx, id, status, actual, profitLoss, resolvedAt)
	return args.Error(0)
}

// MockParlayRepository is a mock implementation of repository.ParlayRepository
type MockParlayRepository struct {
	mock.Mock
}

func (m *MockParlayRepository) Create(ctx context.Context, parlay *models.ParlayBet) error {
	args := m.Called(ctx, parlay)
	return args.Error(0)
}

func (m *MockParlayRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParlayBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParlayBet), args.Error(1)
}

func (m *MockParlayRepository) GetPending(ctx context.Context) ([]*models.ParlayBet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParlayBet), args.Error(1)
}

func (m *MockParlayRepository) GetByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.ParlayBet, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParlayBet), args.Error(1)
}

func (m *MockParlayRepository) UpdateLeg(ctx context.Context, legID uuid.UUID, status models.BetStatus, actual float64) error {
	args := m.Called(ctx, legID, status, actual)
	return args.Error(0)
}

func (m *MockParlayRepository) Resolve(ctx context.Context, id uuid.UUID, status models.BetStatus, profitLoss decimal.Decimal, resolvedAt time.Time) error {
	args := m.Called(ctx, id, status, profitLoss, resolvedAt)
	return args.Error(0)
}

// MockAccountRepository is a mock implementation of repository.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Settle(ctx context.Context, id uuid.UUID, credit decimal.Decimal, status models.BetStatus) error {
	args := m.Called(ctx, id, credit, status)
	return args.Error(0)
}

func (m *MockAccountRepository) RecordResult(ctx context.Context, id uuid.UUID, status models.BetStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockAccountRepository) RecordPlacement(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSnapshotRepository is a mock implementation of repository.SnapshotRepository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Insert(ctx context.Context, snapshot *models.BankrollSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) GetByAccount(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]*models.BankrollSnapshot, error) {
	args := m.Called(ctx, accountID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BankrollSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) Latest(ctx context.Context, accountID uuid.UUID) (*models.BankrollSnapshot, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BankrollSnapshot), args.Error(1)
}

// MockStatsProvider is a mock implementation of datasource.StatsProvider
type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) FetchGameLog(ctx context.Context, externalPlayerID string, season string) ([]datasource.GameLogEntry, error) {
	args := m.Called(ctx, externalPlayerID, season)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datasource.GameLogEntry), args.Error(1)
}

func (m *MockStatsProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockStatsProvider) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockLinesProvider is a mock implementation of datasource.LinesProvider
type MockLinesProvider struct {
	mock.Mock
}

func (m *MockLinesProvider) FetchLines(ctx context.Context) ([]datasource.LineEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datasource.LineEntry), args.Error(1)
}

func (m *MockLinesProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLinesProvider) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockProjector is a mock implementation of Projector
type MockProjector struct {
	mock.Mock
}

func (m *MockProjector) Project(ctx context.Context, req ProjectionRequest) (*Projection, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Projection), args.Error(1)
}
