package trader

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/strategy"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
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

// MockBetPlacer is a mock implementation of BetPlacer
type MockBetPlacer struct {
	mock.Mock
}

func (m *MockBetPlacer) PlaceBet(ctx context.Context, req service.PlaceBetRequest) (*models.PaperBet, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaperBet), args.Error(1)
}

// MockSweepRunner is a mock implementation of SweepRunner
type MockSweepRunner struct {
	mock.Mock
}

func (m *MockSweepRunner) ResolvePending(ctx context.Context) (*service.ResolutionReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResolutionReport), args.Error(1)
}

// MockProjector is a mock implementation of service.Projector
type MockProjector struct {
	mock.Mock
}

func (m *MockProjector) Project(ctx context.Context, req service.ProjectionRequest) (*service.Projection, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Projection), args.Error(1)
}

// stubFeed records the subscriber so tests can push line moves by hand
type stubFeed struct {
	subscribers []service.LineSubscriber
}

func (f *stubFeed) Subscribe(fn service.LineSubscriber) {
	f.subscribers = append(f.subscribers, fn)
}

// stubStrategy returns a fixed decision
type stubStrategy struct {
	name     string
	decision *strategy.BetDecision
	err      error
	calls    int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) EvaluateBet(proj *service.Projection) (*strategy.BetDecision, error) {
	s.calls++
	return s.decision, s.err
}
