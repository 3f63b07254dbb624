package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/forecast"
	applog "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
)

// Paper trading errors
var (
	ErrInvalidStake = errors.New("stake must be positive")
	ErrInvalidSide  = errors.New("side must be OVER or UNDER")
)

// PaperTradingService owns every paper-money movement: placements debit the
// account immediately, resolutions credit payouts and refunds, and each
// settled outcome lands on the account counters atomically.
type PaperTradingService struct {
	accounts  repository.AccountRepository
	bets      repository.PaperBetRepository
	parlays   repository.ParlayRepository
	snapshots repository.SnapshotRepository
	audit     *applog.AuditLogger
	logger    *logrus.Logger
}

// NewPaperTradingService creates a new paper trading service
func NewPaperTradingService(
	accounts repository.AccountRepository,
	bets repository.PaperBetRepository,
	parlays repository.ParlayRepository,
	snapshots repository.SnapshotRepository,
	logger *logrus.Logger,
) *PaperTradingService {
	return &PaperTradingService{
		accounts:  accounts,
		bets:      bets,
		parlays:   parlays,
		snapshots: snapshots,
		audit:     applog.NewAuditLogger(logger),
		logger:    logger,
	}
}

// OpenAccount creates a paper trading account with the given bankroll
func (s *PaperTradingService) OpenAccount(ctx context.Context, name string, startingBalance decimal.Decimal) (*models.Account, error) {
	if startingBalance.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("starting balance must be positive, got %s", startingBalance)
	}

	account := &models.Account{
		ID:              uuid.New(),
		Name:            name,
		StartingBalance: startingBalance,
		CurrentBalance:  startingBalance,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"name":       name,
		"bankroll":   startingBalance,
	}).Info("Opened paper trading account")

	return account, nil
}

// PlaceBetRequest carries everything needed to turn a projection into a wager
type PlaceBetRequest struct {
	AccountID  uuid.UUID
	Projection *Projection
	Side       models.BetSide
	Stake      decimal.Decimal
}

// PlaceBet debits the stake and records a pending paper bet. The potential
// payout is the stake plus its profit at the projection's odds.
func (s *PaperTradingService) PlaceBet(ctx context.Context, req PlaceBetRequest) (*models.PaperBet, error) {
	start := time.Now()

	if req.Side != models.BetSideOver && req.Side != models.BetSideUnder {
		return nil, ErrInvalidSide
	}
	if req.Stake.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidStake
	}
	if req.Projection == nil || req.Projection.Player == nil {
		return nil, fmt.Errorf("projection with a resolved player is required")
	}

	proj := req.Projection
	profit := decimal.NewFromFloat(proj.Odds.ProfitPerUnit)
	now := time.Now().UTC()

	gameDate := proj.GameDate
	if gameDate.IsZero() {
		gameDate = toUTCDate(now)
	}

	bet := &models.PaperBet{
		ID:              uuid.New(),
		AccountID:       req.AccountID,
		PlayerID:        proj.Player.ID,
		PlayerName:      proj.Player.Name,
		StatType:        proj.StatType,
		Line:            proj.Line,
		Side:            req.Side,
		Stake:           req.Stake,
		ProfitPerUnit:   proj.Odds.ProfitPerUnit,
		PotentialPayout: req.Stake.Add(req.Stake.Mul(profit)),
		Prediction:      proj.Prediction.Value,
		Probability:     proj.ProbabilityFor(req.Side),
		ExpectedValue:   proj.ExpectedValueFor(req.Side),
		Confidence:      proj.Confidence,
		StdDev:          proj.Prediction.Dispersion,
		DaysRest:        proj.DaysRest,
		GameDate:        gameDate,
		Status:          models.BetStatusPending,
		PlacedAt:        now,
	}

	if err := s.accounts.Debit(ctx, req.AccountID, req.Stake); err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	if err := s.bets.Create(ctx, bet); err != nil {
		// Put the stake back; the wager never existed.
		if refundErr := s.accounts.Credit(ctx, req.AccountID, req.Stake); refundErr != nil {
			s.logger.WithField("account_id", req.AccountID).WithError(refundErr).Error("Failed to refund stake after bet insert failure")
		}
		return nil, fmt.Errorf("failed to record bet: %w", err)
	}

	if err := s.accounts.RecordPlacement(ctx, req.AccountID); err != nil {
		s.logger.WithField("account_id", req.AccountID).WithError(err).Warn("Failed to bump placement counter")
	}

	stake, _ := req.Stake.Float64()
	s.audit.LogBetPlacement(bet.ID.String(), bet.PlayerName, string(bet.StatType), string(bet.Side), bet.Line, stake, americanOddsFor(proj.Odds), now)
	metrics.RecordBetPlaced()
	metrics.RecordBetPlacementLatency(time.Since(start).Seconds())

	return bet, nil
}

// ResolveBet settles a pending bet against the actual statistic. Landing
// exactly on the line is a push: the bet voids and the stake comes back.
func (s *PaperTradingService) ResolveBet(ctx context.Context, betID uuid.UUID, actual float64) (*models.PaperBet, error) {
	bet, err := s.bets.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bet: %w", err)
	}
	if bet.IsResolved() {
		return nil, models.ErrBetNotPending
	}

	var (
		status models.BetStatus
		credit decimal.Decimal
		pl     decimal.Decimal
	)
	switch {
	case bet.IsPush(actual):
		status = models.BetStatusVoid
		credit = bet.Stake
		pl = decimal.Zero
	case bet.WonAgainst(actual):
		status = models.BetStatusWon
		credit = bet.PotentialPayout
		pl = bet.PotentialPayout.Sub(bet.Stake)
	default:
		status = models.BetStatusLost
		credit = decimal.Zero
		pl = bet.Stake.Neg()
	}

	return s.settleBet(ctx, bet, status, actual, credit, pl)
}

// VoidBet refunds a pending bet without judging it, e.g. when the player did
// not play
func (s *PaperTradingService) VoidBet(ctx context.Context, betID uuid.UUID, reason string) (*models.PaperBet, error) {
	bet, err := s.bets.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bet: %w", err)
	}
	if bet.IsResolved() {
		return nil, models.ErrBetNotPending
	}

	s.logger.WithFields(logrus.Fields{
		"bet_id": betID,
		"reason": reason,
	}).Info("Voiding bet")

	return s.settleBet(ctx, bet, models.BetStatusVoid, 0, bet.Stake, decimal.Zero)
}

// settleBet flips the bet to its terminal status and applies the money
// movement. The pending guard inside Resolve makes concurrent sweeps safe:
// only the first settlement wins.
func (s *PaperTradingService) settleBet(ctx context.Context, bet *models.PaperBet, status models.BetStatus, actual float64, credit, pl decimal.Decimal) (*models.PaperBet, error) {
	now := time.Now().UTC()

	if err := s.bets.Resolve(ctx, bet.ID, status, actual, pl, now); err != nil {
		return nil, err
	}
	if err := s.accounts.Settle(ctx, bet.AccountID, credit, status); err != nil {
		return nil, fmt.Errorf("bet %s resolved but account settlement failed: %w", bet.ID, err)
	}

	bet.Status = status
	bet.ActualResult = &actual
	bet.ProfitLoss = pl
	bet.ResolvedAt = &now

	account, err := s.accounts.GetByID(ctx, bet.AccountID)
	if err == nil {
		balance, _ := account.CurrentBalance.Float64()
		plF, _ := pl.Float64()
		s.audit.LogBetResolution(bet.ID.String(), string(status), actual, plF, balance)
		metrics.UpdateBankroll(balance)
	}
	metrics.RecordBetResolved(string(status))

	return bet, nil
}

// PlaceParlay debits the stake and records a pending parlay with its legs
func (s *PaperTradingService) PlaceParlay(ctx context.Context, parlay *models.ParlayBet) error {
	if parlay.Stake.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidStake
	}
	if parlay.LegCount() < 2 {
		return fmt.Errorf("parlay needs at least 2 legs, got %d", parlay.LegCount())
	}

	if err := s.accounts.Debit(ctx, parlay.AccountID, parlay.Stake); err != nil {
		return fmt.Errorf("failed to debit stake: %w", err)
	}

	if err := s.parlays.Create(ctx, parlay); err != nil {
		if refundErr := s.accounts.Credit(ctx, parlay.AccountID, parlay.Stake); refundErr != nil {
			s.logger.WithField("account_id", parlay.AccountID).WithError(refundErr).Error("Failed to refund stake after parlay insert failure")
		}
		return fmt.Errorf("failed to record parlay: %w", err)
	}

	if err := s.accounts.RecordPlacement(ctx, parlay.AccountID); err != nil {
		s.logger.WithField("account_id", parlay.AccountID).WithError(err).Warn("Failed to bump placement counter")
	}

	stake, _ := parlay.Stake.Float64()
	s.audit.LogParlayPlacement(parlay.ID.String(), parlay.LegCount(), stake, parlay.PayoutMultiplier, parlay.CombinedProbability)
	metrics.RecordBetPlaced()

	return nil
}

// SettleParlay settles a pending parlay: void refunds the stake, won credits
// the full multiplied payout, lost forfeits the stake.
func (s *PaperTradingService) SettleParlay(ctx context.Context, parlayID uuid.UUID, status models.BetStatus) (*models.ParlayBet, error) {
	parlay, err := s.parlays.GetByID(ctx, parlayID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parlay: %w", err)
	}
	if parlay.IsResolved() {
		return nil, models.ErrBetNotPending
	}

	var credit, pl decimal.Decimal
	switch status {
	case models.BetStatusVoid:
		credit = parlay.Stake
		pl = decimal.Zero
	case models.BetStatusWon:
		credit = parlay.PotentialPayout()
		pl = credit.Sub(parlay.Stake)
	case models.BetStatusLost:
		credit = decimal.Zero
		pl = parlay.Stake.Neg()
	default:
		return nil, fmt.Errorf("cannot settle parlay to status %q", status)
	}

	now := time.Now().UTC()
	if err := s.parlays.Resolve(ctx, parlayID, status, pl, now); err != nil {
		return nil, err
	}
	if err := s.accounts.Settle(ctx, parlay.AccountID, credit, status); err != nil {
		return nil, fmt.Errorf("parlay %s resolved but account settlement failed: %w", parlayID, err)
	}

	parlay.Status = status
	parlay.ProfitLoss = pl
	parlay.ResolvedAt = &now

	plF, _ := pl.Float64()
	if account, err := s.accounts.GetByID(ctx, parlay.AccountID); err == nil {
		balance, _ := account.CurrentBalance.Float64()
		s.audit.LogBetResolution(parlay.ID.String(), string(status), 0, plF, balance)
		metrics.UpdateBankroll(balance)
	}
	metrics.RecordBetResolved(string(status))

	return parlay, nil
}

// TakeSnapshot records the account's current state for charting
func (s *PaperTradingService) TakeSnapshot(ctx context.Context, accountID uuid.UUID) (*models.BankrollSnapshot, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	snapshot := &models.BankrollSnapshot{
		ID:         uuid.New(),
		AccountID:  accountID,
		Balance:    account.CurrentBalance,
		TotalBets:  account.BetsPlaced,
		WonBets:    account.BetsWon,
		LostBets:   account.BetsLost,
		VoidBets:   account.BetsVoid,
		SnapshotAt: time.Now().UTC(),
	}

	if err := s.snapshots.Insert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	balance, _ := account.CurrentBalance.Float64()
	profit, _ := account.TotalProfit().Float64()
	s.audit.LogBankrollSnapshot(balance, profit, account.ROI(), account.BetsPlaced)
	metrics.UpdateBankroll(balance)

	return snapshot, nil
}

// SnapshotAll snapshots every account. One account failing does not stop the
// sweep; only a failure to list accounts aborts it.
func (s *PaperTradingService) SnapshotAll(ctx context.Context) error {
	accounts, err := s.accounts.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, account := range accounts {
		if _, err := s.TakeSnapshot(ctx, account.ID); err != nil {
			s.logger.WithError(err).WithField("account_id", account.ID).Warn("Failed to snapshot account")
		}
	}

	return nil
}

// AccountSummary aggregates the account's standing with its open exposure
type AccountSummary struct {
	Account        *models.Account `json:"account"`
	PendingBets    int             `json:"pending_bets"`
	PendingStake   decimal.Decimal `json:"pending_stake"`
	RealizedProfit decimal.Decimal `json:"realized_profit"`
	ROI            float64         `json:"roi"`
	WinRate        float64         `json:"win_rate"`
}

// Summary returns the account's standing. Realized profit adds the in-flight
// stakes back: balance alone counts open wagers as losses.
func (s *PaperTradingService) Summary(ctx context.Context, accountID uuid.UUID) (*AccountSummary, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	pending, err := s.bets.GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending bets: %w", err)
	}

	pendingStake := decimal.Zero
	pendingCount := 0
	for _, bet := range pending {
		if bet.AccountID != accountID {
			continue
		}
		pendingCount++
		pendingStake = pendingStake.Add(bet.Stake)
	}

	exposure, _ := pendingStake.Float64()
	metrics.UpdateExposure(exposure)
	metrics.UpdatePendingBets(float64(pendingCount))

	return &AccountSummary{
		Account:        account,
		PendingBets:    pendingCount,
		PendingStake:   pendingStake,
		RealizedProfit: account.TotalProfit().Add(pendingStake),
		ROI:            account.ROI(),
		WinRate:        account.WinRate(),
	}, nil
}

// StatTypePerformance aggregates settled results for one statistic
type StatTypePerformance struct {
	StatType   models.StatType `json:"stat_type"`
	Bets       int             `json:"bets"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	Voids      int             `json:"voids"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
	WinRate    float64         `json:"win_rate"`
}

// PerformanceByStatType breaks settled results down per statistic
func (s *PaperTradingService) PerformanceByStatType(ctx context.Context, accountID uuid.UUID, start, end time.Time) (map[models.StatType]*StatTypePerformance, error) {
	bets, err := s.bets.GetResolvedBetween(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolved bets: %w", err)
	}

	perf := make(map[models.StatType]*StatTypePerformance)
	for _, bet := range bets {
		p, ok := perf[bet.StatType]
		if !ok {
			p = &StatTypePerformance{StatType: bet.StatType, ProfitLoss: decimal.Zero}
			perf[bet.StatType] = p
		}

		p.Bets++
		p.ProfitLoss = p.ProfitLoss.Add(bet.ProfitLoss)
		switch bet.Status {
		case models.BetStatusWon:
			p.Wins++
		case models.BetStatusLost:
			p.Losses++
		case models.BetStatusVoid:
			p.Voids++
		}
	}

	for _, p := range perf {
		if resolved := p.Wins + p.Losses; resolved > 0 {
			p.WinRate = float64(p.Wins) / float64(resolved) * 100
		}
	}

	return perf, nil
}

// ConfidenceBucket groups settled bets by how many dispersions the prediction
// cleared the line by at placement time
type ConfidenceBucket struct {
	Label   string  `json:"label"`
	Bets    int     `json:"bets"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

// WinRateByConfidence reports whether higher-confidence edges actually win
// more often. Voided bets are excluded: they carry no signal.
func (s *PaperTradingService) WinRateByConfidence(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]ConfidenceBucket, error) {
	bets, err := s.bets.GetResolvedBetween(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolved bets: %w", err)
	}

	buckets := []ConfidenceBucket{
		{Label: "<1.0"},
		{Label: "1.0-2.0"},
		{Label: ">=2.0"},
	}

	for _, bet := range bets {
		if bet.Status == models.BetStatusVoid {
			continue
		}

		idx := 0
		switch {
		case bet.Confidence >= 2.0:
			idx = 2
		case bet.Confidence >= 1.0:
			idx = 1
		}

		buckets[idx].Bets++
		if bet.Status == models.BetStatusWon {
			buckets[idx].Wins++
		} else {
			buckets[idx].Losses++
		}
	}

	for i := range buckets {
		if buckets[i].Bets > 0 {
			buckets[i].WinRate = float64(buckets[i].Wins) / float64(buckets[i].Bets) * 100
		}
	}

	return buckets, nil
}

// americanOddsFor converts a profit-per-unit back to its American quote for
// audit lines
func americanOddsFor(odds forecast.OddsSpec) int {
	profit := odds.ProfitPerUnit
	if profit >= 1 {
		return int(math.Round(profit * 100))
	}
	if profit > 0 {
		return -int(math.Round(100 / profit))
	}
	return 0
}
