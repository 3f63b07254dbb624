package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/strategy"
)

// BetPlacer places paper bets. *service.PaperTradingService satisfies it.
type BetPlacer interface {
	PlaceBet(ctx context.Context, req service.PlaceBetRequest) (*models.PaperBet, error)
}

// ExecutorMetrics tracks execution statistics
type ExecutorMetrics struct {
	BetsPlaced           int64         `json:"bets_placed"`
	BetsRejected         int64         `json:"bets_rejected"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	LastExecutionTime    time.Time     `json:"last_execution_time"`
}

// Executor turns strategy decisions into placed paper bets, sizing each
// stake through the risk manager first
type Executor struct {
	trading   BetPlacer
	risk      *RiskManager
	accountID uuid.UUID
	logger    *logrus.Logger
	metrics   *ExecutorMetrics
	mu        sync.Mutex
}

// NewExecutor creates an executor for one paper account
func NewExecutor(trading BetPlacer, risk *RiskManager, accountID uuid.UUID, logger *logrus.Logger) *Executor {
	return &Executor{
		trading:   trading,
		risk:      risk,
		accountID: accountID,
		logger:    logger,
		metrics: &ExecutorMetrics{
			LastExecutionTime: time.Now(),
		},
	}
}

// Execute sizes and places one bet from a strategy decision. A nil decision,
// a stake below the minimum or a risk-limit rejection all result in no bet
// and a nil error; errors are reserved for placement failures.
func (e *Executor) Execute(ctx context.Context, proj *service.Projection, decision *strategy.BetDecision) (*models.PaperBet, error) {
	if decision == nil {
		return nil, nil
	}
	if proj == nil {
		return nil, fmt.Errorf("projection is required")
	}

	startTime := time.Now()

	stake, err := e.risk.PositionSize(ctx, decision.Probability, proj.Odds.ProfitPerUnit)
	if err != nil {
		return nil, fmt.Errorf("failed to size position: %w", err)
	}
	if stake.IsZero() {
		e.recordRejection()
		e.logger.WithFields(logrus.Fields{
			"player":      playerName(proj),
			"stat_type":   proj.StatType,
			"probability": decision.Probability,
		}).Debug("Decision skipped, stake below minimum")
		return nil, nil
	}

	if err := e.risk.CheckLimits(ctx, stake); err != nil {
		e.recordRejection()
		e.logger.WithFields(logrus.Fields{
			"player":    playerName(proj),
			"stat_type": proj.StatType,
			"stake":     stake,
			"reason":    err.Error(),
		}).Warn("Decision rejected by risk limits")
		return nil, nil
	}

	bet, err := e.trading.PlaceBet(ctx, service.PlaceBetRequest{
		AccountID:  e.accountID,
		Projection: proj,
		Side:       decision.Side,
		Stake:      stake,
	})
	if err != nil {
		e.recordRejection()
		return nil, fmt.Errorf("failed to place bet: %w", err)
	}

	e.risk.RecordPlacement(stake)
	e.recordExecution(time.Since(startTime))

	e.logger.WithFields(logrus.Fields{
		"bet_id":             bet.ID,
		"player":             bet.PlayerName,
		"stat_type":          bet.StatType,
		"side":               bet.Side,
		"line":               bet.Line,
		"stake":              bet.Stake,
		"expected_value":     decision.EV,
		"probability":        decision.Probability,
		"suggested_fraction": decision.SuggestedStakeFraction,
	}).Info("Paper bet placed")

	return bet, nil
}

// ExecuteBatch runs a slice of decision/projection pairs, continuing past
// individual failures
func (e *Executor) ExecuteBatch(ctx context.Context, candidates []Candidate) ([]*models.PaperBet, error) {
	bets := make([]*models.PaperBet, 0, len(candidates))
	failures := 0

	for _, c := range candidates {
		bet, err := e.Execute(ctx, c.Projection, c.Decision)
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"player": playerName(c.Projection),
				"error":  err.Error(),
			}).Warn("Failed to execute decision in batch")
			failures++
			continue
		}
		if bet != nil {
			bets = append(bets, bet)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"candidates":  len(candidates),
		"bets_placed": len(bets),
		"failures":    failures,
	}).Info("Batch execution completed")

	if failures > 0 {
		return bets, fmt.Errorf("batch execution completed with %d failures", failures)
	}
	return bets, nil
}

// Candidate pairs a projection with the strategy decision derived from it
type Candidate struct {
	Projection *service.Projection
	Decision   *strategy.BetDecision
}

// GetMetrics returns a copy of execution statistics
func (e *Executor) GetMetrics() ExecutorMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	return *e.metrics
}

func (e *Executor) recordRejection() {
	e.mu.Lock()
	e.metrics.BetsRejected++
	e.mu.Unlock()
}

func (e *Executor) recordExecution(duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.BetsPlaced++
	if e.metrics.AverageExecutionTime == 0 {
		e.metrics.AverageExecutionTime = duration
	} else {
		e.metrics.AverageExecutionTime = (e.metrics.AverageExecutionTime + duration) / 2
	}
	e.metrics.LastExecutionTime = time.Now()
}

func playerName(proj *service.Projection) string {
	if proj == nil || proj.Player == nil {
		return ""
	}
	return proj.Player.Name
}
