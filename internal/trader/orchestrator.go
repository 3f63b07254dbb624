package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
	applog "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/strategy"
)

const (
	lineQueueSize       = 256
	sweepInterval       = time.Minute
	riskRefreshInterval = time.Minute
	staleBetThreshold   = 48 * time.Hour
)

// LineFeed delivers persisted line moves. *service.LineWatcher satisfies it.
type LineFeed interface {
	Subscribe(fn service.LineSubscriber)
}

// Deps bundles the collaborators the orchestrator builds its components from
type Deps struct {
	Trading    BetPlacer
	Resolver   SweepRunner
	Projector  service.Projector
	Feed       LineFeed
	Bets       repository.PaperBetRepository
	Accounts   repository.AccountRepository
	Strategies []strategy.Strategy
}

// OrchestratorStatus represents the daemon's current state
type OrchestratorStatus struct {
	Running             bool            `json:"running"`
	AccountID           uuid.UUID       `json:"account_id"`
	Strategies          []string        `json:"strategies"`
	CircuitBreakerState string          `json:"circuit_breaker_state"`
	RiskMetrics         RiskMetrics     `json:"risk_metrics"`
	MonitorMetrics      MonitorMetrics  `json:"monitor_metrics"`
	ExecutorMetrics     ExecutorMetrics `json:"executor_metrics"`
	LastUpdate          time.Time       `json:"last_update"`
}

type lineEvent struct {
	player *models.Player
	line   *models.PropLine
}

// Orchestrator wires line moves through projection, strategy, risk and
// execution. Each persisted move is projected once; the first strategy that
// produces a decision gets the bet.
type Orchestrator struct {
	cfg        *config.Config
	accountID  uuid.UUID
	projector  service.Projector
	strategies []strategy.Strategy
	risk       *RiskManager
	executor   *Executor
	monitor    *Monitor
	circuit    *CircuitBreaker
	logger     *logrus.Logger
	slog       *applog.StrategyLogger
	audit      *applog.AuditLogger

	updates chan lineEvent
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewOrchestrator assembles the trading daemon for one paper account and
// subscribes it to the line feed
func NewOrchestrator(cfg *config.Config, accountID uuid.UUID, deps Deps, logger *logrus.Logger) (*Orchestrator, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("account id is required")
	}
	if deps.Trading == nil || deps.Resolver == nil || deps.Projector == nil || deps.Feed == nil {
		return nil, fmt.Errorf("trading, resolver, projector and feed dependencies are required")
	}
	if len(deps.Strategies) == 0 {
		return nil, fmt.Errorf("at least one strategy is required")
	}

	risk := NewRiskManager(cfg.Trading, accountID, deps.Bets, deps.Accounts, logger)
	executor := NewExecutor(deps.Trading, risk, accountID, logger)
	circuit := NewCircuitBreaker(CircuitBreakerConfigFromTrading(cfg.Trading), logger)
	monitor := NewMonitor(deps.Resolver, deps.Bets, risk, circuit, accountID, sweepInterval, staleBetThreshold, logger)

	o := &Orchestrator{
		cfg:        cfg,
		accountID:  accountID,
		projector:  deps.Projector,
		strategies: deps.Strategies,
		risk:       risk,
		executor:   executor,
		monitor:    monitor,
		circuit:    circuit,
		logger:     logger,
		slog:       applog.NewStrategyLogger(logger),
		audit:      applog.NewAuditLogger(logger),
		updates:    make(chan lineEvent, lineQueueSize),
		done:       make(chan struct{}),
	}

	circuit.RegisterShutdownCallback(func(reason string) error {
		rm := o.risk.GetRiskMetrics()
		o.audit.LogCircuitBreakerEvent("OPENED", reason, map[string]interface{}{
			"current_exposure": rm.CurrentExposure,
			"pending_bets":     rm.PendingBets,
			"daily_loss":       rm.DailyLoss,
		}, "PAUSE_TRADING")
		for _, name := range o.strategyNames() {
			o.slog.LogStrategyDeactivation(name, "circuit_breaker_trip")
		}
		return nil
	})

	deps.Feed.Subscribe(o.enqueue)

	logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"strategies": o.strategyNames(),
	}).Info("Trading orchestrator initialized")

	return o, nil
}

// Start launches the settlement monitor and the line processing loop
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator is already running")
	}
	o.running = true
	o.mu.Unlock()

	o.logger.WithFields(logrus.Fields{
		"account_id":      o.accountID,
		"strategies":      o.strategyNames(),
		"circuit_breaker": o.circuit.GetState().String(),
	}).Info("Starting trading orchestrator")

	if err := o.risk.RefreshExposure(ctx); err != nil {
		o.logger.WithError(err).Warn("Failed to load initial exposure")
	}
	if err := o.risk.RefreshDailyLoss(ctx); err != nil {
		o.logger.WithError(err).Warn("Failed to load initial daily loss")
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.monitor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.WithError(err).Error("Settlement monitor stopped")
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.processLoop(ctx)
	}()

	for _, name := range o.strategyNames() {
		o.slog.LogStrategyActivation(name, "startup")
	}

	o.logger.Info("Trading orchestrator started")

	return nil
}

// Stop drains the pipeline and waits for the loops to exit
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = false
	o.mu.Unlock()

	o.logger.Info("Stopping trading orchestrator")

	close(o.done)
	if err := o.monitor.Stop(); err != nil {
		o.logger.WithError(err).Error("Failed to stop settlement monitor")
	}
	o.wg.Wait()

	o.logger.Info("Trading orchestrator stopped")

	return nil
}

// GetStatus returns the daemon's current state
func (o *Orchestrator) GetStatus() *OrchestratorStatus {
	o.mu.RLock()
	running := o.running
	o.mu.RUnlock()

	return &OrchestratorStatus{
		Running:             running,
		AccountID:           o.accountID,
		Strategies:          o.strategyNames(),
		CircuitBreakerState: o.circuit.GetState().String(),
		RiskMetrics:         o.risk.GetRiskMetrics(),
		MonitorMetrics:      o.monitor.GetMetrics(),
		ExecutorMetrics:     o.executor.GetMetrics(),
		LastUpdate:          time.Now(),
	}
}

// enqueue pushes a line move onto the processing queue without blocking the
// stream goroutine; moves are dropped when the queue is full
func (o *Orchestrator) enqueue(player *models.Player, line *models.PropLine) {
	select {
	case o.updates <- lineEvent{player: player, line: line}:
	default:
		o.logger.WithFields(logrus.Fields{
			"player": player.Name,
			"stat":   line.StatType,
		}).Warn("Line update queue full, dropping move")
	}
}

func (o *Orchestrator) processLoop(ctx context.Context) {
	refresh := time.NewTicker(riskRefreshInterval)
	defer refresh.Stop()

	o.logger.Info("Line processing loop started")

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Line processing loop stopped by context")
			return

		case <-o.done:
			o.logger.Info("Line processing loop stopped")
			return

		case <-refresh.C:
			if err := o.risk.RefreshExposure(ctx); err != nil {
				o.logger.WithError(err).Warn("Failed to refresh exposure")
			}
			if err := o.risk.RefreshDailyLoss(ctx); err != nil {
				o.logger.WithError(err).Warn("Failed to refresh daily loss")
			}
			o.updateStrategyGauges()

		case ev := <-o.updates:
			o.handleLineMove(ctx, ev.player, ev.line)
		}
	}
}

// handleLineMove projects one persisted line move and routes the result
// through the strategies
func (o *Orchestrator) handleLineMove(ctx context.Context, player *models.Player, line *models.PropLine) {
	if o.circuit.IsOpen() {
		o.logger.WithField("player", player.Name).Debug("Skipping line move, circuit breaker open")
		return
	}
	if !o.risk.WithinLimits() {
		o.logger.WithField("player", player.Name).Debug("Skipping line move, risk limits reached")
		return
	}

	start := time.Now()
	odds := line.OddsFor(models.BetSideOver)
	proj, err := o.projector.Project(ctx, service.ProjectionRequest{
		PlayerID:     player.ID,
		StatType:     line.StatType,
		Line:         line.Line,
		GameDate:     line.GameDate,
		AmericanOdds: &odds,
	})
	metrics.RecordStrategyEvaluation(time.Since(start).Seconds())

	if errors.Is(err, service.ErrThinHistory) {
		o.logger.WithFields(logrus.Fields{
			"player": player.Name,
			"stat":   line.StatType,
		}).Debug("Skipping line move, not enough history")
		return
	}
	if err != nil {
		o.logger.WithFields(logrus.Fields{
			"player": player.Name,
			"stat":   line.StatType,
			"error":  err.Error(),
		}).Error("Projection failed for line move")
		o.circuit.RecordFailure(err)
		return
	}

	for _, strat := range o.strategies {
		decision, err := strat.EvaluateBet(proj)
		if err != nil {
			o.logger.WithFields(logrus.Fields{
				"strategy": strat.Name(),
				"player":   player.Name,
				"error":    err.Error(),
			}).Warn("Strategy evaluation failed")
			continue
		}
		if decision == nil {
			o.slog.LogLineRejected(strat.Name(), player.Name, string(line.StatType),
				"no_playable_edge", max(proj.EV.EVOver, proj.EV.EVUnder))
			continue
		}

		metrics.RecordStrategySignal()

		bet, err := o.executor.Execute(ctx, proj, decision)
		if err != nil {
			o.logger.WithFields(logrus.Fields{
				"strategy": strat.Name(),
				"player":   player.Name,
				"error":    err.Error(),
			}).Error("Failed to execute decision")
			o.circuit.RecordFailure(err)
			continue
		}
		if bet == nil {
			// Rejected by sizing or limits; let the next strategy try.
			continue
		}

		o.circuit.RecordSuccess()
		o.slog.LogStrategyDecision(strat.Name(), bet.PlayerName, string(bet.StatType),
			string(bet.Side), bet.Line, decision.Probability, decision.EV,
			bet.Stake.InexactFloat64())
		return
	}
}

func (o *Orchestrator) updateStrategyGauges() {
	pending := o.risk.GetRiskMetrics().PendingBets
	for _, strat := range o.strategies {
		metrics.UpdateStrategyActiveBets(strat.Name(), float64(pending))
	}
}

func (o *Orchestrator) strategyNames() []string {
	names := make([]string, 0, len(o.strategies))
	for _, strat := range o.strategies {
		names = append(names, strat.Name())
	}
	return names
}
