package trader

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed means betting is active
	CircuitClosed CircuitState = iota
	// CircuitHalfOpen means betting is resuming after cooldown
	CircuitHalfOpen
	// CircuitOpen means betting is halted
	CircuitOpen
)

// String returns string representation of circuit state
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	case CircuitOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig defines circuit breaker thresholds
type CircuitBreakerConfig struct {
	MaxConsecutiveLosses int           `json:"max_consecutive_losses"`
	MaxDrawdownPercent   float64       `json:"max_drawdown_percent"`
	MaxFailureCount      int           `json:"max_failure_count"`
	FailureTimeWindow    time.Duration `json:"failure_time_window"`
	CooldownPeriod       time.Duration `json:"cooldown_period"`
}

// CircuitBreakerConfigFromTrading derives breaker thresholds from the trading
// config, with operational defaults for the failure window and cooldown
func CircuitBreakerConfigFromTrading(cfg config.TradingConfig) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxConsecutiveLosses: cfg.MaxConsecutiveLosses,
		MaxDrawdownPercent:   cfg.MaxDrawdownPercent,
		MaxFailureCount:      10,
		FailureTimeWindow:    5 * time.Minute,
		CooldownPeriod:       30 * time.Minute,
	}
}

// ShutdownCallback is called when the breaker trips
type ShutdownCallback func(reason string) error

// CircuitBreaker halts betting after a loss streak, a bankroll drawdown or a
// burst of infrastructure failures. After the cooldown it moves to half-open
// and the next recorded success closes it again.
type CircuitBreaker struct {
	config            CircuitBreakerConfig
	state             CircuitState
	failureCount      int
	lastFailureTime   time.Time
	consecutiveLosses int
	drawdown          float64
	peakBankroll      float64
	openedAt          time.Time
	callbacks         []ShutdownCallback
	logger            *logrus.Logger
	mu                sync.Mutex
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		config:    config,
		state:     CircuitClosed,
		logger:    logger,
		callbacks: make([]ShutdownCallback, 0),
	}
}

// RecordBetResult tracks settled bet outcomes for loss streaks and drawdown.
// Voided bets leave the streak untouched but still update the peak bankroll.
func (cb *CircuitBreaker) RecordBetResult(bet *models.PaperBet, currentBankroll float64) {
	cb.mu.Lock()

	if currentBankroll > cb.peakBankroll {
		cb.peakBankroll = currentBankroll
	}
	if cb.peakBankroll > 0 {
		cb.drawdown = (cb.peakBankroll - currentBankroll) / cb.peakBankroll
	}

	switch {
	case bet.ProfitLoss.IsNegative():
		cb.consecutiveLosses++
		cb.logger.WithFields(logrus.Fields{
			"consecutive_losses": cb.consecutiveLosses,
			"max_allowed":        cb.config.MaxConsecutiveLosses,
			"drawdown":           cb.drawdown,
			"max_drawdown":       cb.config.MaxDrawdownPercent,
		}).Warn("Consecutive loss recorded")
	case bet.ProfitLoss.IsPositive():
		cb.consecutiveLosses = 0
	}

	var reason string
	if cb.config.MaxConsecutiveLosses > 0 && cb.consecutiveLosses >= cb.config.MaxConsecutiveLosses {
		reason = fmt.Sprintf("max consecutive losses exceeded (%d >= %d)",
			cb.consecutiveLosses, cb.config.MaxConsecutiveLosses)
	} else if cb.config.MaxDrawdownPercent > 0 && cb.drawdown >= cb.config.MaxDrawdownPercent {
		reason = fmt.Sprintf("max drawdown exceeded (%.2f%% >= %.2f%%)",
			cb.drawdown*100, cb.config.MaxDrawdownPercent*100)
	}

	var callbacks []ShutdownCallback
	if reason != "" {
		callbacks = cb.openLocked(reason)
	}
	cb.mu.Unlock()

	cb.runCallbacks(callbacks, reason)
}

// RecordFailure counts infrastructure failures within a sliding window and
// trips the breaker when the burst threshold is reached
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()

	now := time.Now()
	if now.Sub(cb.lastFailureTime) > cb.config.FailureTimeWindow {
		cb.failureCount = 0
	}
	cb.failureCount++
	cb.lastFailureTime = now

	cb.logger.WithFields(logrus.Fields{
		"failure_count": cb.failureCount,
		"max_allowed":   cb.config.MaxFailureCount,
		"time_window":   cb.config.FailureTimeWindow,
		"error":         err.Error(),
	}).Warn("Failure recorded")

	var reason string
	if cb.config.MaxFailureCount > 0 && cb.failureCount >= cb.config.MaxFailureCount {
		reason = fmt.Sprintf("max failure count exceeded (%d >= %d) within %v",
			cb.failureCount, cb.config.MaxFailureCount, cb.config.FailureTimeWindow)
	}

	var callbacks []ShutdownCallback
	if reason != "" {
		callbacks = cb.openLocked(reason)
	}
	cb.mu.Unlock()

	cb.runCallbacks(callbacks, reason)
}

// RecordSuccess resets the failure count and closes a half-open circuit
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.consecutiveLosses = 0
		cb.logger.Info("Circuit breaker closed after successful probe")
	}
}

// IsOpen returns true if the circuit is open (betting halted). An open
// circuit past its cooldown moves to half-open, letting one probe through.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && time.Since(cb.openedAt) > cb.config.CooldownPeriod {
		cb.state = CircuitHalfOpen
		cb.logger.Info("Circuit breaker entering half-open state after cooldown")
	}

	return cb.state == CircuitOpen
}

// GetState returns current circuit state
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Reset manually closes the circuit and clears all counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = CircuitClosed
	cb.failureCount = 0
	cb.consecutiveLosses = 0

	cb.logger.WithFields(logrus.Fields{
		"old_state": oldState.String(),
		"new_state": cb.state.String(),
	}).Info("Circuit breaker manually reset")
}

// RegisterShutdownCallback registers a callback invoked when the breaker trips
func (cb *CircuitBreaker) RegisterShutdownCallback(callback ShutdownCallback) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.callbacks = append(cb.callbacks, callback)
}

// Trip opens the circuit immediately
func (cb *CircuitBreaker) Trip(reason string) {
	cb.mu.Lock()
	callbacks := cb.openLocked(reason)
	cb.mu.Unlock()

	cb.runCallbacks(callbacks, reason)
}

// openLocked transitions to open and returns the callbacks to run once the
// lock is released. Returns nil when the circuit is already open.
func (cb *CircuitBreaker) openLocked(reason string) []ShutdownCallback {
	if cb.state == CircuitOpen {
		cb.logger.Warn("Circuit breaker already open, ignoring duplicate trip")
		return nil
	}

	oldState := cb.state
	cb.state = CircuitOpen
	cb.openedAt = time.Now()
	metrics.RecordCircuitBreakerTrip()

	cb.logger.WithFields(logrus.Fields{
		"old_state":          oldState.String(),
		"new_state":          cb.state.String(),
		"reason":             reason,
		"consecutive_losses": cb.consecutiveLosses,
		"drawdown":           cb.drawdown,
		"failure_count":      cb.failureCount,
		"cooldown_period":    cb.config.CooldownPeriod,
	}).Error("Circuit breaker tripped, betting halted")

	callbacks := make([]ShutdownCallback, len(cb.callbacks))
	copy(callbacks, cb.callbacks)
	return callbacks
}

// runCallbacks executes trip callbacks outside the lock so a callback may
// safely query the breaker
func (cb *CircuitBreaker) runCallbacks(callbacks []ShutdownCallback, reason string) {
	for i, callback := range callbacks {
		if err := callback(reason); err != nil {
			cb.logger.WithFields(logrus.Fields{
				"callback_index": i,
				"error":          err.Error(),
			}).Error("Shutdown callback failed")
		}
	}
}
