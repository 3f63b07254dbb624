// Package logger provides strategy-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// StrategyLogger provides dedicated logging for strategy operations.
type StrategyLogger struct {
	*logrus.Entry
}

// NewStrategyLogger creates a new strategy logger.
func NewStrategyLogger(baseLogger *logrus.Logger) *StrategyLogger {
	return &StrategyLogger{
		Entry: baseLogger.WithField("component", "strategy"),
	}
}

// LogStrategyEvaluation logs a strategy evaluation sweep over the current slate.
func (sl *StrategyLogger) LogStrategyEvaluation(strategyName string, linesEvaluated, signalsGenerated int, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"strategy_name":          strategyName,
		"lines_evaluated":        linesEvaluated,
		"signals_generated":      signalsGenerated,
		"evaluation_duration_ms": durationMs,
	}).Info("Strategy evaluation completed")
}

// LogStrategyDecision logs a single over/under decision.
func (sl *StrategyLogger) LogStrategyDecision(strategyName, playerName, statType, recommendation string, line, probability, expectedValue, stakeAmount float64) {
	sl.WithFields(logrus.Fields{
		"strategy_name":  strategyName,
		"player_name":    playerName,
		"stat_type":      statType,
		"recommendation": recommendation,
		"line":           line,
		"probability":    probability,
		"expected_value": expectedValue,
		"stake_amount":   stakeAmount,
	}).Info("Strategy decision made")
}

// LogLineRejected logs a line the strategy refused to act on.
func (sl *StrategyLogger) LogLineRejected(strategyName, playerName, statType, reason string, expectedValue float64) {
	sl.WithFields(logrus.Fields{
		"strategy_name":  strategyName,
		"player_name":    playerName,
		"stat_type":      statType,
		"reason":         reason,
		"expected_value": expectedValue,
	}).Debug("Line rejected by strategy")
}

// LogStrategyActivation logs strategy activation.
func (sl *StrategyLogger) LogStrategyActivation(strategyName, trigger string) {
	sl.WithFields(logrus.Fields{
		"strategy_name": strategyName,
		"event_type":    "activation",
		"trigger":       trigger,
	}).Info("Strategy activated")
}

// LogStrategyDeactivation logs strategy deactivation.
func (sl *StrategyLogger) LogStrategyDeactivation(strategyName, reason string) {
	sl.WithFields(logrus.Fields{
		"strategy_name": strategyName,
		"event_type":    "deactivation",
		"reason":        reason,
	}).Warn("Strategy deactivated")
}
