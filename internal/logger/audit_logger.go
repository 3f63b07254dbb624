// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogBetPlacement logs a paper bet placement event.
func (al *AuditLogger) LogBetPlacement(betID, playerName, statType, side string, line, stake float64, americanOdds int, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"bet_id":        betID,
		"player_name":   playerName,
		"stat_type":     statType,
		"side":          side,
		"line":          line,
		"stake":         stake,
		"american_odds": americanOdds,
		"timestamp":     timestamp.Unix(),
	}).Info("Bet placement recorded")
}

// LogBetResolution logs a bet settling against the actual result.
func (al *AuditLogger) LogBetResolution(betID, status string, actualResult, profitLoss, newBalance float64) {
	al.WithFields(logrus.Fields{
		"bet_id":        betID,
		"status":        status,
		"actual_result": actualResult,
		"profit_loss":   profitLoss,
		"new_balance":   newBalance,
	}).Info("Bet resolution recorded")
}

// LogParlayPlacement logs a parlay placement event.
func (al *AuditLogger) LogParlayPlacement(parlayID string, legCount int, stake, payoutMultiplier, combinedProbability float64) {
	al.WithFields(logrus.Fields{
		"parlay_id":            parlayID,
		"leg_count":            legCount,
		"stake":                stake,
		"payout_multiplier":    payoutMultiplier,
		"combined_probability": combinedProbability,
	}).Info("Parlay placement recorded")
}

// LogBankrollSnapshot logs a point-in-time bankroll record.
func (al *AuditLogger) LogBankrollSnapshot(balance, totalProfitLoss, roi float64, betsPlaced int) {
	al.WithFields(logrus.Fields{
		"balance":           balance,
		"total_profit_loss": totalProfitLoss,
		"roi":               roi,
		"bets_placed":       betsPlaced,
	}).Info("Bankroll snapshot recorded")
}

// LogCircuitBreakerEvent logs circuit breaker events.
func (al *AuditLogger) LogCircuitBreakerEvent(eventType, reason string, metricsSnapshot map[string]interface{}, actionTaken string) {
	al.WithFields(logrus.Fields{
		"event_type":       eventType,
		"reason":           reason,
		"metrics_snapshot": metricsSnapshot,
		"action_taken":     actionTaken,
	}).Warn("Circuit breaker event recorded")
}

// LogEmergencyShutdown logs emergency shutdown events with system state.
func (al *AuditLogger) LogEmergencyShutdown(reason string, systemState map[string]interface{}) {
	al.WithFields(logrus.Fields{
		"reason":       reason,
		"system_state": systemState,
	}).Fatal("Emergency shutdown initiated")
}
