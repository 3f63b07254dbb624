// Package logger provides projection-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ForecastLogger provides dedicated logging for projection operations.
type ForecastLogger struct {
	*logrus.Entry
}

// NewForecastLogger creates a new projection logger.
func NewForecastLogger(baseLogger *logrus.Logger) *ForecastLogger {
	return &ForecastLogger{
		Entry: baseLogger.WithField("component", "forecast"),
	}
}

// LogProjectionRequest logs a single projection computation.
func (fl *ForecastLogger) LogProjectionRequest(playerID, statType, method string, windowUsed int, cacheHit bool, latencyMs float64) {
	fl.WithFields(logrus.Fields{
		"player_id":   playerID,
		"stat_type":   statType,
		"method":      method,
		"window_used": windowUsed,
		"cache_hit":   cacheHit,
		"latency_ms":  latencyMs,
	}).Info("Projection request completed")
}

// LogProjectionBatch logs a batch projection run across a slate of lines.
func (fl *ForecastLogger) LogProjectionBatch(linesEvaluated, projected, skippedThinHistory int, durationMs float64) {
	fl.WithFields(logrus.Fields{
		"lines_evaluated":      linesEvaluated,
		"projected":            projected,
		"skipped_thin_history": skippedThinHistory,
		"duration_ms":          durationMs,
	}).Info("Projection batch completed")
}

// LogProjectionSkipped logs a projection that could not be produced.
func (fl *ForecastLogger) LogProjectionSkipped(playerID, statType, reason string, sampleSize int) {
	fl.WithFields(logrus.Fields{
		"player_id":   playerID,
		"stat_type":   statType,
		"reason":      reason,
		"sample_size": sampleSize,
	}).Debug("Projection skipped")
}

// LogCacheFlush logs projection cache invalidation.
func (fl *ForecastLogger) LogCacheFlush(entriesDropped int, trigger string) {
	fl.WithFields(logrus.Fields{
		"entries_dropped": entriesDropped,
		"trigger":         trigger,
	}).Info("Projection cache flushed")
}
