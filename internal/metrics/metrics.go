// Package metrics provides centralized Prometheus metrics registry for the prop forecaster.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BetsPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "bets_placed_total",
		Help:      "Total number of paper bets placed",
	})
	BetsResolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "bets_resolved_total",
		Help:      "Total number of paper bets resolved by outcome",
	}, []string{"status"})
	ProjectionsComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "projections_computed_total",
		Help:      "Total number of projections computed by method and stat type",
	}, []string{"method", "stat_type"})
	ProjectionCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "projection_cache_hits_total",
		Help:      "Total number of projection cache hits",
	})
	ProjectionCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "projection_cache_misses_total",
		Help:      "Total number of projection cache misses",
	})
	StrategyEvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "strategy_evaluations_total",
		Help:      "Total number of strategy evaluations",
	})
	StrategySignalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "strategy_signals_total",
		Help:      "Total number of strategy signals generated",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
)

// Gauge metrics
var (
	CurrentBankroll = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "current_bankroll",
		Help:      "Current paper bankroll in currency units",
	})
	TotalExposure = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "total_exposure",
		Help:      "Total stake tied up in pending bets",
	})
	DailyPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "daily_pnl",
		Help:      "Daily profit and loss",
	})
	PendingBets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "pending_bets",
		Help:      "Number of unresolved paper bets",
	})
)

// Histogram metrics
var (
	BetPlacementLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "bet_placement_latency_seconds",
		Help:      "Latency of bet placement operations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	StrategyEvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "strategy_evaluation_duration_seconds",
		Help:      "Duration of strategy evaluation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ProjectionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "projection_duration_seconds",
		Help:      "Duration of projection computation in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(BetsPlacedTotal)
		registry.MustRegister(BetsResolvedTotal)
		registry.MustRegister(ProjectionsComputedTotal)
		registry.MustRegister(ProjectionCacheHitsTotal)
		registry.MustRegister(ProjectionCacheMissesTotal)
		registry.MustRegister(StrategyEvaluationsTotal)
		registry.MustRegister(StrategySignalsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		// Register gauge metrics
		registry.MustRegister(CurrentBankroll)
		registry.MustRegister(TotalExposure)
		registry.MustRegister(DailyPnL)
		registry.MustRegister(PendingBets)

		// Register histogram metrics
		registry.MustRegister(BetPlacementLatency)
		registry.MustRegister(StrategyEvaluationDuration)
		registry.MustRegister(ProjectionDuration)
		registry.MustRegister(BacktestDuration)

		// Register strategy metrics
		registry.MustRegister(StrategyDecisionsTotal)
		registry.MustRegister(EdgeRecommendationsTotal)
		registry.MustRegister(StrategyEdgeScore)
		registry.MustRegister(StrategyActiveBets)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestROIScore)
		registry.MustRegister(ParamSweepBestROI)

		// Register collection metrics
		registry.MustRegister(CollectionRunsTotal)
		registry.MustRegister(GameStatsIngestedTotal)
		registry.MustRegister(PropLinesIngestedTotal)
		registry.MustRegister(DataSourceErrorsTotal)
		registry.MustRegister(CollectionDuration)
		registry.MustRegister(LinesStreamConnected)
		registry.MustRegister(LinesStreamMessagesTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBetPlaced records a bet placement event.
func RecordBetPlaced() {
	BetsPlacedTotal.Inc()
}

// RecordBetResolved records a bet settlement event by outcome.
func RecordBetResolved(status string) {
	BetsResolvedTotal.WithLabelValues(status).Inc()
}

// RecordProjection records a computed projection.
func RecordProjection(method, statType string, durationSeconds float64) {
	ProjectionsComputedTotal.WithLabelValues(method, statType).Inc()
	ProjectionDuration.Observe(durationSeconds)
}

// RecordProjectionCacheHit records a projection served from cache.
func RecordProjectionCacheHit() {
	ProjectionCacheHitsTotal.Inc()
}

// RecordProjectionCacheMiss records a projection computed fresh.
func RecordProjectionCacheMiss() {
	ProjectionCacheMissesTotal.Inc()
}

// RecordStrategyEvaluation records a strategy evaluation event.
func RecordStrategyEvaluation(durationSeconds float64) {
	StrategyEvaluationsTotal.Inc()
	StrategyEvaluationDuration.Observe(durationSeconds)
}

// RecordStrategySignal records a strategy signal event.
func RecordStrategySignal() {
	StrategySignalsTotal.Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdateBankroll updates the current bankroll gauge.
func UpdateBankroll(amount float64) {
	CurrentBankroll.Set(amount)
}

// UpdateExposure updates the total exposure gauge.
func UpdateExposure(amount float64) {
	TotalExposure.Set(amount)
}

// UpdatePendingBets updates the pending bets gauge.
func UpdatePendingBets(count float64) {
	PendingBets.Set(count)
}

// UpdateDailyPnL updates the daily P&L gauge.
func UpdateDailyPnL(pnl float64) {
	DailyPnL.Set(pnl)
}

// RecordBetPlacementLatency records bet placement latency.
func RecordBetPlacementLatency(durationSeconds float64) {
	BetPlacementLatency.Observe(durationSeconds)
}

// RecordBacktestDuration records backtest duration.
func RecordBacktestDuration(durationSeconds float64) {
	BacktestDuration.Observe(durationSeconds)
}
