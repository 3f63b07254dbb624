// Package metrics defines strategy-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Strategy-specific counter vectors
var (
	StrategyDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "strategy_decisions_total",
		Help:      "Total number of strategy decisions by stat type and recommendation",
	}, []string{"strategy_name", "stat_type", "recommendation"})

	EdgeRecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "edge_recommendations_total",
		Help:      "Total number of over/under recommendations by confidence bucket",
	}, []string{"recommendation", "confidence_bucket"})
)

// Strategy-specific histogram vectors
var (
	StrategyEdgeScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "strategy_edge_score",
		Help:      "Expected value per unit stake for strategy decisions",
		Buckets:   []float64{-0.2, -0.1, -0.05, 0, 0.02, 0.05, 0.1, 0.15, 0.2, 0.3},
	}, []string{"strategy_name"})
)

// Strategy-specific gauge vectors
var (
	StrategyActiveBets = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "strategy_active_bets",
		Help:      "Number of active bets for each strategy",
	}, []string{"strategy_name"})
)

// RecordStrategyDecision records a strategy decision.
func RecordStrategyDecision(strategyName, statType, recommendation string) {
	StrategyDecisionsTotal.WithLabelValues(strategyName, statType, recommendation).Inc()
}

// RecordStrategyEdge records the expected value behind a decision.
func RecordStrategyEdge(strategyName string, expectedValue float64) {
	StrategyEdgeScore.WithLabelValues(strategyName).Observe(expectedValue)
}

// UpdateStrategyActiveBets updates the active bets count for a strategy.
func UpdateStrategyActiveBets(strategyName string, count float64) {
	StrategyActiveBets.WithLabelValues(strategyName).Set(count)
}

// RecordEdgeRecommendation records an over/under recommendation.
func RecordEdgeRecommendation(recommendation, confidenceBucket string) {
	EdgeRecommendationsTotal.WithLabelValues(recommendation, confidenceBucket).Inc()
}
