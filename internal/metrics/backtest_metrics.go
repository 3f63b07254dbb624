// Package metrics defines backtesting-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by method and status",
	}, []string{"method", "status"})
)

// Backtest histogram vectors
var (
	BacktestROIScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "backtest_roi_score",
		Help:      "ROI percentages from backtest runs by method",
		Buckets:   []float64{-50, -25, -10, -5, 0, 5, 10, 25, 50, 100},
	}, []string{"method"})
)

// Backtest gauge vectors
var (
	ParamSweepBestROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "param_sweep_best_roi",
		Help:      "Best ROI found by the parameter sweep for each method/window pair",
	}, []string{"method", "window"})
)

// RecordBacktestRun records a backtest run event.
// method should be one of: "historical_replay", "monte_carlo", "param_sweep"
// status should be one of: "success", "failure", "timeout"
func RecordBacktestRun(method, status string) {
	BacktestRunsTotal.WithLabelValues(method, status).Inc()
}

// RecordBacktestROI records an ROI outcome from a backtest run.
func RecordBacktestROI(method string, roi float64) {
	BacktestROIScore.WithLabelValues(method).Observe(roi)
}

// UpdateParamSweepBestROI updates the best sweep ROI for a method/window pair.
func UpdateParamSweepBestROI(method, window string, roi float64) {
	ParamSweepBestROI.WithLabelValues(method, window).Set(roi)
}
