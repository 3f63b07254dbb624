// Package metrics defines data collection metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collection counter vectors
var (
	CollectionRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "collection_runs_total",
		Help:      "Total number of collection runs by job and outcome",
	}, []string{"job", "status"})

	GameStatsIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "game_stats_ingested_total",
		Help:      "Total number of game stat rows ingested by outcome",
	}, []string{"outcome"})

	PropLinesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "prop_lines_ingested_total",
		Help:      "Total number of prop lines ingested by source",
	}, []string{"source"})

	DataSourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "data_source_errors_total",
		Help:      "Total number of data source failures by source and code",
	}, []string{"source", "code"})

	LinesStreamMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prop_edge",
		Name:      "lines_stream_messages_total",
		Help:      "Total number of lines stream messages by type",
	}, []string{"type"})
)

// Collection histogram and gauge metrics
var (
	CollectionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prop_edge",
		Name:      "collection_duration_seconds",
		Help:      "Duration of collection runs in seconds",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"job"})

	LinesStreamConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prop_edge",
		Name:      "lines_stream_connected",
		Help:      "Whether the lines stream is currently connected (1 or 0)",
	})
)

// RecordCollectionRun records a completed collection run.
func RecordCollectionRun(job, status string, durationSeconds float64) {
	CollectionRunsTotal.WithLabelValues(job, status).Inc()
	CollectionDuration.WithLabelValues(job).Observe(durationSeconds)
}

// RecordGameStatIngested records a game stat row outcome during collection.
func RecordGameStatIngested(outcome string) {
	GameStatsIngestedTotal.WithLabelValues(outcome).Inc()
}

// RecordPropLineIngested records a prop line upsert by source.
func RecordPropLineIngested(source string) {
	PropLinesIngestedTotal.WithLabelValues(source).Inc()
}

// RecordDataSourceError records a data source failure.
func RecordDataSourceError(source, code string) {
	DataSourceErrorsTotal.WithLabelValues(source, code).Inc()
}

// UpdateLinesStreamConnected flips the stream connectivity gauge.
func UpdateLinesStreamConnected(connected bool) {
	if connected {
		LinesStreamConnected.Set(1)
	} else {
		LinesStreamConnected.Set(0)
	}
}

// RecordLinesStreamMessage records a received stream message by type.
func RecordLinesStreamMessage(messageType string) {
	LinesStreamMessagesTotal.WithLabelValues(messageType).Inc()
}
