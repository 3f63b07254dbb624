package service

import (
	"fmt"
	"sync"
	"time"
)

// CollectionMetrics tracks statistics about one collection run
type CollectionMetrics struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	PlayersProcessed int
	StatsFetched     int
	StatsInserted    int
	LinesFetched     int
	LinesUpserted    int
	Duplicates       int
	Invalid          int
	Failures         int
}

// NewCollectionMetrics creates a new metrics tracker
func NewCollectionMetrics() *CollectionMetrics {
	return &CollectionMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all counters and restarts the clock
func (m *CollectionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.PlayersProcessed = 0
	m.StatsFetched = 0
	m.StatsInserted = 0
	m.LinesFetched = 0
	m.LinesUpserted = 0
	m.Duplicates = 0
	m.Invalid = 0
	m.Failures = 0
}

// RecordPlayer increments the processed player count
func (m *CollectionMetrics) RecordPlayer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlayersProcessed++
}

// RecordStatsFetched adds to the fetched game line count
func (m *CollectionMetrics) RecordStatsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatsFetched += n
}

// RecordStatInserted increments the inserted game stat count
func (m *CollectionMetrics) RecordStatInserted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatsInserted++
}

// RecordLinesFetched adds to the fetched prop line count
func (m *CollectionMetrics) RecordLinesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesFetched += n
}

// RecordLineUpserted increments the upserted prop line count
func (m *CollectionMetrics) RecordLineUpserted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesUpserted++
}

// RecordDuplicate increments the duplicate count
func (m *CollectionMetrics) RecordDuplicate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates++
}

// RecordInvalid increments the validation failure count
func (m *CollectionMetrics) RecordInvalid() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalid++
}

// RecordFailure increments the system error count
func (m *CollectionMetrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures++
}

// Finish stamps the run duration
func (m *CollectionMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// String returns a formatted string representation of the run
func (m *CollectionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fmt.Sprintf(
		"CollectionMetrics{Players=%d, StatsFetched=%d, StatsInserted=%d, LinesFetched=%d, LinesUpserted=%d, Duplicates=%d, Invalid=%d, Failures=%d, Duration=%v}",
		m.PlayersProcessed,
		m.StatsFetched,
		m.StatsInserted,
		m.LinesFetched,
		m.LinesUpserted,
		m.Duplicates,
		m.Invalid,
		m.Failures,
		m.Duration,
	)
}
