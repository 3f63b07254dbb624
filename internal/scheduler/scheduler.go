// Package scheduler runs the recurring collection and bookkeeping jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/service"
)

// jobTimeout bounds each scheduled run so a wedged upstream cannot pile
// invocations onto later ticks.
const jobTimeout = 30 * time.Minute

// StatsCollector pulls box scores and prop lines from the enabled sources.
type StatsCollector interface {
	CollectStats(ctx context.Context) (*service.CollectionMetrics, error)
	CollectLines(ctx context.Context) (*service.CollectionMetrics, error)
}

// BetResolver settles pending wagers against recorded box scores.
type BetResolver interface {
	ResolvePending(ctx context.Context) (*service.ResolutionReport, error)
}

// Snapshotter records bankroll snapshots for every account.
type Snapshotter interface {
	SnapshotAll(ctx context.Context) error
}

// Scheduler manages the recurring jobs: stats sync, lines refresh, the
// resolution sweep and the daily bankroll snapshot. All schedules run in UTC.
type Scheduler struct {
	cron            *cron.Cron
	collector       StatsCollector
	resolver        BetResolver
	snapshots       Snapshotter
	logger          *logrus.Logger
	gracefulTimeout time.Duration

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// New creates a scheduler. Jobs must be registered before Start.
func New(collector StatsCollector, resolver BetResolver, snapshots Snapshotter, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}

	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		collector:       collector,
		resolver:        resolver,
		snapshots:       snapshots,
		logger:          logger,
		gracefulTimeout: 30 * time.Second,
		jobIDs:          make([]cron.EntryID, 0),
	}
}

// Schedule registers the full job set from the collection schedule config.
func (s *Scheduler) Schedule(cfg config.ScheduleConfig) error {
	if err := s.ScheduleStatsSync(cfg.StatsSync); err != nil {
		return err
	}
	if err := s.ScheduleLinesSync(cfg.LinesSync); err != nil {
		return err
	}
	if err := s.ScheduleResolutionSweep(cfg.ResolveSync); err != nil {
		return err
	}
	return s.ScheduleDailySnapshot(cfg.SnapshotSync)
}

// ScheduleStatsSync schedules the box score sync job
func (s *Scheduler) ScheduleStatsSync(cronExpression string) error {
	return s.addJob("stats_sync", cronExpression, func(ctx context.Context) {
		metrics, err := s.collector.CollectStats(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled stats sync failed")
			return
		}
		s.logger.WithField("metrics", metrics.String()).Info("Scheduled stats sync completed")
	})
}

// ScheduleLinesSync schedules the prop lines refresh job
func (s *Scheduler) ScheduleLinesSync(cronExpression string) error {
	return s.addJob("lines_sync", cronExpression, func(ctx context.Context) {
		metrics, err := s.collector.CollectLines(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled lines sync failed")
			return
		}
		s.logger.WithField("metrics", metrics.String()).Info("Scheduled lines sync completed")
	})
}

// ScheduleResolutionSweep schedules the bet settlement job
func (s *Scheduler) ScheduleResolutionSweep(cronExpression string) error {
	return s.addJob("resolution_sweep", cronExpression, func(ctx context.Context) {
		report, err := s.resolver.ResolvePending(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled resolution sweep failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"settled":      report.Total(),
			"bets_waiting": report.BetsWaiting,
			"errors":       report.Errors,
		}).Info("Scheduled resolution sweep completed")
	})
}

// ScheduleDailySnapshot schedules the bankroll snapshot job
func (s *Scheduler) ScheduleDailySnapshot(cronExpression string) error {
	return s.addJob("bankroll_snapshot", cronExpression, func(ctx context.Context) {
		if err := s.snapshots.SnapshotAll(ctx); err != nil {
			s.logger.WithError(err).Error("Scheduled bankroll snapshot failed")
			return
		}
		s.logger.Info("Scheduled bankroll snapshot completed")
	})
}

// addJob registers a cron entry that runs fn under a bounded context.
func (s *Scheduler) addJob(name, cronExpression string, fn func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule %s while scheduler is running", name)
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"cron": cronExpression,
	}).Info("Scheduled job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for running
// jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
	}

	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the earliest upcoming job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if !entry.Valid() {
			continue
		}
		if nextRun.IsZero() || entry.Next.Before(nextRun) {
			nextRun = entry.Next
		}
	}

	return nextRun
}

// Entries returns the scheduled cron entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
