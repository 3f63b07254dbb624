// Package service wires data sources, the forecaster and the repositories
// into the collection, projection and paper-trading workflows.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
)

// CollectorService pulls game logs and prop lines from the configured
// providers and lands them in the database
type CollectorService struct {
	statsProviders []datasource.StatsProvider
	linesProviders []datasource.LinesProvider
	players        repository.PlayerRepository
	gameStats      repository.GameStatRepository
	propLines      repository.PropLineRepository
	normalizer     *Normalizer
	validator      *Validator
	season         string
	logger         *logrus.Logger
}

// NewCollectorService creates a new collector service
func NewCollectorService(
	statsProviders []datasource.StatsProvider,
	linesProviders []datasource.LinesProvider,
	players repository.PlayerRepository,
	gameStats repository.GameStatRepository,
	propLines repository.PropLineRepository,
	normalizer *Normalizer,
	validator *Validator,
	season string,
	logger *logrus.Logger,
) *CollectorService {
	return &CollectorService{
		statsProviders: statsProviders,
		linesProviders: linesProviders,
		players:        players,
		gameStats:      gameStats,
		propLines:      propLines,
		normalizer:     normalizer,
		validator:      validator,
		season:         season,
		logger:         logger,
	}
}

// CollectStats fetches the season game log for every active player and
// inserts the games not yet stored. Rows already present for a
// (player, game_date) pair are counted as duplicates and skipped: box scores
// are final once published.
func (s *CollectorService) CollectStats(ctx context.Context) (*CollectionMetrics, error) {
	m := NewCollectionMetrics()
	start := time.Now()

	players, err := s.players.GetActive(ctx)
	if err != nil {
		metrics.RecordCollectionRun("stats_sync", "error", time.Since(start).Seconds())
		return m, fmt.Errorf("failed to load active players: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"players": len(players),
		"season":  s.season,
	}).Info("Starting stats collection")

	for _, player := range players {
		if err := ctx.Err(); err != nil {
			m.Finish()
			metrics.RecordCollectionRun("stats_sync", "cancelled", time.Since(start).Seconds())
			return m, err
		}

		s.collectPlayerStats(ctx, player, m)
		m.RecordPlayer()
	}

	m.Finish()
	metrics.RecordCollectionRun("stats_sync", "ok", time.Since(start).Seconds())

	s.logger.WithFields(logrus.Fields{
		"players":   m.PlayersProcessed,
		"fetched":   m.StatsFetched,
		"inserted":  m.StatsInserted,
		"duplicate": m.Duplicates,
		"invalid":   m.Invalid,
		"failures":  m.Failures,
		"duration":  m.Duration,
	}).Info("Stats collection complete")

	return m, nil
}

// collectPlayerStats fetches and stores one player's game log from every provider
func (s *CollectorService) collectPlayerStats(ctx context.Context, player *models.Player, m *CollectionMetrics) {
	for _, provider := range s.statsProviders {
		entries, err := provider.FetchGameLog(ctx, player.ExternalID, s.season)
		if err != nil {
			m.RecordFailure()
			metrics.RecordDataSourceError(provider.Name(), sourceErrorCode(err))
			s.logger.WithFields(logrus.Fields{
				"player": player.Name,
				"source": provider.Name(),
			}).WithError(err).Warn("Failed to fetch game log")
			continue
		}

		m.RecordStatsFetched(len(entries))

		for _, stat := range s.normalizer.NormalizeGameLog(player.ID, entries) {
			if violations := s.validator.ValidateGameStat(stat); len(violations) > 0 {
				m.RecordInvalid()
				metrics.RecordGameStatIngested("invalid")
				s.logger.WithFields(logrus.Fields{
					"player":     player.Name,
					"game_date":  stat.GameDate.Format("2006-01-02"),
					"violations": violations,
				}).Debug("Dropping invalid game stat")
				continue
			}

			switch err := s.gameStats.Create(ctx, stat); {
			case err == nil:
				m.RecordStatInserted()
				metrics.RecordGameStatIngested("inserted")
			case errors.Is(err, models.ErrDuplicateKey):
				m.RecordDuplicate()
				metrics.RecordGameStatIngested("duplicate")
			default:
				m.RecordFailure()
				metrics.RecordGameStatIngested("error")
				s.logger.WithFields(logrus.Fields{
					"player":    player.Name,
					"game_date": stat.GameDate.Format("2006-01-02"),
				}).WithError(err).Warn("Failed to insert game stat")
			}
		}
	}
}

// CollectLines fetches the current prop board from every lines provider.
// Players seen on the board for the first time are created on the fly, and
// existing lines are replaced so the stored board always reflects the most
// recent fetch.
func (s *CollectorService) CollectLines(ctx context.Context) (*CollectionMetrics, error) {
	m := NewCollectionMetrics()
	start := time.Now()

	for _, provider := range s.linesProviders {
		if err := ctx.Err(); err != nil {
			m.Finish()
			metrics.RecordCollectionRun("lines_sync", "cancelled", time.Since(start).Seconds())
			return m, err
		}

		entries, err := provider.FetchLines(ctx)
		if err != nil {
			m.RecordFailure()
			metrics.RecordDataSourceError(provider.Name(), sourceErrorCode(err))
			s.logger.WithField("source", provider.Name()).WithError(err).Warn("Failed to fetch lines")
			continue
		}

		m.RecordLinesFetched(len(entries))

		for _, entry := range entries {
			if err := s.storeLine(ctx, entry, m); err != nil {
				m.RecordFailure()
				s.logger.WithFields(logrus.Fields{
					"player": entry.PlayerName,
					"source": entry.Source,
				}).WithError(err).Warn("Failed to store prop line")
			}
		}
	}

	m.Finish()
	metrics.RecordCollectionRun("lines_sync", "ok", time.Since(start).Seconds())

	s.logger.WithFields(logrus.Fields{
		"fetched":  m.LinesFetched,
		"upserted": m.LinesUpserted,
		"invalid":  m.Invalid,
		"failures": m.Failures,
		"duration": m.Duration,
	}).Info("Lines collection complete")

	return m, nil
}

// storeLine upserts the player behind a board entry and then the line itself
func (s *CollectorService) storeLine(ctx context.Context, entry datasource.LineEntry, m *CollectionMetrics) error {
	player := s.normalizer.NormalizePlayer(entry)
	if violations := s.validator.ValidatePlayer(player); len(violations) > 0 {
		m.RecordInvalid()
		s.logger.WithFields(logrus.Fields{
			"player":     entry.PlayerName,
			"violations": violations,
		}).Debug("Dropping line with invalid player")
		return nil
	}

	if err := s.players.Upsert(ctx, player); err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}

	line := s.normalizer.NormalizeLine(player.ID, entry)
	if violations := s.validator.ValidatePropLine(line); len(violations) > 0 {
		m.RecordInvalid()
		s.logger.WithFields(logrus.Fields{
			"player":     entry.PlayerName,
			"stat_type":  entry.StatType,
			"violations": violations,
		}).Debug("Dropping invalid prop line")
		return nil
	}

	if err := s.propLines.Upsert(ctx, line); err != nil {
		return fmt.Errorf("failed to upsert prop line: %w", err)
	}

	m.RecordLineUpserted()
	metrics.RecordPropLineIngested(entry.Source)
	return nil
}

// CollectAll runs the stats sweep followed by the lines sweep
func (s *CollectorService) CollectAll(ctx context.Context) error {
	if _, err := s.CollectStats(ctx); err != nil {
		return err
	}
	if _, err := s.CollectLines(ctx); err != nil {
		return err
	}
	return nil
}

// sourceErrorCode extracts the provider error code for metric labels
func sourceErrorCode(err error) string {
	var dsErr datasource.DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	return "unknown"
}
