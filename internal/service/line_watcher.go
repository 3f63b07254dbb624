package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
)

// LineSubscriber is notified after a streamed line move has been persisted
type LineSubscriber func(player *models.Player, line *models.PropLine)

// LineWatcher bridges the websocket feed into storage: every pushed line move
// is matched to a known player, upserted, and fanned out to subscribers.
// Moves for players we have never ingested are dropped.
type LineWatcher struct {
	stream     *datasource.LinesStreamClient
	players    repository.PlayerRepository
	propLines  repository.PropLineRepository
	normalizer *Normalizer
	logger     *logrus.Logger

	mu          sync.RWMutex
	subscribers []LineSubscriber
	ctx         context.Context
}

// NewLineWatcher creates a watcher and registers it on the stream
func NewLineWatcher(
	stream *datasource.LinesStreamClient,
	players repository.PlayerRepository,
	propLines repository.PropLineRepository,
	logger *logrus.Logger,
) *LineWatcher {
	w := &LineWatcher{
		stream:     stream,
		players:    players,
		propLines:  propLines,
		normalizer: NewNormalizer(logger),
		logger:     logger,
		ctx:        context.Background(),
	}
	stream.AddHandler(w.handleUpdate)
	return w
}

// Subscribe registers a callback invoked after each persisted line move
func (w *LineWatcher) Subscribe(fn LineSubscriber) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers = append(w.subscribers, fn)
}

// Run keeps the stream connected until the context is cancelled and mirrors
// its connection state into the metrics gauge
func (w *LineWatcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	go w.syncGauge(ctx)

	err := w.stream.Run(ctx)
	metrics.UpdateLinesStreamConnected(false)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *LineWatcher) syncGauge(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateLinesStreamConnected(w.stream.IsConnected())
		}
	}
}

// handleUpdate persists one streamed line move
func (w *LineWatcher) handleUpdate(update datasource.LineUpdate) error {
	metrics.RecordLinesStreamMessage("line")

	w.mu.RLock()
	ctx := w.ctx
	w.mu.RUnlock()

	player, err := w.players.GetByExternalID(ctx, update.ExternalPlayerID)
	if errors.Is(err, models.ErrNotFound) {
		w.logger.WithFields(logrus.Fields{
			"external_id": update.ExternalPlayerID,
			"player":      update.PlayerName,
		}).Debug("Dropping line move for unknown player")
		return nil
	}
	if err != nil {
		return err
	}

	line := w.normalizer.NormalizeLineUpdate(player.ID, update, "stream")
	if err := w.propLines.Upsert(ctx, line); err != nil {
		return err
	}
	metrics.RecordPropLineIngested("stream")

	w.logger.WithFields(logrus.Fields{
		"player": player.Name,
		"stat":   update.StatType.String(),
		"line":   update.Line,
	}).Debug("Persisted streamed line move")

	w.mu.RLock()
	subscribers := w.subscribers
	w.mu.RUnlock()
	for _, fn := range subscribers {
		fn(player, line)
	}

	return nil
}
