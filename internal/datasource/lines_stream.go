package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-edge/internal/models"
)

// LineUpdate is a single line move pushed over the stream
type LineUpdate struct {
	ExternalPlayerID string          `json:"player_id"`
	PlayerName       string          `json:"player_name"`
	StatType         models.StatType `json:"stat_type"`
	Line             float64         `json:"line"`
	GameDate         time.Time       `json:"game_date"`
	Timestamp        time.Time       `json:"timestamp"`
}

// streamMessage is the wire envelope for stream traffic in both directions
type streamMessage struct {
	Op        string      `json:"op"`
	StatTypes []string    `json:"stat_types,omitempty"`
	Update    *LineUpdate `json:"update,omitempty"`
}

// Stream operations.
const (
	opSubscribe = "subscribe"
	opLine      = "line"
	opHeartbeat = "heartbeat"
	opPing      = "ping"
)

// LineHandler is called for every line update received from the stream
type LineHandler func(update LineUpdate) error

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// LinesStreamClient maintains a WebSocket subscription to a line update feed
type LinesStreamClient struct {
	streamURL       string
	statTypes       []models.StatType
	reconnectConfig ReconnectConfig
	logger          *logrus.Logger

	mu              sync.RWMutex
	conn            *websocket.Conn
	isConnected     bool
	handlers        []LineHandler
	lastMessageTime time.Time
}

// NewLinesStreamClient creates a new lines stream client
func NewLinesStreamClient(streamURL string, statTypes []models.StatType, logger *logrus.Logger) *LinesStreamClient {
	return &LinesStreamClient{
		streamURL:       streamURL,
		statTypes:       statTypes,
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
		handlers:        make([]LineHandler, 0),
	}
}

// SetReconnectConfig overrides the default reconnection behavior
func (s *LinesStreamClient) SetReconnectConfig(cfg ReconnectConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnectConfig = cfg
}

// AddHandler registers a handler invoked for every line update
func (s *LinesStreamClient) AddHandler(handler LineHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Connect establishes the WebSocket connection and subscribes
func (s *LinesStreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	s.logger.WithField("url", s.streamURL).Info("Connecting to lines stream")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to lines stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()

	if err := s.subscribeLocked(); err != nil {
		s.conn.Close()
		s.conn = nil
		s.isConnected = false
		return err
	}

	s.logger.Info("Connected to lines stream")

	go s.readMessages()

	return nil
}

// Run keeps the stream connected until the context is cancelled, redialing
// with exponential backoff. The retry counter resets after each successful
// connection so a flaky feed does not burn through the cap over a long run.
func (s *LinesStreamClient) Run(ctx context.Context) error {
	cfg := s.reconnectConfig
	backoff := cfg.InitialBackoff
	retries := 0

	for {
		if err := s.Connect(ctx); err != nil {
			retries++
			if cfg.MaxRetries > 0 && retries > cfg.MaxRetries {
				return fmt.Errorf("exhausted %d reconnect attempts: %w", cfg.MaxRetries, err)
			}

			s.logger.WithFields(logrus.Fields{
				"attempt": retries,
				"backoff": backoff.String(),
				"error":   err.Error(),
			}).Warn("Lines stream connect failed; retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
			continue
		}

		retries = 0
		backoff = cfg.InitialBackoff

		// Block until the connection drops or the context ends.
		select {
		case <-ctx.Done():
			s.Close()
			return ctx.Err()
		case <-s.waitDisconnect(ctx):
		}
	}
}

// waitDisconnect returns a channel that closes once the stream drops
func (s *LinesStreamClient) waitDisconnect(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.IsConnected() {
					return
				}
			}
		}
	}()
	return done
}

// subscribeLocked sends the subscription message. Callers hold s.mu.
func (s *LinesStreamClient) subscribeLocked() error {
	statTypes := make([]string, len(s.statTypes))
	for i, st := range s.statTypes {
		statTypes[i] = st.String()
	}

	msg := streamMessage{Op: opSubscribe, StatTypes: statTypes}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	s.logger.WithField("stat_types", statTypes).Info("Subscribed to line updates")
	return nil
}

// readMessages reads messages from the WebSocket connection until it drops
func (s *LinesStreamClient) readMessages() {
	defer s.Close()

	for {
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}

		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			s.logger.WithError(err).Warn("Lines stream read failed")
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.WithError(err).Debug("Skipping malformed stream message")
			continue
		}

		switch msg.Op {
		case opHeartbeat:
			// Heartbeats only refresh lastMessageTime.
		case opLine:
			if msg.Update == nil {
				s.logger.Debug("Line message without update payload")
				continue
			}
			s.dispatch(*msg.Update)
		}
	}
}

// dispatch fans a line update out to every registered handler
func (s *LinesStreamClient) dispatch(update LineUpdate) {
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(update); err != nil {
			s.logger.WithFields(logrus.Fields{
				"player": update.PlayerName,
				"stat":   update.StatType.String(),
				"error":  err.Error(),
			}).Warn("Line handler failed")
		}
	}
}

// Ping sends a ping message to keep the connection alive
func (s *LinesStreamClient) Ping() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isConnected || s.conn == nil {
		return fmt.Errorf("not connected")
	}
	return s.conn.WriteJSON(streamMessage{Op: opPing})
}

// IsConnected returns whether the stream is connected
func (s *LinesStreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *LinesStreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// IsStale reports whether no traffic has arrived within maxAge
func (s *LinesStreamClient) IsStale(maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isConnected {
		return true
	}
	return time.Since(s.lastMessageTime) > maxAge
}

// Close closes the stream connection
func (s *LinesStreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.isConnected = false
	err := s.conn.Close()
	s.conn = nil
	return err
}
