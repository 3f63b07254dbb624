// Package health provides the HTTP liveness and readiness endpoints the
// daemons expose for container orchestration.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const checkTimeout = 3 * time.Second

// CheckFunc probes one dependency. A nil error means the dependency is ready.
type CheckFunc func(ctx context.Context) error

// DatabasePinger is the connectivity probe the database pool satisfies.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the JSON body of the /health and /live endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse is the JSON body of the /ready endpoint.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Server serves the health check endpoints for one daemon. Readiness is the
// AND of the manual ready flag and every registered dependency check.
type Server struct {
	serviceName string
	version     string
	commit      string
	port        string
	server      *http.Server
	logger      *logrus.Logger

	mu     sync.RWMutex
	ready  bool
	checks map[string]CheckFunc
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        string
	Logger      *logrus.Logger
	DB          DatabasePinger
}

// NewServer creates a health check server. A database pinger in the config
// registers the "database" readiness check; further checks are added with
// RegisterCheck.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = os.Getenv("HEALTH_PORT")
	}
	if port == "" {
		port = "8080"
	}

	s := &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		commit:      cfg.Commit,
		port:        port,
		logger:      cfg.Logger,
		checks:      make(map[string]CheckFunc),
	}

	if cfg.DB != nil {
		s.RegisterCheck("database", cfg.DB.Ping)
	}

	return s
}

// RegisterCheck adds a named readiness probe. Registering the same name
// again replaces the previous probe.
func (s *Server) RegisterCheck(name string, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = fn
}

// SetReady marks the daemon as ready to serve traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns the manual ready flag.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves the endpoints in the background until the context is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)

	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
			}).Info("Health check server starting")
		}

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("Health check server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown stops the server, allowing in-flight probes to finish.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("Health check server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleHealth reports basic liveness with build information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Commit:    s.commit,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleLive answers the orchestrator's liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Service: s.serviceName,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleReady runs every registered dependency probe. Any failing probe (or
// an unset ready flag) answers 503 so the daemon is pulled out of rotation.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	results := make(map[string]string)
	allHealthy := true

	if !s.IsReady() {
		allHealthy = false
		results["service"] = "not_ready"
	} else {
		results["service"] = "ok"
	}

	for _, named := range s.snapshotChecks() {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := named.fn(ctx)
		cancel()

		if err != nil {
			allHealthy = false
			results[named.name] = fmt.Sprintf("error: %v", err)
		} else {
			results[named.name] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.serviceName,
		Checks:   results,
		Duration: time.Since(start).String(),
	}

	status := http.StatusOK
	response.Status = "ok"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		response.Status = "not_ready"
	}

	writeJSON(w, status, response)
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// snapshotChecks copies the probe set under the read lock so a slow probe
// never blocks RegisterCheck. Names are sorted for stable response ordering.
func (s *Server) snapshotChecks() []namedCheck {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make([]namedCheck, 0, len(names))
	for _, name := range names {
		checks = append(checks, namedCheck{name: name, fn: s.checks[name]})
	}
	return checks
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
