package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cratechef/internal/config"
	"cratechef/internal/logging"
	"cratechef/internal/store"
)

// Reader is the store surface the API needs.
type Reader interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (store.Counts, error)
	RecentTransitions(ctx context.Context, limit int) ([]store.RecentTransition, error)
}

// Server serves the HTTP read layer.
type Server struct {
	bind          string
	recentDefault int
	recentMax     int
	logger        *slog.Logger
	reader        Reader

	listener net.Listener
	server   *http.Server
}

// NewServer builds a Server from the [api] config section.
func NewServer(cfg *config.Config, reader Reader, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: config is nil")
	}
	if reader == nil {
		return nil, errors.New("api: reader is nil")
	}
	recentMax := cfg.API.RecentMax
	if recentMax <= 0 || recentMax > store.MaxRecentLimit {
		recentMax = store.MaxRecentLimit
	}
	recentDefault := cfg.API.RecentDefault
	if recentDefault <= 0 {
		recentDefault = 1
	}
	if recentDefault > recentMax {
		recentDefault = recentMax
	}

	srv := &Server{
		bind:          strings.TrimSpace(cfg.API.Bind),
		recentDefault: recentDefault,
		recentMax:     recentMax,
		logger:        logging.NewComponentLogger(logger, "api"),
		reader:        reader,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/api/stats", srv.handleStats)
	mux.HandleFunc("/api/transitions/recent", srv.handleRecent)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.reader.Ping(r.Context()); err != nil {
		logging.WarnWithContext(s.logger, "health check failed", "store_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the database path and permissions"),
			logging.String(logging.FieldImpact, "api reports degraded"),
		)
		s.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	counts, err := s.reader.Counts(r.Context())
	if err != nil {
		s.logger.Error("stats query failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, FromCounts(counts))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, err := s.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := s.reader.RecentTransitions(r.Context(), limit)
	if err != nil {
		s.logger.Error("recent transitions query failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, RecentTransitionsResponse{
		Limit:       limit,
		Transitions: FromRecentTransitions(rows),
	})
}

// parseLimit applies the default to an empty value and clamps numbers into
// [1, recentMax]. Non-numeric values are rejected.
func (s *Server) parseLimit(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.recentDefault, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", value)
	}
	if limit < 1 {
		limit = 1
	}
	if limit > s.recentMax {
		limit = s.recentMax
	}
	return limit, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
