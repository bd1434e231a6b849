// Package webui serves the sales agent over a JSON HTTP API.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesagent/pkg/agent/middleware/metrics"
	"salesagent/pkg/logx"
	"salesagent/pkg/persistence"
	"salesagent/pkg/sales"
	"salesagent/pkg/session"
	"salesagent/pkg/version"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Server is the HTTP session driver.
type Server struct {
	sessions *session.Manager
	leads    *persistence.DatabaseOperations
	usage    *metrics.InternalRecorder
	gatherer prometheus.Gatherer
	logger   *logx.Logger
}

// Option configures optional endpoints.
type Option func(*Server)

// WithLeadStore enables GET /api/leads.
func WithLeadStore(ops *persistence.DatabaseOperations) Option {
	return func(s *Server) { s.leads = ops }
}

// WithUsage enables GET /api/usage.
func WithUsage(rec *metrics.InternalRecorder) Option {
	return func(s *Server) { s.usage = rec }
}

// WithGatherer sets the registry served on /metrics. Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer creates a server over the session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		gatherer: prometheus.DefaultGatherer,
		logger:   logx.NewLogger("webui"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chiMiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/messages", s.handlePostMessage)
		})
		r.Get("/leads", s.handleLeads)
		r.Get("/usage", s.handleUsage)
		r.Get("/logs", s.handleLogs)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// requestLogger logs one debug line per request with chi's request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s -> %d (%v) [%s]", r.Method, r.URL.Path, ww.Status(),
			time.Since(start).Round(time.Millisecond), chiMiddleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting sales agent API on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down sales agent API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	//nolint:contextcheck // parent context is cancelled; shutdown needs a fresh one
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// handleHealth implements GET /api/healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  version.Version,
		"sessions": s.sessions.Len(),
	})
}

// handleCreateSession implements POST /api/sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id := s.sessions.Create()
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleGetSession implements GET /api/sessions/{id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// handleDeleteSession implements DELETE /api/sessions/{id}.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MessageRequest is the body of POST /api/sessions/{id}/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// handlePostMessage implements POST /api/sessions/{id}/messages.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.sessions.Turn(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// writeSessionError maps session and turn errors to HTTP statuses.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sales.ErrEmptyInput):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case sales.IsGeneratorFailure(err):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}
	s.writeError(w, status, err.Error())
}

// handleLeads implements GET /api/leads?platform=&email=&since=&limit=.
func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	if s.leads == nil {
		s.writeError(w, http.StatusNotFound, "lead store not configured")
		return
	}

	query := r.URL.Query()
	filter := persistence.LeadFilter{
		Platform: query.Get("platform"),
		Email:    query.Get("email"),
		Limit:    100,
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		filter.Limit = limit
	}
	if sinceStr := query.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since parameter (use RFC3339)")
			return
		}
		filter.Since = since
	}

	leads, err := s.leads.ListLeads(filter)
	if err != nil {
		s.logger.Error("Failed to list leads: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*persistence.Lead{}
	}
	s.writeJSON(w, http.StatusOK, leads)
}

// handleUsage implements GET /api/usage.
func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	if s.usage == nil {
		s.writeError(w, http.StatusNotFound, "usage tracking not configured")
		return
	}
	s.writeJSON(w, http.StatusOK, s.usage.Snapshot())
}

// handleLogs implements GET /api/logs?level=&since=.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var since time.Time
	if sinceStr := query.Get("since"); sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since parameter (use RFC3339)")
			return
		}
	}

	entries := logx.RecentEntries(strings.ToUpper(query.Get("level")), since)
	// Limit to 1000 newest lines.
	if len(entries) > 1000 {
		entries = entries[len(entries)-1000:]
	}
	s.writeJSON(w, http.StatusOK, entries)
}
