// Package server exposes the analysis engine and monitor over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairlens/fairlens/internal/aggregator"
	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/monitor"
	"github.com/fairlens/fairlens/internal/resilience"
)

// Server wires the HTTP surface: analysis submission, dashboard summary
// queries, monitor status, and health.
type Server struct {
	router     *chi.Mux
	engine     *aggregator.Engine
	monitor    *monitor.Monitor
	controller *resilience.Controller
	logger     *slog.Logger

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server listening on port once started.
func New(port int, requestTimeout time.Duration, engine *aggregator.Engine, mon *monitor.Monitor, controller *resilience.Controller, opts ...Option) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	s := &Server{
		router:     chi.NewRouter(),
		engine:     engine,
		monitor:    mon,
		controller: controller,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(TimeoutMiddleware(requestTimeout))

	s.router.Post("/v1/analyze", s.handleAnalyze)
	s.router.Get("/v1/dashboard/summary", s.handleDashboardSummary)
	s.router.Get("/v1/monitor/status", s.handleMonitorStatus)
	s.router.Get("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: otelhttp.NewHandler(s.router, "fairlens"),
	}

	return s
}

// Handler returns the instrumented root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var session domain.SessionData
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "request body must be a JSON session object")
		return
	}

	result, err := s.engine.Analyze(r.Context(), &session)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	opts, err := parseQueryOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.monitor.Query(opts))
}

func (s *Server) handleMonitorStatus(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Monitor monitor.Status           `json:"monitor"`
		Layers  []resilience.LayerStatus `json:"layers"`
	}{
		Monitor: s.monitor.Status(),
		Layers:  s.controller.Snapshot(),
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseQueryOptions(r *http.Request) (monitor.QueryOptions, error) {
	var opts monitor.QueryOptions
	q := r.URL.Query()

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, fmt.Errorf("invalid since: %w", err)
		}
		opts.Since = t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, fmt.Errorf("invalid until: %w", err)
		}
		opts.Until = t
	}
	if v := q.Get("demographic"); v != "" {
		key, value, _ := strings.Cut(v, "=")
		opts.DemographicKey = key
		opts.DemographicValue = value
	}
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid min_score: %w", err)
		}
		opts.MinScore = &f
	}
	if v := q.Get("max_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid max_score: %w", err)
		}
		opts.MaxScore = &f
	}

	return opts, nil
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, errType, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Type: errType, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
