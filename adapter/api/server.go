// Package api provides HTTP API handlers for the VeriTrail quality register.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/veritrail/veritrail/pkg/observability"
)

// Server is the HTTP API server for the quality register.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	metrics observability.Metrics
	handler *RecordHandler
	hub     http.Handler
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Health backs GET /health. When nil the endpoint reports healthy
	// without checking anything.
	Health *observability.HealthRegistry
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new quality register API server. The hub serves the
// websocket endpoint and may be nil; metrics may be nil as well.
func NewServer(cfg ServerConfig, handler *RecordHandler, hub http.Handler, logger *slog.Logger, metrics observability.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		metrics: metrics,
		handler: handler,
		hub:     hub,
		health:  cfg.Health,
	}

	// Register routes
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withObservability(s.mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Quality register API v1
	s.mux.HandleFunc("GET /api/v1/records", s.handler.ListRecords)
	s.mux.HandleFunc("POST /api/v1/records", s.handler.CreateRecord)
	s.mux.HandleFunc("GET /api/v1/records/export", s.handler.ExportRegister)
	s.mux.HandleFunc("GET /api/v1/records/{recordID}", s.handler.GetRecord)
	s.mux.HandleFunc("PATCH /api/v1/records/{recordID}", s.handler.UpdateRecord)
	s.mux.HandleFunc("DELETE /api/v1/records/{recordID}", s.handler.DeleteRecord)
	s.mux.HandleFunc("GET /api/v1/records/{recordID}/timeline", s.handler.GetTimeline)
	s.mux.HandleFunc("GET /api/v1/records/{recordID}/transitions", s.handler.ListTransitions)
	s.mux.HandleFunc("POST /api/v1/records/{recordID}/transitions", s.handler.TransitionRecord)
	s.mux.HandleFunc("GET /api/v1/records/{recordID}/audit", s.handler.GetAuditTrail)
	s.mux.HandleFunc("POST /api/v1/records/{recordID}/response", s.handler.RecordSupplierResponse)

	// Live record changes
	if s.hub != nil {
		s.mux.Handle("GET /api/v1/ws", s.hub)
	}
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	overall := s.health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if overall.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, overall)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting quality register API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down quality register API server")
	return s.server.Shutdown(ctx)
}

// withObservability stamps each request with correlation and request IDs
// and records request counters and timings. Status is tagged but the path
// is not; record IDs in paths would blow up the tag cardinality.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get("X-Correlation-ID"))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		tags := []observability.Tag{
			observability.T("method", r.Method),
			observability.T("status", strconv.Itoa(rec.status)),
		}
		s.metrics.Counter(observability.MetricHTTPRequests, 1, tags...)
		s.metrics.Timing(observability.MetricHTTPRequestDuration, duration, tags...)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
			"correlation_id", observability.CorrelationIDFromContext(ctx),
		)
	})
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack passes through to the underlying writer so the websocket upgrade
// works behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common API errors
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "Invalid request",
	}
	ErrNotFound = &APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "Resource not found",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)
