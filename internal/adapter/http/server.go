// Package http serves the detection service's operational endpoints:
// liveness, pipeline readiness, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessTimeout bounds how long a probe may spend asking the pipeline
// for its state.
const readinessTimeout = 2 * time.Second

// ReadinessChecker is the part of the pipeline the readiness probe needs:
// it answers whether at least one observation bundle has been processed.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server hosts /healthz, /readyz, and /metrics. It carries no detection
// state of its own; readiness is delegated to the pipeline.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires the operational routes onto a server at addr.
func NewServer(addr string, pipeline ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// WriteTimeout leaves room for large /metrics scrapes.
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz(pipeline))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("operational endpoints listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP exposes the route table to handler-level tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "heatwave-detect",
	})
}

// handleReadyz reports 503 with the pipeline's reason until the first
// bundle has been analyzed and loaded, so rollouts hold traffic until
// detection is actually flowing.
func (s *Server) handleReadyz(pipeline ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := pipeline.CheckReadiness(ctx); err != nil {
			s.respond(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}
		s.respond(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write probe response failed", "error", err)
	}
}
