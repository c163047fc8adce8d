// Package server exposes the HTTP surface: the webhook ingestion endpoint,
// a health check, and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brojonat/mimic/service/metrics"
	"github.com/brojonat/mimic/service/trader"
)

// Server represents the HTTP server for the copy-trade service.
type Server struct {
	addr     string
	trader   *trader.Trader
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The metrics and gatherer are optional - if nil, the /metrics endpoint
// won't be available.
func New(addr string, t *trader.Trader, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		addr:     addr,
		trader:   t,
		metrics:  m,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Routes builds the request mux. Exposed separately from Start so tests can
// exercise the full routing table without binding a listener.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	webhookMetrics := metrics.HTTPMetricsMiddleware(s.metrics, "/webhook")
	mux.Handle("POST /webhook", webhookMetrics(handleWebhook(s.trader, s.logger)))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil && s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	return mux
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
