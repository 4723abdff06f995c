// Package http serves the read-only inspection API over the capture
// logs of registered relay sessions.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wiretap-proxy/wiretap/internal/logging"
	"github.com/wiretap-proxy/wiretap/proxy/http/handlers"
	"github.com/wiretap-proxy/wiretap/proxy/http/middleware"
	"github.com/wiretap-proxy/wiretap/proxy/registry"
)

// Server represents the inspection HTTP server
type Server struct {
	server *http.Server
	port   int
}

// Options configures the inspection server
type Options struct {
	Port     int
	Registry *registry.Registry
	Logger   *logging.Logger
}

// NewServer creates an inspection server over the given registry
func NewServer(opts *Options) *Server {
	if opts == nil {
		opts = &Options{Port: 8080}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	promReg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(promReg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handlers.HealthHandler)
	mux.HandleFunc("GET /api/sessions", handlers.NewSessionsHandler(opts.Registry))
	mux.HandleFunc("GET /api/sessions/{id}/capture", handlers.NewCaptureHandler(opts.Registry))
	mux.HandleFunc("DELETE /api/sessions/{id}", handlers.NewRemoveSessionHandler(opts.Registry))
	mux.Handle("GET /metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	handler := middleware.Telemetry(
		middleware.Logger(logger)(
			metrics.Handler(mux)))

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		port: opts.Port,
	}
}

// Handler returns the fully wired handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe starts the inspection server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Close immediately closes the server
func (s *Server) Close() error {
	return s.server.Close()
}

// Port returns the port the server is configured to listen on
func (s *Server) Port() int {
	return s.port
}
