package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tabletrack/internal/handlers"
	applog "tabletrack/internal/log"
	"tabletrack/internal/production"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr           string
	Service        *production.Service
	AllowedOrigin  string
	MetricsEnabled bool
}

// Server wraps an http.Server and exposes helpers for bootstrapping the
// production API.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"allowedOrigin", cfg.AllowedOrigin,
		"metrics", cfg.MetricsEnabled,
	)

	if cfg.Service == nil {
		return nil, errors.New("production service is required")
	}
	if strings.TrimSpace(cfg.AllowedOrigin) == "" {
		applog.Debug(context.Background(), "allowed origin not provided, using default")
		cfg.AllowedOrigin = "*"
	}

	handlers.Configure(cfg.Service)

	applog.Debug(context.Background(), "handler dependencies configured")

	handler := withRequestID(withCORS(cfg.AllowedOrigin, withAccessLog(newRouter(cfg.MetricsEnabled))))

	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
