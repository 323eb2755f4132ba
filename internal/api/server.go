package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgnsrekt/geminivoice/internal/config"
	"github.com/dgnsrekt/geminivoice/internal/tts"
)

// Server handles HTTP API requests.
type Server struct {
	cfg      *config.Config
	catalog  *config.Catalog
	registry *tts.Registry
	logger   *slog.Logger
	handler  http.Handler
	server   *http.Server
}

// New creates a new API server. The catalog and registry are read-only after
// this call.
func New(cfg *config.Config, catalog *config.Catalog, registry *tts.Registry, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		catalog:  catalog,
		registry: registry,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("POST /api/tts", s.withAuth(s.handleTTS))

	s.handler = s.withRequestID(s.withCORS(mux))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
