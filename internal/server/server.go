// Package server provides the HTTP API for the assistant.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/assist/internal/config"
	"github.com/hyperjump/assist/internal/llm"
	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/session"
)

// Responder runs one conversation turn.
type Responder interface {
	Respond(ctx context.Context, sess llm.Session, turn models.ConversationTurn) (*models.ChatResponse, error)
}

// CatalogStats reports the size of a local video catalog.
type CatalogStats interface {
	Stats(ctx context.Context) (videos int64, indexed uint64, err error)
}

// Server is the HTTP server for the assistant API.
type Server struct {
	assistant Responder
	sessions  *session.Registry
	config    *config.Config
	catalog   CatalogStats
	logger    *zap.Logger
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithCatalogStats reports local catalog size on the status endpoint.
func WithCatalogStats(c CatalogStats) Option {
	return func(s *Server) { s.catalog = c }
}

// NewServer creates a server with the given dependencies.
func NewServer(assistant Responder, sessions *session.Registry, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		assistant: assistant,
		sessions:  sessions,
		config:    cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}

	r.Post("/api/v1/chat", s.handleChat)
	r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	if s.config.Metrics.EnabledOrDefault() {
		r.Handle(s.config.Metrics.Path, promhttp.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
