// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// the CLI creates:
//
//	config.Config + repository.Connector → passed to Server
//	Server.New() creates: view.Renderer, GuestbookService → GuestbookHandler
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/guestbook/internal/config"
	"github.com/sakif/guestbook/internal/handler"
	"github.com/sakif/guestbook/internal/metrics"
	"github.com/sakif/guestbook/internal/middleware"
	"github.com/sakif/guestbook/internal/repository"
	"github.com/sakif/guestbook/internal/service"
	"github.com/sakif/guestbook/internal/view"
)

// shutdownTimeout is how long in-flight requests get to finish after a
// shutdown signal.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server does not own a long-lived database handle. Every request opens
// its own connection through the Connector and closes it before returning,
// so shutdown only has to drain HTTP traffic.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
}

// New creates a new Server with the given config.
//
// DEPENDENCY INJECTION & WIRING:
//  1. Parse the embedded templates (view.New)
//  2. Create the service layer (service.NewGuestbookService) with the connector
//  3. Create the handler (handler.NewGuestbookHandler) with the service
//  4. Wire handlers to routes
//
// The handler never sees the connector; the service never sees HTTP.
func New(cfg config.Config, connector repository.Connector, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	if err := s.setupRoutes(connector); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /         → Guestbook page (HTML)
// POST   /         → Submit an entry, then redirect back to GET /
// GET    /metrics  → Prometheus exposition
//
// Any other method on / gets chi's 405.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID — assigns unique ID to each request
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info and the request id
// 5. Tracing — server span per request, X-Trace-Id response header
// 6. metrics.Middleware — request counters and latency histogram
func (s *Server) setupRoutes(connector repository.Connector) error {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Tracing)
	s.router.Use(metrics.Middleware)

	// === Page Routes ===
	renderer, err := view.New()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	guestbookService := service.NewGuestbookService(connector, s.logger)
	guestbookHandler := handler.NewGuestbookHandler(guestbookService, renderer, s.logger)

	s.router.Get("/", guestbookHandler.HandleGuestbook)
	s.router.Post("/", guestbookHandler.HandleGuestbook)

	// === Operational Routes ===
	s.router.Handle("/metrics", metrics.Handler())

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
//
// Shutdown is triggered by SIGINT/SIGTERM or by ctx being cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.HTTP.Port)),
			slog.String("driver", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received", slog.String("cause", context.Cause(ctx).Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
