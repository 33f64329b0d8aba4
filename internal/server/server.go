// Package server wires the router, middleware and handlers, and runs the
// HTTP server with graceful shutdown. It is the composition point for the
// HTTP surface; the data stack is built by the caller so that migration
// and the initial store load happen before any request is served.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dave11k/flow-roll-app-sub001/internal/exchange"
	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
	"github.com/dave11k/flow-roll-app-sub001/internal/handler"
	"github.com/dave11k/flow-roll-app-sub001/internal/middleware"
	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

// Config holds server settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Deps are the initialized collaborators the HTTP surface serves from.
type Deps struct {
	Store     *store.Store
	Service   facade.Service
	Exchanger *exchange.Exchanger
}

// Server is the HTTP server and its routing table.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

// New creates a Server and wires all routes.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(deps)
	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures middleware and the API routing table.
// Middleware order matters: request id and client IP first, panic
// recovery before logging so a panicked request still gets a log line.
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	techniques := handler.NewTechniqueHandler(deps.Store, s.logger)
	sessions := handler.NewSessionHandler(deps.Store, s.logger)
	profile := handler.NewProfileHandler(deps.Store, s.logger)
	tags := handler.NewTagHandler(deps.Store, s.logger)
	system := handler.NewSystemHandler(deps.Service, s.logger)
	analytics := handler.NewAnalyticsHandler(deps.Store, s.logger)
	exchanger := handler.NewExchangeHandler(deps.Exchanger, deps.Store, s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", system.HandleHealth)
		r.Get("/compatibility", system.HandleCompatibility)

		r.Get("/techniques", techniques.HandleList)
		r.Get("/techniques/{id}", techniques.HandleGetByID)
		r.Post("/techniques", techniques.HandleCreate)
		r.Put("/techniques/{id}", techniques.HandleUpdate)
		r.Delete("/techniques/{id}", techniques.HandleDelete)

		r.Get("/sessions", sessions.HandleList)
		r.Get("/sessions/{id}", sessions.HandleGetByID)
		r.Post("/sessions", sessions.HandleCreate)
		r.Put("/sessions/{id}", sessions.HandleUpdate)
		r.Delete("/sessions/{id}", sessions.HandleDelete)

		r.Get("/profile", profile.HandleGet)
		r.Put("/profile", profile.HandlePut)

		r.Get("/tags", tags.HandleList)
		r.Get("/analytics", analytics.HandleSummary)

		r.Get("/export", exchanger.HandleExport)
		r.Post("/import", exchanger.HandleImport)
	})
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for the configured shutdown window.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting", slog.String("addr", s.config.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
