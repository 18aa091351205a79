// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where every
// dependency chain is assembled in one place:
//
//	storage backend (jsonfile or sqlite) → SnippetService → SnippetHandler
//	reasoning engine + SnippetService    → ChatHandler
//
// Each layer only receives what it needs: the service gets the repository
// interface (not a concrete store), handlers get the service (never a
// store), and nothing below this package knows which backend is in use.
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

	"github.com/sakif/knowledge-hub/internal/auth"
	"github.com/sakif/knowledge-hub/internal/engine"
	"github.com/sakif/knowledge-hub/internal/handler"
	"github.com/sakif/knowledge-hub/internal/middleware"
	"github.com/sakif/knowledge-hub/internal/repository"
	"github.com/sakif/knowledge-hub/internal/repository/jsonfile"
	sqliteRepo "github.com/sakif/knowledge-hub/internal/repository/sqlite"
	"github.com/sakif/knowledge-hub/internal/service"
)

// Config holds server configuration, loaded from env vars in cmd/server.
type Config struct {
	Port int

	// Storage: "jsonfile" (default) keeps the whole collection in one JSON
	// document at DataPath; "sqlite" uses a SQLite database at DataPath.
	StorageBackend string
	DataPath       string

	// AllowEmptyContent relaxes snippet validation (title stays required).
	AllowEmptyContent bool

	// JWTSecret, when set, enables bearer-token auth on mutating
	// /knowledge routes. Empty = open API (local single-user deployment).
	JWTSecret string

	Chat handler.ChatConfig
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger

	// closers are shut down (in order) after the HTTP server drains.
	// Only the sqlite backend registers one today; the jsonfile store has
	// no connection to release — every write already ended in a rename.
	closers []func() error
}

// New creates a Server. The engine may be nil, in which case the chat
// gateway is not mounted and the server is CRUD-only — mirrors how the
// service degrades when no engine credentials are configured.
func New(cfg Config, eng engine.Engine, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	repo, err := s.openRepository()
	if err != nil {
		return nil, err
	}

	if err := s.setupRoutes(repo, eng); err != nil {
		s.closeAll()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openRepository picks the storage backend from config.
func (s *Server) openRepository() (repository.SnippetRepository, error) {
	switch s.config.StorageBackend {
	case "", "jsonfile":
		store, err := jsonfile.New(s.config.DataPath)
		if err != nil {
			return nil, fmt.Errorf("opening knowledge store: %w", err)
		}
		return store, nil
	case "sqlite":
		db, err := sqliteRepo.New(s.config.DataPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.config.StorageBackend)
	}
}

// setupRoutes configures middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /knowledge/       → list all snippets
//	POST   /knowledge/       → create (auth when enabled)
//	GET    /knowledge/{id}   → get one
//	PUT    /knowledge/{id}   → update (auth when enabled)
//	DELETE /knowledge/{id}   → delete (auth when enabled)
//	GET    /ws               → streaming chat session (websocket)
//
// MIDDLEWARE ORDER MATTERS — RequestID first so every later log line can
// carry it, Recoverer before our handlers so a panic becomes a 500.
func (s *Server) setupRoutes(repo repository.SnippetRepository, eng engine.Engine) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	snippetService := service.NewSnippetService(repo, service.Config{
		AllowEmptyContent: s.config.AllowEmptyContent,
	}, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)

	// requireAuth is the identity middleware unless a secret is configured.
	requireAuth := func(next http.Handler) http.Handler { return next }
	if s.config.JWTSecret != "" {
		tokens, err := auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return err
		}
		requireAuth = auth.RequireAuth(tokens)
		s.logger.Info("bearer-token auth enabled for mutating routes")
	}

	s.router.Route("/knowledge", func(r chi.Router) {
		// Reads are always open; the collection is the agent's context and
		// the UI's content.
		r.Get("/", snippetHandler.HandleList)
		r.Get("/{id}", snippetHandler.HandleGetByID)

		// Mutations go through auth when it's enabled.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", snippetHandler.HandleCreate)
			r.Put("/{id}", snippetHandler.HandleUpdate)
			r.Delete("/{id}", snippetHandler.HandleDelete)
		})
	})

	if eng != nil {
		chatHandler := handler.NewChatHandler(eng, snippetService, s.config.Chat, s.logger)
		s.router.Get("/ws", chatHandler.HandleChat)
	} else {
		s.logger.Warn("no reasoning engine configured — /ws is disabled")
	}

	return nil
}

// Router exposes the configured router — used by tests to drive the server
// through httptest without binding a real port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until shutdown (Ctrl+C or SIGTERM).
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections.
//  2. Wait for in-flight requests to finish (30s timeout). An in-flight
//     store write always completes atomically — there is no mid-write
//     cancellation, by design.
//  3. Close the storage backend.
func (s *Server) Start() error {
	defer s.closeAll()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("storage", s.config.DataPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) closeAll() {
	for _, close := range s.closers {
		if err := close(); err != nil {
			s.logger.Error("closing resource", slog.String("error", err.Error()))
		}
	}
}
