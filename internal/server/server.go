// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it connects the database, services,
// handlers, and middleware into a running application. main.go only reads
// configuration and calls New + Start; everything else is wired here.
//
// DEPENDENCY INJECTION FLOW:
// main.go creates config → passed to Server
// Server.New() creates: sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not repositories or the DB)
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

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/gh"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/handler"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/middleware"
	sqliteRepo "github.com/sunhaksan-research-lab/sunhaksan/internal/repository/sqlite"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/service"
)

// Config holds server configuration loaded by main.go.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. When the server shuts down we must
// close it to flush pending writes and release the file lock; Start() handles
// this during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /auth/github/login            → Redirect to GitHub OAuth
// GET    /auth/github/callback         → OAuth callback, sets session cookie
// POST   /auth/logout                  → Clear session cookie
// GET    /api/me                       → Current user (requires auth)
// GET    /api/projects                 → List visible projects (optional auth)
// POST   /api/projects                 → Register a repository (requires auth)
// PATCH  /api/projects/{id}            → Update own project (requires auth)
// DELETE /api/projects/{id}            → Remove own project (requires auth)
// GET    /api/projects/{id}/readme     → Proxied README HTML (requires auth)
// GET    /api/repos                    → Caller's GitHub repositories (requires auth)
// GET    /api/members                  → List members (requires auth)
// POST   /api/members                  → Pre-register a member (requires auth)
// DELETE /api/members?id=              → Remove a member (requires auth)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	githubProvider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	// DEPENDENCY CHAIN:
	//   s.db (sqlite.DB) implements both repository interfaces
	//   Services receive the repository interfaces
	//   Handlers receive the services
	authService := service.NewAuthService(s.db, tokens, s.logger)
	memberService := service.NewMemberService(s.db, s.logger)
	projectService := service.NewProjectService(s.db, s.logger)
	githubService := service.NewGitHubService(s.db, gh.New, s.logger)

	authHandler := handler.NewAuthHandler(githubProvider, authService, s.logger)
	memberHandler := handler.NewMemberHandler(memberService, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	githubHandler := handler.NewGitHubHandler(githubService, s.logger)

	// === OAuth Routes ===
	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		// Project listing is the only endpoint visible to anonymous callers.
		// OptionalAuth attaches the session when a valid cookie is present
		// but never rejects; the visibility filter does the rest.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/projects", projectHandler.HandleList)
		})

		// Everything else requires a signed-in member.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Get("/members", memberHandler.HandleList)
			r.Post("/members", memberHandler.HandleCreate)
			r.Delete("/members", memberHandler.HandleDelete)

			r.Post("/projects", projectHandler.HandleCreate)
			r.Patch("/projects/{id}", projectHandler.HandleUpdate)
			r.Delete("/projects/{id}", projectHandler.HandleDelete)
			r.Get("/projects/{id}/readme", githubHandler.HandleReadme)

			r.Get("/repos", githubHandler.HandleRepos)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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
