// Package server wires the application together: database, services,
// handlers, routes, and graceful shutdown.
//
// This is the composition root — every dependency is constructed and
// connected here, so the rest of the codebase receives its collaborators
// instead of reaching for them.
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

	"github.com/sakif/walkonsongs/internal/auth"
	"github.com/sakif/walkonsongs/internal/config"
	"github.com/sakif/walkonsongs/internal/handler"
	"github.com/sakif/walkonsongs/internal/mail"
	"github.com/sakif/walkonsongs/internal/middleware"
	sqliteRepo "github.com/sakif/walkonsongs/internal/repository/sqlite"
	"github.com/sakif/walkonsongs/internal/service"
)

// Server owns the router, the configuration, and the database handle.
// The DB is closed during graceful shutdown so the WAL is flushed.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph.
//
// Chain: sqlite.DB → services (auth, songs) → handlers → routes.
// Services receive repository interfaces, handlers receive services;
// nothing skips a layer.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	mailer := mail.NewSMTPMailer(
		cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From,
	)

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, mailer)

	return s, nil
}

// setupRoutes registers middleware and the /api route tree.
//
// Middleware order matters: RequestID and RealIP enrich the request,
// Recoverer converts panics to 500s, and the slog logger records the
// completed request.
func (s *Server) setupRoutes(tokens *auth.TokenService, mailer service.Mailer) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(
		s.db, tokens, passwords, mailer,
		s.cfg.ClientURL, s.cfg.Auth.VerificationTTL, s.logger,
	)
	songService := service.NewSongService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	songHandler := handler.NewSongHandler(songService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Get("/verify-email", authHandler.HandleVerifyEmail)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/resend-verification", authHandler.HandleResendVerification)
		})

		// Every song route sits behind the access guard: no valid
		// bearer token, no store access.
		r.Route("/songs", func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/", songHandler.HandleList)
			r.Post("/", songHandler.HandleCreate)
			r.Get("/{id}", songHandler.HandleGet)
			r.Put("/{id}", songHandler.HandleUpdate)
			r.Delete("/{id}", songHandler.HandleDelete)
		})
	})
}

// Router exposes the chi mux (used by handler tests via httptest).
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.cfg.HTTPServer.Address,
		Handler:      s.router,
		ReadTimeout:  s.cfg.HTTPServer.Timeout,
		WriteTimeout: s.cfg.HTTPServer.Timeout,
		IdleTimeout:  s.cfg.HTTPServer.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("address", s.cfg.HTTPServer.Address),
			slog.String("database", s.cfg.Database.Path),
			slog.String("env", s.cfg.Env),
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
