// Aura - Learning Content Pipeline Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aura-labs/aura/internal/api"
	"github.com/aura-labs/aura/internal/config"
	"github.com/aura-labs/aura/internal/identity"
	"github.com/aura-labs/aura/internal/middleware"
	"github.com/aura-labs/aura/internal/pipeline"
	"github.com/aura-labs/aura/internal/progress"
	"github.com/aura-labs/aura/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	stageLog, err := pipeline.NewStageLog(cfg.StageLog.Enabled, cfg.StageLog.Path)
	if err != nil {
		slog.Error("Failed to initialize stage log", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := stageLog.Close(); closeErr != nil {
			slog.Error("Failed to close stage log", "error", closeErr)
		}
	}()

	// Select the generation backend: a remote service when configured,
	// otherwise the built-in rule-based generator.
	var gen pipeline.Generator
	if cfg.GeneratorURL != "" {
		httpGen, err := pipeline.NewHTTPGenerator(pipeline.HTTPGeneratorConfig{
			BaseURL:        cfg.GeneratorURL,
			RequestTimeout: cfg.GenerationTimeout,
		}, logger)
		if err != nil {
			slog.Error("Failed to initialize generator client", "error", err)
			os.Exit(1)
		}
		gen = httpGen
		slog.Info("Using remote generator", "url", cfg.GeneratorURL)
	} else {
		gen = pipeline.NewRuleGenerator()
		slog.Info("Using built-in rule generator (GENERATOR_URL not set)")
	}

	// Initialize services.
	hub := progress.NewHub()

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, gen, hub, stageLog, cfg.GenerationTimeout)
	sessionHandler := api.NewSessionHandler(baseHandler)
	questionHandler := api.NewQuestionHandler(baseHandler)
	draftHandler := api.NewDraftHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := progress.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	corsOrigins := []string{cfg.FrontendURL}
	if cfg.FrontendURL == "" {
		corsOrigins = []string{"*"}
	}
	r.Use(middleware.CORS(corsOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterRoutes(r)

	// All routes use identity middleware (no auth needed).
	sessionHandler.RegisterRoutes(r)
	questionHandler.RegisterRoutes(r)
	draftHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/progress", wsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // progress websocket connections stay open
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
