// Movi - Bus Fleet Operations Assistant Console
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/moviops/movi-console/internal/api"
	"github.com/moviops/movi-console/internal/assistant"
	"github.com/moviops/movi-console/internal/bus"
	"github.com/moviops/movi-console/internal/config"
	"github.com/moviops/movi-console/internal/middleware"
	"github.com/moviops/movi-console/internal/store"
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

	slog.Info("Starting console", "port", cfg.Port, "backend", cfg.BackendURL, "dev", cfg.IsDevelopment())

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

	backend := assistant.NewHTTPBackend(cfg.BackendURL, cfg.RequestTimeout, logger)
	recognizer := assistant.NewRecognizer(cfg.Speech.RecognizerCommand)
	if len(cfg.Speech.RecognizerCommand) == 0 {
		slog.Info("Speech recognition unavailable (RECOGNIZER_CMD not set)")
	}

	engine := assistant.New(backend, repo, recognizer, assistant.Config{
		HistoryKey:       cfg.HistoryKey,
		DefaultContext:   cfg.DefaultContext,
		SynthesisEnabled: cfg.Speech.SynthesisEnabled,
	}, logger)
	defer engine.Close()

	// Intent bus connecting dashboard pages to the engine.
	intentBus := bus.New()
	engine.Attach(intentBus)

	// Initialize handlers.
	origins := cfg.AllowedOrigins()
	bridgeHandler := api.NewHandler(engine, intentBus)
	streamHandler := api.NewStreamHandler(engine, origins)
	defer streamHandler.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(origins))

	bridgeHandler.RegisterRoutes(r)

	// WebSocket transcript stream.
	r.Get("/ws/assistant", streamHandler.ServeHTTP)

	// Create server.
	// Note: the WebSocket stream holds connections open, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Console listening", "addr", srv.Addr)
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

	slog.Info("Console stopped successfully")
}
