// Interview orchestration server: drives scripted AI screening interviews
// over WebSocket against a generative-text API.
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

	"github.com/hirevox/interview-server/internal/api"
	"github.com/hirevox/interview-server/internal/config"
	"github.com/hirevox/interview-server/internal/gateway"
	"github.com/hirevox/interview-server/internal/interview"
	"github.com/hirevox/interview-server/internal/middleware"
	"github.com/hirevox/interview-server/internal/transcript"
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
	tlog, err := transcript.NewLogger(transcript.Config{
		Enabled:       cfg.TranscriptLog.Enabled,
		Dir:           cfg.TranscriptLog.Dir,
		GlobalEnabled: cfg.TranscriptLog.GlobalEnabled,
		GlobalPath:    cfg.TranscriptLog.GlobalPath,
		QueueSize:     cfg.TranscriptLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := tlog.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	gw := gateway.NewClient(cfg.Gateway, logger)
	if !gw.Configured() {
		slog.Warn("LLM_API_KEY not set, interview turns will fail until configured")
	}

	// Initialize services.
	store := interview.NewStore()
	orch := interview.NewOrchestrator(gw, cfg.Interview, tlog, logger)

	// Initialize handlers.
	wsHandler := interview.NewWebSocketHandler(store, orch, cfg.FrontendURL, cfg.IsDevelopment())
	healthHandler := api.NewHealthHandler(store, gw.Configured())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	healthHandler.RegisterHealth(r)

	// WebSocket endpoint.
	r.Get("/ws/interview", wsHandler.ServeHTTP)

	// Create server. WriteTimeout stays 0 so long-lived WebSocket
	// connections are not torn down mid-interview.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start session sweeper.
	interview.StartSweeper(ctx, store, cfg.Interview.SessionTTL)

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
