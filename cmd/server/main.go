package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gemini-relay/internal/config"
	"gemini-relay/internal/handlers"
	"gemini-relay/internal/logger"
	"gemini-relay/internal/metrics"
	"gemini-relay/internal/router"
	"gemini-relay/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "gemini-relay",
		Short:        "HTTP relay that forwards chat history to Gemini",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// ──── Step 1: Load Environment Variables ────
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	// ──── Step 2: Logger ────
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("🚀 Starting Gemini relay", zap.String("env", cfg.Env))

	// ──── Step 3: Initialize Gemini Client ────
	gemini, err := services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Error("✗ Gemini client initialization failed", zap.Error(err))
		return err
	}
	defer gemini.Close()
	log.Info("✓ Gemini client initialized", zap.String("model", gemini.ModelName()))

	// ──── Step 4: Services & Handlers ────
	m := metrics.NewWithProcessCollectors()
	chatService := services.NewChatService(gemini, log, m, services.WithRetryBackoff(cfg.RetryBackoff))

	r := router.New(
		handlers.NewHealthHandler(),
		handlers.NewChatHandler(chatService, log),
		m.Handler(),
		cfg.AllowedOrigins,
		log,
	)

	// ──── Step 5: Start HTTP Server ────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("✓ Gemini relay ready on http://localhost:%s", cfg.Port),
			zap.Strings("allowed_origins", cfg.AllowedOrigins))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
