package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/config"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/runtime"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := telemetry.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	gw, err := runtime.New(
		runtime.WithConfig(cfg),
		runtime.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gw.Start(ctx); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- gw.Wait() }()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping gateway...")
	case err := <-waitErr:
		if err != nil {
			logger.Error("gateway stopped", slog.String("error", err.Error()))
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gw.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
