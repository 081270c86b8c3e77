package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scholarship/internal/api"
	"scholarship/internal/config"
	"scholarship/internal/host"
	"scholarship/internal/ledger"
	"scholarship/internal/retry"
	"scholarship/internal/storage"
)

func main() {
	// 1. Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Configure logger
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	temporaryTier := cfg.StorageDriver
	if cfg.RedisURL != "" {
		temporaryTier = "redis"
	}

	slog.Info("Configuration loaded",
		"contract_id", cfg.ContractID,
		"network", cfg.NetworkPassphrase,
		"storage_driver", cfg.StorageDriver,
		"temporary_tier", temporaryTier,
		"log_level", cfg.LogLevel,
	)

	// 3. Connect storage, retrying while backends come up
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	strategy := retry.NewStrategy(cfg.Retry)
	backend, err := storage.Open(ctx, cfg.StorageOptions(), strategy)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer backend.Close()

	// 4. Host the contract
	h := host.New(backend, host.SystemClock{}, host.Config{
		ContractID:        cfg.ContractID,
		NetworkPassphrase: cfg.NetworkPassphrase,
		TemporaryTTL:      cfg.TemporaryTTL,
	})
	client := ledger.NewClient(h)

	initialized, err := client.IsInitialized(ctx)
	if err != nil {
		log.Fatalf("Failed to read contract state: %v", err)
	}
	slog.Info("Contract loaded", "initialized", initialized)

	// 5. Start API server
	server := api.NewServer(cfg.APIPort, client)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	// 6. Wait for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Warn("Interrupt received, shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping API server", "error", err)
	}

	slog.Info("Scholarship ledger stopped")
}
