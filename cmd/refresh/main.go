// Command refresh downloads the pickup point files once, for cron jobs.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"olza-admin/internal/config"
	"olza-admin/internal/database"
	"olza-admin/internal/events"
	"olza-admin/internal/logger"
	"olza-admin/internal/services/pickup"
	"olza-admin/internal/settings"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Println("Failed to load configuration:", err)
		return 1
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	if err := cfg.ValidateRefresh(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logger.Error("Failed to connect to database: %v", err)
		return 1
	}
	defer db.Close()

	store := settings.NewStore(db.DB, logger)
	stored, err := store.Load(ctx)
	if err != nil {
		logger.Error("Failed to load settings: %v", err)
		return 1
	}

	publisher := events.New(cfg, logger)
	defer publisher.Close()

	logger.Info("Starting pickup point refresh...")
	report, err := pickup.NewFromConfig(cfg, publisher, logger).RefreshPickupPointFiles(ctx, stored)
	if err != nil {
		logger.Error("Refresh aborted: %v", err)
		return 1
	}

	for _, line := range report.Messages {
		logger.Info("%s", line)
	}
	for _, line := range report.Errors {
		logger.Warn("%s", line)
	}
	if !report.Success {
		logger.Error("Refresh %s failed", report.RunID)
		return 1
	}
	return 0
}
