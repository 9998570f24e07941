package api

import (
	"context"
	"fmt"

	"olza-admin/internal/auth"
	"olza-admin/internal/config"
	"olza-admin/internal/database"
	"olza-admin/internal/events"
	"olza-admin/internal/logger"
	"olza-admin/internal/settings"
)

// Bootstrap resolves secrets, opens the database, makes sure the settings
// record and the first admin exist, and builds the server. The returned func
// releases the database and the event publisher.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Server, func(), error) {
	if err := cfg.ResolveSecrets(ctx); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if err := settings.NewStore(db.DB, logger).Activate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize settings: %w", err)
	}
	if err := auth.NewService(db.DB, logger).EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	publisher := events.New(cfg, logger)

	server, err := New(cfg, logger, db, publisher)
	if err != nil {
		publisher.Close()
		db.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher: %v", err)
		}
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database: %v", err)
		}
	}
	return server, closeFn, nil
}
