package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/cmlopes/contaflow/internal/catalog"
	"github.com/cmlopes/contaflow/internal/config"
	"github.com/cmlopes/contaflow/internal/service"
	"github.com/cmlopes/contaflow/internal/storage"
)

// initStorage opens the database, runs migrations, and seeds the rule store
// on first use.
func initStorage(ctx context.Context, cat *catalog.Catalog) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/contaflow/contaflow.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if cat != nil {
		if err := store.SeedRules(ctx, cat.SeedRules()); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to seed rules: %w", err)
		}
	}

	return store, nil
}

// loadCatalog loads the category catalog, honoring a configured override.
func loadCatalog() (*catalog.Catalog, error) {
	path := viper.GetString("catalog.path")
	if path != "" {
		path = config.ExpandPath(path)
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load category catalog: %w", err)
	}
	return cat, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
}
