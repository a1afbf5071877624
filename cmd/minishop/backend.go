package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
)

// openBackend returns the configured backend, an optional seed backend and a
// close func that is always safe to call.
func openBackend(ctx context.Context, cfg *config.Config) (catalog.Backend, catalog.Backend, func(), error) {
	var seed catalog.Backend
	if cfg.Store.SeedPath != "" {
		seed = catalog.NewFileBackend(cfg.Store.SeedPath)
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.Store.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}

		b := catalog.NewPostgresBackend(db, cfg.Store.Document)
		if err := b.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return b, seed, func() { _ = db.Close() }, nil

	default:
		return catalog.NewFileBackend(cfg.Store.Path), seed, func() {}, nil
	}
}
