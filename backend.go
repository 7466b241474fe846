package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"todolist/internal/config"
	"todolist/internal/state"
	"todolist/internal/store"
)

// openBackend connects to the document store selected by cfg.Backend.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		s, err := store.OpenSQLiteStore(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendNeo4j:
		s, err := store.NewNeo4jStore(ctx, store.Neo4jConfig{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendHTTP:
		return store.NewHTTPStore(cfg.RemoteURL, cfg.RemoteTimeout.Duration), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// openHolder opens the configured backend and puts a state holder in front
// of it. The returned close func releases the backend.
func openHolder(ctx context.Context, log *zap.Logger) (*state.Holder, func(), error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	log.Debug("store opened", zap.String("backend", cfg.Backend))

	holder := state.New(store.NewAdapter(backend, log), state.WithLogger(log))
	closeFn := func() {
		if err := backend.Close(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}
	return holder, closeFn, nil
}
