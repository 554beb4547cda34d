package main

import (
	"context"
	"fmt"

	"github.com/granaflow/grana/internal/common"
	"github.com/granaflow/grana/internal/config"
	"github.com/granaflow/grana/internal/dictionary"
	"github.com/granaflow/grana/internal/engine"
	"github.com/granaflow/grana/internal/normalize"
	"github.com/granaflow/grana/internal/storage"
)

// openStorage opens the learned-pattern database and applies migrations.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, common.NewUserError("could not open the learned-pattern database", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("could not migrate the learned-pattern database", err)
	}

	return store, nil
}

// loadDictionary builds the dictionary store from the configured file, or
// the embedded curated set when none is configured.
func loadDictionary() (*dictionary.Store, error) {
	norm := normalize.New()

	path := config.DictionaryPath()
	if path == "" {
		return dictionary.Default(norm)
	}

	entries, err := dictionary.LoadFile(path)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not load dictionary %s", path), err)
	}
	return dictionary.New(entries, norm)
}

// buildEngine wires storage and dictionary into a classification engine.
// A positive batchSize overrides the default chunk size. The returned
// cleanup closes the database.
func buildEngine(ctx context.Context, batchSize int) (*engine.ClassificationEngine, func(), error) {
	store, err := openStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	dict, err := loadDictionary()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cfg := engine.DefaultConfig()
	if batchSize > 0 {
		cfg.BatchSize = batchSize
	}

	eng := engine.NewWithConfig(store, dict, cfg)
	cleanup := func() { _ = store.Close() }

	return eng, cleanup, nil
}
