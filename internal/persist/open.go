package persist

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core/store"
	"github.com/agenthands/lineage/internal/driver"
	"github.com/agenthands/lineage/internal/logger"
)

// Open builds the persister named by cfg.Storage.Backend. The returned
// close function is never nil. A "none" backend yields a nil persister.
func Open(ctx context.Context, cfg *config.Config) (store.Persister, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case "", "none":
		logger.Info("persistence disabled")
		return nil, noop, nil

	case "badger":
		path := filepath.Join(cfg.Storage.DataDir, "badger")
		b, err := OpenBadger(BadgerConfig{Path: path, SyncWrites: true}, cfg.Storage.TreeID)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using badger storage", "path", path, "tree", cfg.Storage.TreeID)
		return b, b.Close, nil

	case "memgraph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password)
		if err != nil {
			return nil, noop, err
		}
		if err := d.BuildIndices(ctx); err != nil {
			_ = d.Close(ctx)
			return nil, noop, fmt.Errorf("build indices: %w", err)
		}
		logger.Info("using memgraph storage", "uri", cfg.Memgraph.URI, "tree", cfg.Storage.TreeID)
		return NewMemgraph(d, cfg.Storage.TreeID), func() error { return d.Close(context.Background()) }, nil
	}

	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
