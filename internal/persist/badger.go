package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/logger"
)

type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
}

// Badger keeps the snapshot and settings of one tree in an embedded
// key-value store, the on-disk equivalent of browser local storage.
type Badger struct {
	DB     *badger.DB
	TreeID string
}

// badgerLogger routes badger's own messages into the process logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.With("component", "badger").Errorf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.With("component", "badger").Warnf(format, args...)
}

// Badger is chatty at info level.
func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.With("component", "badger").Debugf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.With("component", "badger").Debugf(format, args...)
}

func OpenBadger(cfg BadgerConfig, treeID string) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Badger{DB: db, TreeID: treeID}, nil
}

func (b *Badger) Close() error {
	return b.DB.Close()
}

func (b *Badger) snapshotKey() []byte { return []byte("lineage/" + b.TreeID + "/snapshot") }

func (b *Badger) settingsKey() []byte { return []byte("lineage/" + b.TreeID + "/settings") }

// Save writes snapshot and settings in one transaction.
func (b *Badger) Save(ctx context.Context, state model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := json.Marshal(state.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	settings, err := json.Marshal(state.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return b.DB.Update(func(txn *badger.Txn) error {
		if err := txn.Set(b.snapshotKey(), snap); err != nil {
			return err
		}
		return txn.Set(b.settingsKey(), settings)
	})
}

func (b *Badger) Load(ctx context.Context) (*model.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap, settings []byte
	err := b.DB.View(func(txn *badger.Txn) error {
		var err error
		if snap, err = readValue(txn, b.snapshotKey()); err != nil {
			return err
		}
		settings, err = readValue(txn, b.settingsKey())
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tree %s: %w", b.TreeID, err)
	}

	state := &model.State{Settings: model.DefaultSettings()}
	if err := json.Unmarshal(snap, &state.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := json.Unmarshal(settings, &state.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return state, nil
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
