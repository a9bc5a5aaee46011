// Package store provides the key-value storage the game snapshots into.
//
// Backends:
//   - memory: map guarded by an RWMutex; state is lost on exit.
//   - file:   one file per key under a directory, replaced atomically.
//   - sqlite: a single kv table in a WAL-journaled database.
package store

import (
	"context"
	"fmt"
	"strings"
)

// Store is a flat string key-value store.
type Store interface {
	// Get returns the value for key. found is false when the key has never
	// been written.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	Close() error
}

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string // file backend root
	DBPath  string // sqlite database path
}

// Open constructs the backend named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(opts.Dir)
	case BackendSQLite:
		return NewSQLiteStore(opts.DBPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// StateKey is the key a game instance snapshots under. Distinct game ids
// never share a key.
func StateKey(gameID string) string {
	return "cyber-clicker/" + gameID + "/state"
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if strings.ContainsRune(key, 0) {
		return fmt.Errorf("key %q contains NUL", key)
	}
	return nil
}
