// Package kvstore persists small named blobs, such as the master price
// table, so they survive a restart.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/stockval/internal/config"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("key not found")

// Store is a flat key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Backend names accepted in config.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// sqliteFile is the database file name used inside the store directory.
const sqliteFile = "stockval.db"

// Open builds the store selected by cfg.Backend. Relative paths are resolved
// against baseDir.
func Open(ctx context.Context, cfg config.StoreConfig, baseDir string) (Store, error) {
	path := cfg.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFile(path)
	case BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(path, sqliteFile))
	case BackendMongo:
		return OpenMongo(ctx, cfg.URI, cfg.Database, cfg.Collection)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("empty key")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
