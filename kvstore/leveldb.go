package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/kbukum/ranchkit/logger"
)

// LevelDB is an on-disk Store backed by goleveldb.
type LevelDB struct {
	db     *leveldb.DB
	path   string
	prefix string
	log    *logger.Logger
}

// OpenLevelDB opens (or creates) a LevelDB database at path. Keys are
// stored under prefix when it is non-empty.
func OpenLevelDB(path, prefix string) (*LevelDB, error) {
	if path == "" {
		return nil, fmt.Errorf("kvstore: leveldb path is required")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open leveldb %s: %w", path, err)
	}
	l := &LevelDB{db: db, path: path, prefix: prefix, log: logger.Get("kvstore")}
	l.log.Debug("leveldb store opened", logger.Fields("path", path))
	return l, nil
}

func (l *LevelDB) key(k string) []byte {
	if l.prefix == "" {
		return []byte(k)
	}
	return []byte(l.prefix + ":" + k)
}

// Get returns the value under key.
func (l *LevelDB) Get(_ context.Context, key string) (string, error) {
	b, err := l.db.Get(l.key(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kvstore: leveldb get %q: %w", key, err)
	}
	return string(b), nil
}

// Set stores value under key.
func (l *LevelDB) Set(_ context.Context, key, value string) error {
	if err := l.db.Put(l.key(key), []byte(value), nil); err != nil {
		return fmt.Errorf("kvstore: leveldb set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (l *LevelDB) Remove(_ context.Context, key string) error {
	if err := l.db.Delete(l.key(key), nil); err != nil {
		return fmt.Errorf("kvstore: leveldb remove %q: %w", key, err)
	}
	return nil
}

// Path returns the database directory.
func (l *LevelDB) Path() string { return l.path }

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
