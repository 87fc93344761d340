package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/ranchkit/kvstore"
)

func init() {
	kvstore.Register(kvstore.DriverRedis, func(cfg kvstore.Config) (kvstore.Store, error) {
		client, err := New(storeConfig(cfg))
		if err != nil {
			return nil, err
		}
		return NewStore(client), nil
	})
}

// Store adapts a Client to kvstore.Store. Keys are namespaced with the
// client's KeyPrefix.
type Store struct {
	client *Client
	prefix string
}

var _ kvstore.Store = (*Store)(nil)

// storeConfig maps a kvstore config to the client config of the redis driver.
func storeConfig(cfg kvstore.Config) Config {
	return Config{
		Enabled:   true,
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		KeyPrefix: cfg.Namespace,
	}
}

// NewStore creates a Store backed by client.
func NewStore(client *Client) *Store {
	return &Store{client: client, prefix: client.cfg.KeyPrefix}
}

func (s *Store) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get returns the value under key, or kvstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.fullKey(key))
	if errors.Is(err, goredis.Nil) {
		return "", kvstore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis store get %q: %w", key, err)
	}
	return v, nil
}

// Set stores value under key without expiration.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.fullKey(key), value, 0); err != nil {
		return fmt.Errorf("redis store set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)); err != nil {
		return fmt.Errorf("redis store remove %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
