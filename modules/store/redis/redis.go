// Package redis implements the key-value store on a Redis server, for
// deployments that keep settings and profile caches in a shared external
// store instead of the local SQLite file. The message cache stays on SQLite;
// it needs ordered range reads the key-value contract does not offer.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
)

// Config holds the client's configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// KeyPrefix namespaces every key, so one server can back several
	// deployments.
	KeyPrefix string `yaml:"key_prefix"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "chatloop:"
	}
}

// Store implements kvstore.Store on Redis. Expiry is native: TTL'd entries
// vanish on their own, so there is nothing to sweep.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// New creates a Store. The connection is established lazily; call Ping to
// verify it eagerly.
func New(cfg Config, logger *slog.Logger) *Store {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: cfg.KeyPrefix,
		logger: logger.With("component", "redis"),
	}
}

// Interface guard.
var _ kvstore.Store = (*Store)(nil)

// Get implements kvstore.Store.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", kvstore.ErrNotFound
		}
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return v, nil
}

// Put implements kvstore.Store.
func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: put %s: %w", key, err)
	}
	return nil
}

// Delete implements kvstore.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
