// Package kvstore defines the persistent key-value store contract shared by
// the settings store and the profile cache. Backends live under
// modules/store; an in-memory implementation is provided for tests.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the key does not exist or its entry has expired.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a durable string key-value store with optional per-entry TTL.
// Implementations must be safe for concurrent use. Writes are idempotent
// upserts; last writer wins.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key. A zero ttl means the entry never
	// expires.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the entry for key. Deleting an absent key is a
	// no-op.
	Delete(ctx context.Context, key string) error
}

// Sweeper is an optional interface for stores that retain expired entries
// until explicitly purged. The retention cron job calls Sweep periodically.
type Sweeper interface {
	// Sweep removes expired entries and returns how many were purged.
	Sweep(ctx context.Context) (int, error)
}

// GetOrSeed returns the value for key, falling back to def when the key is
// absent. The default is persisted (without expiry) on first read so
// subsequent reads are stable.
func GetOrSeed(ctx context.Context, s Store, key, def string) (string, error) {
	v, err := s.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if err := s.Put(ctx, key, def, 0); err != nil {
		return "", err
	}
	return def, nil
}
