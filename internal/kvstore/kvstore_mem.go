package kvstore

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe, in-memory implementation of Store,
// used in tests and as a fallback when no backend is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	// now is swappable for expiry tests.
	now func() time.Time
}

type memEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

// Compile-time interface guards.
var (
	_ Store   = (*InMemoryStore)(nil)
	_ Sweeper = (*InMemoryStore)(nil)
)

// SetClock replaces the store's clock. Test helper.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the value for key, or ErrNotFound if absent or expired.
func (s *InMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		return "", ErrNotFound
	}
	return e.value, nil
}

// Put stores value under key with an optional TTL.
func (s *InMemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Delete removes the entry for key.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Sweep removes expired entries.
func (s *InMemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.entries, k)
			purged++
		}
	}
	return purged, nil
}

// Len returns the number of stored entries, including expired ones not yet
// swept.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
