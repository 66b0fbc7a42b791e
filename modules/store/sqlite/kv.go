package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
)

// kvStore implements kvstore.Store backed by SQLite. Expiry is lazy on read;
// the retention job sweeps expired rows out for real.
type kvStore struct {
	db  *sql.DB
	now func() time.Time
}

// Get implements kvstore.Store. An expired entry reads as absent even
// before the sweeper removes it.
func (s *kvStore) Get(ctx context.Context, key string) (string, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM kv_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", kvstore.ErrNotFound
		}
		return "", fmt.Errorf("sqlite: get %s: %w", key, err)
	}

	if expiresAt > 0 && expiresAt <= s.now().Unix() {
		return "", kvstore.ErrNotFound
	}
	return value, nil
}

// Put implements kvstore.Store.
func (s *kvStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: put %s: %w", key, err)
	}
	return nil
}

// Delete implements kvstore.Store.
func (s *kvStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	return nil
}

// Sweep implements kvstore.Sweeper.
func (s *kvStore) Sweep(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM kv_entries WHERE expires_at > 0 AND expires_at <= ?",
		s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: sweep count: %w", err)
	}
	return int(n), nil
}
