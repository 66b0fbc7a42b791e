// Package sqlite implements the persistent key-value store and the
// conversation message cache on a single SQLite database. It uses
// modernc.org/sqlite (pure Go, no CGO) with WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chatloop-ai/chatloop/internal/history"
	"github.com/chatloop-ai/chatloop/internal/kvstore"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultDBFile = "chatloop.db"

// Config holds the store's configuration.
type Config struct {
	// Path is the database file. Empty resolves to chatloop.db in the
	// data directory passed to Open.
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy_timeout in milliseconds.
	BusyTimeout int `yaml:"busy_timeout"`

	// WAL enables write-ahead logging. Nil means enabled.
	WAL *bool `yaml:"wal"`
}

func (c *Config) defaults() {
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5000
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

// Store owns the database and exposes the key-value and message-cache
// views over it.
type Store struct {
	config  Config
	db      *sql.DB
	logger  *slog.Logger
	kv      *kvStore
	history *historyStore
}

// Compile-time interface guards.
var (
	_ kvstore.Store   = (*kvStore)(nil)
	_ kvstore.Sweeper = (*kvStore)(nil)
	_ history.Store   = (*historyStore)(nil)
)

// Open opens (creating if needed) the database under cfg.Path, applying the
// schema. dataDir is used when cfg.Path is empty.
func Open(cfg Config, dataDir string, logger *slog.Logger) (*Store, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		cfg.Path = filepath.Join(dataDir, defaultDBFile)
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}

	// SQLite handles one writer at a time; limit the pool to 1 connection
	// so PRAGMAs apply consistently.
	db.SetMaxOpenConns(1)

	ctx := context.TODO()
	if cfg.walEnabled() {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		config:  cfg,
		db:      db,
		logger:  logger.With("component", "sqlite"),
		kv:      &kvStore{db: db, now: time.Now},
		history: &historyStore{db: db},
	}
	s.logger.Info("database open", "path", cfg.Path)
	return s, nil
}

// KV returns the key-value view.
func (s *Store) KV() kvstore.Store {
	return s.kv
}

// History returns the message-cache view.
func (s *Store) History() history.Store {
	return s.history
}

// Sweep purges expired key-value entries.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	return s.kv.Sweep(ctx)
}

// SetClock replaces the expiry clock. For tests.
func (s *Store) SetClock(now func() time.Time) {
	s.kv.now = now
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
