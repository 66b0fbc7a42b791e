// Package history maintains the per-channel conversation message cache.
// The chat platform remains the source of truth; this cache is a derived
// projection that exists to avoid re-estimating token counts and
// refetching full history on every turn. Writes are idempotent upserts
// keyed by (channel, timestamp); concurrent runs get last-writer-wins
// consistency.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// ErrNotFound indicates no message is stored under the requested key.
var ErrNotFound = errors.New("history: message not found")

// Store is the durable message cache contract. Implementations live under
// modules/store and must be safe for concurrent use.
type Store interface {
	// Get returns the stored message for (channelID, timestamp), or
	// ErrNotFound.
	Get(ctx context.Context, channelID, timestamp string) (chat.Message, error)

	// Put persists msg, replacing any prior record with the same key.
	Put(ctx context.Context, msg chat.Message) error

	// Recent returns up to n messages for the channel, newest first.
	Recent(ctx context.Context, channelID string, n int) ([]chat.Message, error)
}

// Estimator estimates the token count of a message text.
type Estimator interface {
	Estimate(text string) int
}

// Cache layers idempotent upsert semantics and token-estimate reuse over a
// Store.
type Cache struct {
	store     Store
	estimator Estimator
	logger    *slog.Logger
}

// NewCache creates a Cache over the given store and estimator.
func NewCache(store Store, estimator Estimator, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:     store,
		estimator: estimator,
		logger:    logger.With("component", "history"),
	}
}

// Upsert stores msg if it is new or edited. An unchanged resubmission
// returns the stored record without recomputing its token estimate; a
// changed text (edit) recomputes the estimate and replaces the record.
func (c *Cache) Upsert(ctx context.Context, msg chat.Message) (chat.Message, error) {
	existing, err := c.store.Get(ctx, msg.ChannelID, msg.Timestamp)
	switch {
	case err == nil:
		if existing.Text == msg.Text {
			return existing, nil
		}
	case !errors.Is(err, ErrNotFound):
		return chat.Message{}, fmt.Errorf("history: lookup %s/%s: %w", msg.ChannelID, msg.Timestamp, err)
	}

	msg.EstimatedTokens = c.estimator.Estimate(msg.Text)
	if err := c.store.Put(ctx, msg); err != nil {
		return chat.Message{}, fmt.Errorf("history: store %s/%s: %w", msg.ChannelID, msg.Timestamp, err)
	}
	return msg, nil
}

// Recent returns up to n cached messages for the channel, newest first.
func (c *Cache) Recent(ctx context.Context, channelID string, n int) ([]chat.Message, error) {
	msgs, err := c.store.Recent(ctx, channelID, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent %s: %w", channelID, err)
	}
	return msgs, nil
}

// Sync fetches up to limit raw messages for the channel from the platform
// and upserts each into the cache. Returns the number of messages
// processed. Individual upsert failures abort the sync: cache writes must
// only ever derive from successfully parsed data.
func (c *Cache) Sync(ctx context.Context, client chat.Client, channelID string, limit int) (int, error) {
	raw, err := client.FetchHistory(ctx, channelID, limit)
	if err != nil {
		return 0, fmt.Errorf("history: fetch %s: %w", channelID, err)
	}

	for _, msg := range raw {
		if _, err := c.Upsert(ctx, msg); err != nil {
			return 0, err
		}
	}

	c.logger.Debug("history synced", "channel", channelID, "messages", len(raw))
	return len(raw), nil
}
