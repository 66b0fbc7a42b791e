package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// DefaultProfileTTL is the freshness window for cached user profiles.
const DefaultProfileTTL = time.Hour

const profileKeyPrefix = "profile:"

// ProfileCache resolves user profiles through the platform client, caching
// results in the key-value store with a freshness window. It is injected
// per run rather than held in process-global state.
type ProfileCache struct {
	kv     kvstore.Store
	client chat.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewProfileCache creates a ProfileCache. A zero ttl uses DefaultProfileTTL.
func NewProfileCache(kv kvstore.Store, client chat.Client, ttl time.Duration, logger *slog.Logger) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileCache{
		kv:     kv,
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "profiles"),
		now:    time.Now,
	}
}

// Resolve returns the profile for userID, from cache when fresh.
func (p *ProfileCache) Resolve(ctx context.Context, userID string) (chat.Profile, error) {
	key := profileKeyPrefix + userID

	if raw, err := p.kv.Get(ctx, key); err == nil {
		var prof chat.Profile
		if err := json.Unmarshal([]byte(raw), &prof); err == nil {
			return prof, nil
		}
		// A corrupt cache entry is dropped and refetched.
		p.logger.Warn("dropping unparseable cached profile", "user", userID)
		_ = p.kv.Delete(ctx, key)
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		p.logger.Warn("profile cache read failed", "user", userID, "error", err)
	}

	prof, err := p.client.ResolveUserProfile(ctx, userID)
	if err != nil {
		return chat.Profile{}, fmt.Errorf("history: resolve profile %s: %w", userID, err)
	}
	prof.FetchedAt = p.now()

	if raw, err := json.Marshal(prof); err == nil {
		if err := p.kv.Put(ctx, key, string(raw), p.ttl); err != nil {
			p.logger.Warn("profile cache write failed", "user", userID, "error", err)
		}
	}

	return prof, nil
}
