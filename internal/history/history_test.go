package history_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chatloop-ai/chatloop/internal/history"
	"github.com/chatloop-ai/chatloop/internal/kvstore"
	"github.com/chatloop-ai/chatloop/pkg/chat"
	"github.com/chatloop-ai/chatloop/pkg/chat/chattest"
)

// countingEstimator counts Estimate calls so tests can assert that
// estimates are not recomputed pointlessly.
type countingEstimator struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEstimator) Estimate(text string) int {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return len(text)
}

func (e *countingEstimator) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func msg(channel, ts, author, text string) chat.Message {
	return chat.Message{ChannelID: channel, Timestamp: ts, AuthorID: author, Text: text}
}

// ---------------------------------------------------------------------------
// Idempotent upsert
// ---------------------------------------------------------------------------

func TestCache_Upsert_Idempotent(t *testing.T) {
	t.Parallel()

	est := &countingEstimator{}
	cache := history.NewCache(history.NewInMemoryStore(), est, nil)
	ctx := context.Background()

	first, err := cache.Upsert(ctx, msg("C1", "100.000100", "U1", "hello there"))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if first.EstimatedTokens != len("hello there") {
		t.Errorf("EstimatedTokens = %d, want %d", first.EstimatedTokens, len("hello there"))
	}
	if est.Calls() != 1 {
		t.Fatalf("estimator calls = %d, want 1", est.Calls())
	}

	// Unchanged resubmission: no recompute, same record.
	second, err := cache.Upsert(ctx, msg("C1", "100.000100", "U1", "hello there"))
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if second != first {
		t.Errorf("unchanged upsert returned %+v, want stored %+v", second, first)
	}
	if est.Calls() != 1 {
		t.Errorf("estimator calls after no-op upsert = %d, want 1", est.Calls())
	}
}

func TestCache_Upsert_EditReplaces(t *testing.T) {
	t.Parallel()

	est := &countingEstimator{}
	cache := history.NewCache(history.NewInMemoryStore(), est, nil)
	ctx := context.Background()

	if _, err := cache.Upsert(ctx, msg("C1", "100.000100", "U1", "original")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	edited, err := cache.Upsert(ctx, msg("C1", "100.000100", "U1", "original, but longer now"))
	if err != nil {
		t.Fatalf("Upsert edit: %v", err)
	}
	if edited.Text != "original, but longer now" {
		t.Errorf("Text = %q, want edited text", edited.Text)
	}
	if edited.EstimatedTokens != len("original, but longer now") {
		t.Errorf("EstimatedTokens = %d, want recomputed %d", edited.EstimatedTokens, len("original, but longer now"))
	}
	if est.Calls() != 2 {
		t.Errorf("estimator calls = %d, want 2", est.Calls())
	}

	// One record per key.
	recent, err := cache.Recent(ctx, "C1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("len(Recent) = %d, want 1", len(recent))
	}
}

// ---------------------------------------------------------------------------
// Recent ordering
// ---------------------------------------------------------------------------

func TestCache_Recent_NewestFirstCapped(t *testing.T) {
	t.Parallel()

	cache := history.NewCache(history.NewInMemoryStore(), &countingEstimator{}, nil)
	ctx := context.Background()

	for _, ts := range []string{"100.1", "300.3", "200.2", "400.4"} {
		if _, err := cache.Upsert(ctx, msg("C1", ts, "U1", "m"+ts)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	recent, err := cache.Recent(ctx, "C1", 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}

	want := []string{"400.4", "300.3", "200.2"}
	if len(recent) != len(want) {
		t.Fatalf("len(Recent) = %d, want %d", len(recent), len(want))
	}
	for i, ts := range want {
		if recent[i].Timestamp != ts {
			t.Errorf("Recent[%d].Timestamp = %q, want %q", i, recent[i].Timestamp, ts)
		}
	}
}

// ---------------------------------------------------------------------------
// Platform sync
// ---------------------------------------------------------------------------

func TestCache_Sync(t *testing.T) {
	t.Parallel()

	cache := history.NewCache(history.NewInMemoryStore(), &countingEstimator{}, nil)

	client := &chattest.MockClient{
		FetchHistoryFunc: func(_ context.Context, channelID string, limit int) ([]chat.Message, error) {
			return []chat.Message{
				msg(channelID, "200.2", "U2", "second"),
				msg(channelID, "100.1", "U1", "first"),
			}, nil
		},
	}

	n, err := cache.Sync(context.Background(), client, "C9", 200)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 2 {
		t.Errorf("Sync = %d, want 2", n)
	}

	recent, err := cache.Recent(context.Background(), "C9", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Text != "second" {
		t.Errorf("Recent after sync = %+v", recent)
	}
}

// ---------------------------------------------------------------------------
// Profile cache
// ---------------------------------------------------------------------------

func TestProfileCache_CachesWithinTTL(t *testing.T) {
	t.Parallel()

	kv := kvstore.NewInMemoryStore()
	client := &chattest.MockClient{
		ResolveUserProfileFunc: func(_ context.Context, userID string) (chat.Profile, error) {
			return chat.Profile{ID: userID, RealName: "Ryan"}, nil
		},
	}

	pc := history.NewProfileCache(kv, client, time.Hour, nil)
	ctx := context.Background()

	first, err := pc.Resolve(ctx, "U1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.RealName != "Ryan" {
		t.Errorf("RealName = %q, want Ryan", first.RealName)
	}

	// Second resolve must come from the cache.
	if _, err := pc.Resolve(ctx, "U1"); err != nil {
		t.Fatalf("Resolve cached: %v", err)
	}
	if client.ProfileCalls != 1 {
		t.Errorf("platform profile calls = %d, want 1", client.ProfileCalls)
	}
}

func TestProfileCache_ExpiredRefetches(t *testing.T) {
	t.Parallel()

	kv := kvstore.NewInMemoryStore()
	now := time.Now()
	kv.SetClock(func() time.Time { return now })

	client := &chattest.MockClient{
		ResolveUserProfileFunc: func(_ context.Context, userID string) (chat.Profile, error) {
			return chat.Profile{ID: userID, RealName: "Ryan"}, nil
		},
	}

	pc := history.NewProfileCache(kv, client, time.Hour, nil)
	ctx := context.Background()

	if _, err := pc.Resolve(ctx, "U1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := pc.Resolve(ctx, "U1"); err != nil {
		t.Fatalf("Resolve after expiry: %v", err)
	}
	if client.ProfileCalls != 2 {
		t.Errorf("platform profile calls = %d, want 2", client.ProfileCalls)
	}
}
