package redis_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
	"github.com/chatloop-ai/chatloop/modules/store/redis"
)

// openStore connects to the Redis named by CHATLOOP_REDIS_ADDR, skipping
// the test when the variable is unset.
func openStore(t *testing.T) *redis.Store {
	t.Helper()
	addr := os.Getenv("CHATLOOP_REDIS_ADDR")
	if addr == "" {
		t.Skip("CHATLOOP_REDIS_ADDR not set, skipping Redis integration test")
	}

	s := redis.New(redis.Config{Addr: addr, KeyPrefix: "chatloop-test:"}, nil)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "absent"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("Get absent = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "model", "gpt-4-0613", 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	t.Cleanup(func() { _ = s.Delete(context.Background(), "model") })

	v, err := s.Get(ctx, "model")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "gpt-4-0613" {
		t.Errorf("value = %q", v)
	}

	if err := s.Delete(ctx, "model"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "model"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("Get deleted = %v, want ErrNotFound", err)
	}
}

func TestStore_TTL(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "ephemeral", "x", time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Get(ctx, "ephemeral"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := s.Get(ctx, "ephemeral"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("Get expired = %v, want ErrNotFound", err)
	}
}
