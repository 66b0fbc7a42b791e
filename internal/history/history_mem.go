package history

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// InMemoryStore is a thread-safe, in-memory implementation of Store for
// tests and ephemeral runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	msgs map[string]map[string]chat.Message // channelID → timestamp → message
}

// NewInMemoryStore creates an empty in-memory message store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{msgs: make(map[string]map[string]chat.Message)}
}

// Compile-time interface guard.
var _ Store = (*InMemoryStore)(nil)

// Get returns the stored message for (channelID, timestamp).
func (s *InMemoryStore) Get(_ context.Context, channelID, timestamp string) (chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.msgs[channelID][timestamp]; ok {
		return m, nil
	}
	return chat.Message{}, ErrNotFound
}

// Put persists msg, replacing any prior record with the same key.
func (s *InMemoryStore) Put(_ context.Context, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.msgs[msg.ChannelID] == nil {
		s.msgs[msg.ChannelID] = make(map[string]chat.Message)
	}
	s.msgs[msg.ChannelID][msg.Timestamp] = msg
	return nil
}

// Recent returns up to n messages for the channel, newest first. Timestamps
// compare numerically when parseable, lexically otherwise.
func (s *InMemoryStore) Recent(_ context.Context, channelID string, n int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil, nil
	}

	out := make([]chat.Message, 0, len(s.msgs[channelID]))
	for _, m := range s.msgs[channelID] {
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return timestampLess(out[j].Timestamp, out[i].Timestamp)
	})

	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func timestampLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}
