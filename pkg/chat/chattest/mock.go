// Package chattest provides test helpers for the chat package.
package chattest

import (
	"context"
	"sync"

	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// MockClient is a configurable test double for chat.Client. Set the Func
// fields to control behavior; unset funcs panic on call. Safe for
// concurrent use.
type MockClient struct {
	FetchHistoryFunc       func(ctx context.Context, channelID string, limit int) ([]chat.Message, error)
	PostMessageFunc        func(ctx context.Context, channelID, text string) (chat.MessageHandle, error)
	UpdateMessageFunc      func(ctx context.Context, handle chat.MessageHandle, text string) error
	AddReactionFunc        func(ctx context.Context, handle chat.MessageHandle, emoji string) error
	ResolveUserProfileFunc func(ctx context.Context, userID string) (chat.Profile, error)

	mu           sync.Mutex
	FetchCalls   int
	PostCalls    int
	UpdateCalls  int
	ReactCalls   int
	ProfileCalls int

	Posted  []string
	Updated []string
	Emojis  []string
}

// FetchHistory delegates to FetchHistoryFunc and tracks call count.
func (m *MockClient) FetchHistory(ctx context.Context, channelID string, limit int) ([]chat.Message, error) {
	m.mu.Lock()
	m.FetchCalls++
	m.mu.Unlock()
	return m.FetchHistoryFunc(ctx, channelID, limit)
}

// PostMessage delegates to PostMessageFunc, recording the posted text.
func (m *MockClient) PostMessage(ctx context.Context, channelID, text string) (chat.MessageHandle, error) {
	m.mu.Lock()
	m.PostCalls++
	m.Posted = append(m.Posted, text)
	m.mu.Unlock()
	return m.PostMessageFunc(ctx, channelID, text)
}

// UpdateMessage delegates to UpdateMessageFunc, recording the updated text.
func (m *MockClient) UpdateMessage(ctx context.Context, handle chat.MessageHandle, text string) error {
	m.mu.Lock()
	m.UpdateCalls++
	m.Updated = append(m.Updated, text)
	m.mu.Unlock()
	return m.UpdateMessageFunc(ctx, handle, text)
}

// AddReaction delegates to AddReactionFunc, recording the emoji.
func (m *MockClient) AddReaction(ctx context.Context, handle chat.MessageHandle, emoji string) error {
	m.mu.Lock()
	m.ReactCalls++
	m.Emojis = append(m.Emojis, emoji)
	m.mu.Unlock()
	return m.AddReactionFunc(ctx, handle, emoji)
}

// ResolveUserProfile delegates to ResolveUserProfileFunc and tracks call
// count.
func (m *MockClient) ResolveUserProfile(ctx context.Context, userID string) (chat.Profile, error) {
	m.mu.Lock()
	m.ProfileCalls++
	m.mu.Unlock()
	return m.ResolveUserProfileFunc(ctx, userID)
}

// Interface guard.
var _ chat.Client = (*MockClient)(nil)
