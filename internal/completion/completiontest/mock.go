// Package completiontest provides test helpers for the completion package.
package completiontest

import (
	"context"
	"sync"

	"github.com/chatloop-ai/chatloop/internal/completion"
)

// MockClient is a configurable test double for completion.Client.
// Set CompleteFunc to control behavior; an unset func panics on call.
// Safe for concurrent use.
type MockClient struct {
	CompleteFunc func(ctx context.Context, req completion.Request) (completion.Response, error)

	mu            sync.Mutex
	CompleteCalls int
	Requests      []completion.Request
}

// Complete delegates to CompleteFunc, tracking call count and requests.
func (m *MockClient) Complete(ctx context.Context, req completion.Request) (completion.Response, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

// Calls returns the number of Complete invocations so far.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CompleteCalls
}

// Request returns the i-th recorded request.
func (m *MockClient) Request(i int) completion.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests[i]
}

// Interface guard.
var _ completion.Client = (*MockClient)(nil)
