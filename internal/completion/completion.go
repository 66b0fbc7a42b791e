package completion

import "context"

// Client is the interface for communicating with an LLM completion service.
type Client interface {
	// Complete sends a completion request and returns the full response.
	// Expected failure conditions are reported through the sentinel
	// errors in this package, never through panics.
	Complete(ctx context.Context, req Request) (Response, error)
}
