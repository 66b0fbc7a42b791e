//go:build integration

package openai

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/chatloop-ai/chatloop/internal/completion"
)

func TestIntegration_Complete(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := New(Config{APIKey: apiKey}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Complete(ctx, completion.Request{
		Model: "gpt-4o-mini",
		Entries: []completion.Entry{
			{Role: completion.RoleUser, Content: "Say exactly: hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content == "" {
		t.Error("expected non-empty content")
	}
	t.Logf("Response: %q (tokens: %+v)", resp.Content, resp.Usage)
}
