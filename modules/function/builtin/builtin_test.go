package builtin_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
	"github.com/chatloop-ai/chatloop/internal/metrics"
	"github.com/chatloop-ai/chatloop/internal/settings"
	"github.com/chatloop-ai/chatloop/modules/function/builtin"
)

func newStore(t *testing.T) *settings.Store {
	t.Helper()
	return settings.New(kvstore.NewInMemoryStore(), nil)
}

func TestAll(t *testing.T) {
	t.Parallel()

	caps := builtin.All(newStore(t), &metrics.Counters{})
	want := []string{"get_bot_setting", "set_bot_setting", "check_bot_health"}
	if len(caps) != len(want) {
		t.Fatalf("capabilities = %d, want %d", len(caps), len(want))
	}
	for i, c := range caps {
		if c.Name() != want[i] {
			t.Errorf("caps[%d] = %q, want %q", i, c.Name(), want[i])
		}
		if c.Description() == "" {
			t.Errorf("%s has no description", c.Name())
		}
		var schema map[string]any
		if err := json.Unmarshal(c.Schema(), &schema); err != nil {
			t.Errorf("%s schema is not valid JSON: %v", c.Name(), err)
		}
	}
}

func TestGetSetting(t *testing.T) {
	t.Parallel()

	g := &builtin.GetSetting{Store: newStore(t)}
	ctx := context.Background()

	out, err := g.Execute(ctx, json.RawMessage(`{"key": "model"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got := out.(map[string]string)
	if got["model"] != settings.DefaultModel {
		t.Errorf("model = %q, want default", got["model"])
	}

	if _, err := g.Execute(ctx, json.RawMessage(`{"key": "api_key"}`)); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := g.Execute(ctx, json.RawMessage(`{`)); err == nil {
		t.Error("expected error for malformed arguments")
	}
}

func TestSetSetting(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	s := &builtin.SetSetting{Store: store}
	ctx := context.Background()

	out, err := s.Execute(ctx, json.RawMessage(`{"key": "temperature", "value": "0.5"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got := out.(map[string]string)
	if got["temperature"] != "0.5" {
		t.Errorf("temperature = %q", got["temperature"])
	}
	if !strings.Contains(got["message"], "temperature => 0.5") {
		t.Errorf("message = %q", got["message"])
	}
	if v := store.Temperature(ctx); v != 0.5 {
		t.Errorf("stored temperature = %v", v)
	}

	if _, err := s.Execute(ctx, json.RawMessage(`{"key": "system_prompt", "value": "x"}`)); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestCheckHealth(t *testing.T) {
	t.Parallel()

	var counters metrics.Counters
	counters.RecordEvent()
	counters.RecordEvent()
	counters.RecordResponse(120, 800*time.Millisecond)
	counters.RecordFailure()

	c := &builtin.CheckHealth{Store: newStore(t), Counters: &counters}
	ctx := context.Background()

	out, err := c.Execute(ctx, json.RawMessage(`{"key": "summary"}`))
	if err != nil {
		t.Fatalf("Execute summary: %v", err)
	}
	summary := out.(map[string]string)["summary"]
	for _, want := range []string{settings.DefaultModel, "received 2 messages", "sent 1 responses", "1 failures", "120 tokens"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary %q missing %q", summary, want)
		}
	}

	out, err = c.Execute(ctx, json.RawMessage(`{"key": "metrics"}`))
	if err != nil {
		t.Fatalf("Execute metrics: %v", err)
	}
	m := out.(map[string]any)
	if m["events_received"] != int64(2) || m["total_tokens_used"] != int64(120) {
		t.Errorf("metrics = %v", m)
	}
	if m["average_latency_ms"] != int64(800) {
		t.Errorf("average_latency_ms = %v", m["average_latency_ms"])
	}

	if _, err := c.Execute(ctx, json.RawMessage(`{"key": "alarms"}`)); err == nil {
		t.Error("expected error for unknown health key")
	}
}
