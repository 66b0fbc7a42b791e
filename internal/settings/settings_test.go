package settings_test

import (
	"context"
	"testing"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
	"github.com/chatloop-ai/chatloop/internal/settings"
)

func newStore(t *testing.T) (*settings.Store, *kvstore.InMemoryStore) {
	t.Helper()
	kv := kvstore.NewInMemoryStore()
	return settings.New(kv, nil), kv
}

// ---------------------------------------------------------------------------
// Defaults and seeding
// ---------------------------------------------------------------------------

func TestModel_DefaultSeeded(t *testing.T) {
	t.Parallel()

	s, kv := newStore(t)
	ctx := context.Background()

	if got := s.Model(ctx); got != settings.DefaultModel {
		t.Errorf("Model = %q, want default %q", got, settings.DefaultModel)
	}

	// The default must be persisted by the first read.
	v, err := kv.Get(ctx, settings.KeyModel)
	if err != nil {
		t.Fatalf("default not persisted: %v", err)
	}
	if v != settings.DefaultModel {
		t.Errorf("persisted default = %q, want %q", v, settings.DefaultModel)
	}
}

func TestTemperature_Default(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	if got := s.Temperature(context.Background()); got != settings.DefaultTemperature {
		t.Errorf("Temperature = %v, want %v", got, settings.DefaultTemperature)
	}
}

func TestStatusEmojis_DefaultTrue(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	if !s.StatusEmojis(context.Background()) {
		t.Error("StatusEmojis default = false, want true")
	}
}

// ---------------------------------------------------------------------------
// Coercion
// ---------------------------------------------------------------------------

func TestSetTemperature_Coercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64
	}{
		{"high", 1.0},
		{"High priority", 1.0},
		{"medium", 0.7},
		{"low", 0.5},
		{"0.35", 0.35},
		{"certainly not a temperature", settings.DefaultTemperature},
		{"", settings.DefaultTemperature},
	}

	for _, tt := range tests {
		s, _ := newStore(t)
		got, err := s.SetTemperature(context.Background(), tt.raw)
		if err != nil {
			t.Fatalf("SetTemperature(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("SetTemperature(%q) = %v, want %v", tt.raw, got, tt.want)
		}
		// The coerced value must be what a subsequent read returns.
		if read := s.Temperature(context.Background()); read != tt.want {
			t.Errorf("Temperature after SetTemperature(%q) = %v, want %v", tt.raw, read, tt.want)
		}
	}
}

func TestSetModel_Coercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"gpt-3.5-turbo-16k", "gpt-3.5-turbo-16k-0613"},
		{"GPT 3 16K", "gpt-3.5-turbo-16k-0613"},
		{"gpt-3.5", "gpt-3.5-turbo-0613"},
		{"gpt_3", "gpt-3.5-turbo-0613"},
		{"GPT-4", "gpt-4-0613"},
		{"something else entirely", settings.DefaultModel},
	}

	for _, tt := range tests {
		s, _ := newStore(t)
		got, err := s.SetModel(context.Background(), tt.raw)
		if err != nil {
			t.Fatalf("SetModel(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("SetModel(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSetStatusEmojis_Coercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"Yes", true},
		{"enabled", true},
		{"active", true},
		{"false", false},
		{"off", false},
		{"", false},
	}

	for _, tt := range tests {
		s, _ := newStore(t)
		got, err := s.SetStatusEmojis(context.Background(), tt.raw)
		if err != nil {
			t.Fatalf("SetStatusEmojis(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("SetStatusEmojis(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Generic access
// ---------------------------------------------------------------------------

func TestGenericGetSet(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()

	stored, err := s.Set(ctx, settings.KeyTemperature, "medium")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if stored != "0.7" {
		t.Errorf("Set(temperature, medium) = %q, want %q", stored, "0.7")
	}

	if got := s.Get(ctx, settings.KeyTemperature); got != "0.7" {
		t.Errorf("Get(temperature) = %q, want %q", got, "0.7")
	}

	// Unknown keys round-trip verbatim.
	if _, err := s.Set(ctx, "custom_flag", "whatever"); err != nil {
		t.Fatalf("Set custom: %v", err)
	}
	if got := s.Get(ctx, "custom_flag"); got != "whatever" {
		t.Errorf("Get(custom_flag) = %q, want %q", got, "whatever")
	}

	// Absent unknown keys read as empty, never error.
	if got := s.Get(ctx, "missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}
