package function_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chatloop-ai/chatloop/internal/function"
)

// ---
// Test capability
// ---

type fakeCapability struct {
	name        string
	description string
	schema      json.RawMessage
	execute     func(ctx context.Context, args json.RawMessage) (any, error)
}

func (c *fakeCapability) Name() string            { return c.name }
func (c *fakeCapability) Description() string     { return c.description }
func (c *fakeCapability) Schema() json.RawMessage { return c.schema }

func (c *fakeCapability) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	if c.execute != nil {
		return c.execute(ctx, args)
	}
	return nil, nil
}

func newFake(name string) *fakeCapability {
	return &fakeCapability{
		name:        name,
		description: "fake " + name,
		schema:      json.RawMessage(`{"type":"object","properties":{}}`),
	}
}

// ---
// Register
// ---

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := function.NewRegistry()
	if err := r.Register(newFake("get_setting")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	r := function.NewRegistry()
	if err := r.Register(newFake("get_setting")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register(newFake("get_setting"))
	if !errors.Is(err, function.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestRegistry_RegisterEmptyName(t *testing.T) {
	t.Parallel()

	r := function.NewRegistry()
	err := r.Register(newFake("   "))
	if !errors.Is(err, function.ErrEmptyName) {
		t.Errorf("error = %v, want ErrEmptyName", err)
	}
}

// ---
// Definitions
// ---

func TestRegistry_DefinitionsOrder(t *testing.T) {
	t.Parallel()

	r := function.NewRegistry()
	for _, name := range []string{"set_setting", "get_setting", "check_health"} {
		if err := r.Register(newFake(name)); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("definitions = %d, want 3", len(defs))
	}
	want := []string{"set_setting", "get_setting", "check_health"}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("defs[%d].Name = %q, want %q", i, def.Name, want[i])
		}
	}
}

// ---
// Invoke
// ---

func TestRegistry_Invoke(t *testing.T) {
	t.Parallel()

	cap := newFake("get_setting")
	cap.execute = func(_ context.Context, args json.RawMessage) (any, error) {
		var in struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, err
		}
		return map[string]string{in.Key: "gpt-4-0613"}, nil
	}

	r := function.NewRegistry()
	if err := r.Register(cap); err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := r.Invoke(context.Background(), "get_setting", json.RawMessage(`{"key":"model"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got["model"] != "gpt-4-0613" {
		t.Errorf("result = %v", got)
	}
}

func TestRegistry_InvokeUnknown(t *testing.T) {
	t.Parallel()

	r := function.NewRegistry()
	_, err := r.Invoke(context.Background(), "launch_rockets", nil)
	if !errors.Is(err, function.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_InvokeCapabilityErrorFolded(t *testing.T) {
	t.Parallel()

	cap := newFake("get_setting")
	cap.execute = func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("unknown key: tempreture")
	}

	r := function.NewRegistry()
	if err := r.Register(cap); err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := r.Invoke(context.Background(), "get_setting", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Invoke: %v (capability failure must fold into payload)", err)
	}
	if !strings.Contains(string(out), "unknown key") {
		t.Errorf("payload = %s, want folded error", out)
	}
}
