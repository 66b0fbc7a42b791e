package function

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chatloop-ai/chatloop/internal/completion"
)

// Sentinel errors for registry operations.
var (
	// ErrNotFound indicates the model requested a capability that is not
	// registered. This is a configuration error, distinct from a normal
	// completion failure.
	ErrNotFound = errors.New("function: not registered")

	// ErrDuplicate indicates two capabilities share a name.
	ErrDuplicate = errors.New("function: duplicate name")

	// ErrEmptyName indicates a capability with a blank name.
	ErrEmptyName = errors.New("function: empty name")
)

// Registry holds the capabilities for one orchestration run. It is built
// per run and not shared, so it needs no locking.
type Registry struct {
	caps  map[string]Capability
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]Capability)}
}

// Register adds a capability to the registry.
func (r *Registry) Register(c Capability) error {
	name := strings.TrimSpace(c.Name())
	if name == "" {
		return ErrEmptyName
	}
	if _, exists := r.caps[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.caps[name] = c
	r.order = append(r.order, name)
	return nil
}

// Definitions returns the capability catalog in registration order, shaped
// for the completion request.
func (r *Registry) Definitions() []completion.FunctionDef {
	defs := make([]completion.FunctionDef, 0, len(r.order))
	for _, name := range r.order {
		c := r.caps[name]
		defs = append(defs, completion.FunctionDef{
			Name:        c.Name(),
			Description: c.Description(),
			Parameters:  c.Schema(),
		})
	}
	return defs
}

// Invoke executes the named capability and returns its result as JSON.
// A capability's own failure is folded into the returned payload so the
// model can recover conversationally; only an unregistered name is
// surfaced as an error.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	c, ok := r.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result, err := c.Execute(ctx, args)
	if err != nil {
		return mustJSON(map[string]string{"error": err.Error()}), nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		return mustJSON(map[string]string{"error": fmt.Sprintf("unserializable result: %v", err)}), nil
	}
	return out, nil
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	return len(r.caps)
}

func mustJSON(v any) json.RawMessage {
	out, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"error":"internal encoding failure"}`)
	}
	return out
}
