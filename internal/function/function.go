// Package function defines the capability registry the model can call into.
// Capabilities are trusted, in-process code: the registry is an explicit
// registration table assembled fresh for each orchestration run with that
// run's collaborators injected, never a process-global discovered at
// startup via reflection.
package function

import (
	"context"
	"encoding/json"
)

// Capability is one named, schema-described operation the model may invoke.
type Capability interface {
	// Name returns the unique identifier the model calls the capability
	// by.
	Name() string

	// Description tells the model what the capability does.
	Description() string

	// Schema returns a JSON-schema object describing the capability's
	// parameters. It is passed to the completion service verbatim.
	Schema() json.RawMessage

	// Execute runs the capability. Malformed arguments must produce a
	// descriptive error, not a panic; the registry folds errors into the
	// payload returned to the model so the conversation can continue.
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}
