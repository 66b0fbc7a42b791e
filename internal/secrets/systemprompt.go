package secrets

import (
	"context"
	"log/slog"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
)

// SystemPromptKey is the store key the active system prompt lives under.
const SystemPromptKey = "system_prompt"

// DefaultSystemPrompt seeds the store the first time the prompt is read.
// Operators change the live prompt through the store, not by editing this.
const DefaultSystemPrompt = `You are a helpful assistant in a team chat. ` +
	`You see recent channel messages prefixed with a timestamp and the ` +
	`author's name; your own earlier replies appear without a prefix. ` +
	`Answer the most recent message, concisely, in plain language. Use the ` +
	`available functions to read or change your own settings when asked.`

// SystemPrompt reads the active system prompt, seeding the default into the
// store on first read so operators can edit it afterwards.
type SystemPrompt struct {
	kv     kvstore.Store
	def    string
	logger *slog.Logger
}

// NewSystemPrompt creates a SystemPrompt over the store. An empty def falls
// back to DefaultSystemPrompt.
func NewSystemPrompt(kv kvstore.Store, def string, logger *slog.Logger) *SystemPrompt {
	if def == "" {
		def = DefaultSystemPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemPrompt{
		kv:     kv,
		def:    def,
		logger: logger.With("component", "secrets"),
	}
}

// Get returns the active system prompt. An absent prompt is seeded with the
// default and the default is returned; a store failure degrades to the
// default without seeding.
func (p *SystemPrompt) Get(ctx context.Context) string {
	v, err := kvstore.GetOrSeed(ctx, p.kv, SystemPromptKey, p.def)
	if err != nil {
		p.logger.Error("system prompt read failed, using default", "error", err)
		return p.def
	}
	return v
}
