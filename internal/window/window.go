// Package window assembles the token-bounded conversation window submitted
// to the completion service. Assembly is pure: it consumes cached messages
// with precomputed token estimates and never performs I/O.
package window

import (
	"regexp"
	"strings"

	"github.com/chatloop-ai/chatloop/internal/completion"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// TrimPolicy selects which end of the history is discarded when the
// estimated token sum exceeds the budget.
type TrimPolicy string

// Trim policies.
const (
	// TrimKeepOldest drops the newest messages first, preserving
	// long-running context at the cost of recency. This is the engine's
	// documented default, carried over deliberately from the original
	// system; flip to TrimKeepNewest for conventional recency-first
	// behavior.
	TrimKeepOldest TrimPolicy = "keep_oldest"

	// TrimKeepNewest drops the oldest messages first.
	TrimKeepNewest TrimPolicy = "keep_newest"
)

// Config holds the assembler's tuning knobs.
type Config struct {
	// Trim selects the trimming direction. Defaults to TrimKeepOldest.
	Trim TrimPolicy

	// UserRoleModelPattern matches model names known to disregard
	// system-role instructions; for those, the instruction entry is
	// routed through the user role instead. Defaults to GPT-3 variants.
	UserRoleModelPattern string
}

func (cfg Config) withDefaults() Config {
	if cfg.Trim == "" {
		cfg.Trim = TrimKeepOldest
	}
	if cfg.UserRoleModelPattern == "" {
		cfg.UserRoleModelPattern = `(?i)gpt-?3`
	}
	return cfg
}

// Request contains the inputs for one window build.
type Request struct {
	// Model is the active completion model, used for the instruction
	// role policy.
	Model string

	// SystemPrompt is the instruction text placed at entry 0.
	SystemPrompt string

	// BudgetTokens is the estimated-token ceiling for included history.
	BudgetTokens int

	// History is the candidate messages, oldest first, with token
	// estimates populated.
	History []chat.Message

	// BotUserID identifies which messages were authored by the bot.
	BotUserID string

	// AuthorNames maps author IDs to display names for user entries.
	// Missing authors fall back to their raw ID.
	AuthorNames map[string]string
}

// Assembler builds conversation windows.
type Assembler struct {
	config     Config
	userRoleRe *regexp.Regexp
}

// New creates an Assembler with the given config.
func New(cfg Config) *Assembler {
	cfg = cfg.withDefaults()
	return &Assembler{
		config:     cfg,
		userRoleRe: regexp.MustCompile(cfg.UserRoleModelPattern),
	}
}

// Build assembles the window: trim history to the budget, prepend the
// instruction entry, map messages to role-tagged entries, and ensure the
// window never ends on a bare assistant entry.
func (a *Assembler) Build(req Request) []completion.Entry {
	history := a.trim(req.History, req.BudgetTokens)

	entries := make([]completion.Entry, 0, len(history)+1)
	entries = append(entries, completion.Entry{
		Role:    a.instructionRole(req.Model),
		Content: req.SystemPrompt,
	})

	for _, msg := range history {
		entries = append(entries, a.toEntry(msg, req))
	}

	// A window must never end on an assistant turn with nothing for the
	// model to respond to.
	if last := len(entries) - 1; last > 0 && entries[last].Role == completion.RoleAssistant {
		entries = entries[:last]
	}

	return entries
}

// trim returns the prefix (or suffix) of history whose estimated token sum
// fits the budget.
func (a *Assembler) trim(history []chat.Message, budget int) []chat.Message {
	total := 0
	for _, m := range history {
		total += m.EstimatedTokens
	}

	for total > budget && len(history) > 0 {
		var dropped chat.Message
		if a.config.Trim == TrimKeepNewest {
			dropped, history = history[0], history[1:]
		} else {
			dropped, history = history[len(history)-1], history[:len(history)-1]
		}
		total -= dropped.EstimatedTokens
	}

	return history
}

// instructionRole returns the role for the instruction entry given the
// active model.
func (a *Assembler) instructionRole(model string) completion.Role {
	if a.userRoleRe.MatchString(model) {
		return completion.RoleUser
	}
	return completion.RoleSystem
}

// toEntry maps one cached message to a window entry. Bot-authored messages
// become assistant entries; everything else becomes a user entry prefixed
// with a human-readable timestamp and the author's name, e.g.
// "FRI JUL  7 4:20 PM - Ryan: Hi, Bot."
func (a *Assembler) toEntry(msg chat.Message, req Request) completion.Entry {
	if msg.AuthorID == req.BotUserID && req.BotUserID != "" {
		return completion.Entry{Role: completion.RoleAssistant, Content: msg.Text}
	}

	name := req.AuthorNames[msg.AuthorID]
	if name == "" {
		name = msg.AuthorID
	}

	var b strings.Builder
	if t := msg.TimestampTime(); !t.IsZero() {
		b.WriteString(strings.ToUpper(t.Format("Mon Jan _2 3:04 PM")))
		b.WriteString(" - ")
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(msg.Text)

	return completion.Entry{Role: completion.RoleUser, Content: b.String()}
}

// EstimatedTokens sums the token estimates of the given messages.
func EstimatedTokens(msgs []chat.Message) int {
	total := 0
	for _, m := range msgs {
		total += m.EstimatedTokens
	}
	return total
}
