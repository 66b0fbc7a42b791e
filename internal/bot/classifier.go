package bot

import (
	"context"
	"log/slog"

	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// Identity is the bot's own platform identity.
type Identity struct {
	// UserID is the bot's platform user ID, used to recognize its own
	// messages in history.
	UserID string

	// AppID is the application ID stamped on events the bot itself
	// produced.
	AppID string

	// Mention is the literal mention token users type, e.g. "<@U0BOT>".
	// Empty falls back to UserID.
	Mention string
}

func (id Identity) mentionToken() string {
	if id.Mention != "" {
		return id.Mention
	}
	return id.UserID
}

// IdentityResolver resolves the bot's identity. Implementations may call the
// platform and should cache the answer.
type IdentityResolver interface {
	Identity(ctx context.Context) (Identity, error)
}

// StaticIdentity is an IdentityResolver with a fixed answer.
type StaticIdentity Identity

// Identity implements IdentityResolver.
func (s StaticIdentity) Identity(context.Context) (Identity, error) {
	return Identity(s), nil
}

// Interface guard.
var _ IdentityResolver = StaticIdentity{}

// Classifier decides whether an inbound event needs a response.
type Classifier struct {
	resolver IdentityResolver
	logger   *slog.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(resolver IdentityResolver, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		resolver: resolver,
		logger:   logger.With("component", "classifier"),
	}
}

// NeedsProcessing reports whether the event warrants a response: it mentions
// the bot or arrived in a direct-message channel, and it did not come from
// the bot itself. A blank event app ID is never treated as self. When the
// identity cannot be resolved the event counts as not mentioned; a
// direct message still goes through.
func (c *Classifier) NeedsProcessing(ctx context.Context, ev chat.Event) bool {
	id, err := c.resolver.Identity(ctx)
	if err != nil {
		c.logger.Warn("identity resolution failed, treating as not mentioned", "error", err)
		id = Identity{}
	}

	if ev.AppID != "" && ev.AppID == id.AppID {
		return false
	}

	return ev.Mentions(id.mentionToken()) || ev.IsDirectMessage()
}
