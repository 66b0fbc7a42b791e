package slack

import (
	"context"
	"sync"

	"github.com/chatloop-ai/chatloop/internal/bot"
)

type authTestResponse struct {
	apiEnvelope
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
}

// IdentityResolver resolves the bot's own identity via auth.test. The first
// successful answer is cached for the life of the process; a workspace
// reinstall changes the token, not the running resolver.
type IdentityResolver struct {
	client *Client

	mu     sync.Mutex
	cached *bot.Identity
}

// NewIdentityResolver creates an IdentityResolver over the client.
func NewIdentityResolver(client *Client) *IdentityResolver {
	return &IdentityResolver{client: client}
}

// Interface guard.
var _ bot.IdentityResolver = (*IdentityResolver)(nil)

// Identity implements bot.IdentityResolver.
func (r *IdentityResolver) Identity(ctx context.Context) (bot.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return *r.cached, nil
	}

	var resp authTestResponse
	if err := r.client.postJSON(ctx, "auth.test", r.client.config.BotToken, struct{}{}, &resp); err != nil {
		return bot.Identity{}, err
	}

	id := bot.Identity{
		UserID:  resp.UserID,
		AppID:   r.client.config.AppID,
		Mention: "<@" + resp.UserID + ">",
	}
	r.cached = &id
	return id, nil
}
