package chat

import (
	"context"
	"errors"
)

// ErrAlreadyReacted is returned by AddReaction when the reaction is already
// present. Callers treat it as success.
var ErrAlreadyReacted = errors.New("chat: already reacted")

// Client is the chat-platform client the engine depends on. Implementations
// live under modules/platform. Every call is blocking from the caller's
// point of view.
type Client interface {
	// FetchHistory returns up to limit raw messages for the channel,
	// newest first. Token estimates are not populated; the history cache
	// computes them on upsert.
	FetchHistory(ctx context.Context, channelID string, limit int) ([]Message, error)

	// PostMessage posts text to the channel and returns a handle for
	// later updates.
	PostMessage(ctx context.Context, channelID, text string) (MessageHandle, error)

	// UpdateMessage replaces the text of a previously posted message.
	UpdateMessage(ctx context.Context, handle MessageHandle, text string) error

	// AddReaction adds an emoji reaction to the message identified by
	// handle. Returns ErrAlreadyReacted if the reaction already exists.
	AddReaction(ctx context.Context, handle MessageHandle, emoji string) error

	// ResolveUserProfile fetches the profile for a user. Results are
	// cacheable by the caller.
	ResolveUserProfile(ctx context.Context, userID string) (Profile, error)
}
