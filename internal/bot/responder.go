package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chatloop-ai/chatloop/internal/metrics"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// Metric reading names for outbound platform activity.
const (
	metricMessagesSent    = "Slack Messages Sent"
	metricMessagesUpdated = "Slack Messages Updated"
	metricReactionsSent   = "Slack Reactions Sent"
)

// responder manages the bot's reply to one inbound message: an emoji
// reaction on the original, and a single reply message that is posted once
// and then updated in place.
type responder struct {
	client    chat.Client
	channelID string
	// original is the inbound message, the reaction target.
	original chat.MessageHandle
	// placeholder is the reply message once posted.
	placeholder chat.MessageHandle

	sink   metrics.Sink
	logger *slog.Logger
}

func newResponder(client chat.Client, ev chat.Event, sink metrics.Sink, logger *slog.Logger) *responder {
	return &responder{
		client:    client,
		channelID: ev.ChannelID,
		original:  chat.MessageHandle{ChannelID: ev.ChannelID, Timestamp: ev.Timestamp},
		sink:      sink,
		logger:    logger,
	}
}

// react adds an emoji reaction to the original message. Best effort: an
// already-present reaction counts as success and other failures only log.
func (r *responder) react(ctx context.Context, emoji string) {
	err := r.client.AddReaction(ctx, r.original, emoji)
	switch {
	case err == nil:
		r.sink.Record(metricReactionsSent, 1, metrics.UnitCount, nil)
	case errors.Is(err, chat.ErrAlreadyReacted):
		r.logger.Debug("reaction already present", "emoji", emoji)
	default:
		r.logger.Warn("reaction failed", "emoji", emoji, "error", err)
	}
}

// update replaces the reply's text, posting the reply first if it does not
// exist yet.
func (r *responder) update(ctx context.Context, text string) error {
	if r.placeholder.Zero() {
		handle, err := r.client.PostMessage(ctx, r.channelID, text)
		if err != nil {
			return err
		}
		r.placeholder = handle
		r.sink.Record(metricMessagesSent, 1, metrics.UnitCount, nil)
		return nil
	}

	if err := r.client.UpdateMessage(ctx, r.placeholder, text); err != nil {
		return err
	}
	r.sink.Record(metricMessagesUpdated, 1, metrics.UnitCount, nil)
	return nil
}
