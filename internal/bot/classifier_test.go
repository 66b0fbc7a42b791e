package bot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chatloop-ai/chatloop/internal/bot"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

type failingIdentity struct{}

func (failingIdentity) Identity(context.Context) (bot.Identity, error) {
	return bot.Identity{}, errors.New("auth call failed")
}

func TestClassifier_NeedsProcessing(t *testing.T) {
	t.Parallel()

	identity := bot.StaticIdentity{
		UserID:  "U0BOT",
		AppID:   "A0BOT",
		Mention: "<@U0BOT>",
	}

	tests := []struct {
		name string
		ev   chat.Event
		want bool
	}{
		{
			name: "mention in channel",
			ev:   chat.Event{Type: chat.EventMessage, ChannelType: "channel", Text: "hey <@U0BOT>, what's up?"},
			want: true,
		},
		{
			name: "direct message without mention",
			ev:   chat.Event{Type: chat.EventMessage, ChannelType: "im", Text: "hello"},
			want: true,
		},
		{
			name: "channel chatter without mention",
			ev:   chat.Event{Type: chat.EventMessage, ChannelType: "channel", Text: "lunch anyone?"},
			want: false,
		},
		{
			name: "own message suppressed even in a direct message",
			ev:   chat.Event{Type: chat.EventMessage, ChannelType: "im", AppID: "A0BOT", Text: "earlier reply"},
			want: false,
		},
		{
			name: "other app's message with mention",
			ev:   chat.Event{Type: chat.EventMessage, ChannelType: "channel", AppID: "A0OTHER", Text: "<@U0BOT> ping"},
			want: true,
		},
		{
			name: "blank app id is never self",
			ev:   chat.Event{Type: chat.EventMessage, ChannelType: "im", AppID: "", Text: "hi"},
			want: true,
		},
	}

	c := bot.NewClassifier(identity, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.NeedsProcessing(context.Background(), tt.ev); got != tt.want {
				t.Errorf("NeedsProcessing = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifier_IdentityFailure(t *testing.T) {
	t.Parallel()

	c := bot.NewClassifier(failingIdentity{}, nil)

	// Unresolvable identity counts as "not mentioned"...
	ev := chat.Event{Type: chat.EventMessage, ChannelType: "channel", Text: "<@U0BOT> hello"}
	if c.NeedsProcessing(context.Background(), ev) {
		t.Error("mention matched despite unresolvable identity")
	}

	// ...but a direct message still goes through.
	dm := chat.Event{Type: chat.EventMessage, ChannelType: "im", Text: "hello"}
	if !c.NeedsProcessing(context.Background(), dm) {
		t.Error("direct message dropped on identity failure")
	}
}

func TestClassifier_EmptyIdentityNeverMatches(t *testing.T) {
	t.Parallel()

	c := bot.NewClassifier(bot.StaticIdentity{}, nil)
	ev := chat.Event{Type: chat.EventMessage, ChannelType: "channel", Text: "anything at all"}
	if c.NeedsProcessing(context.Background(), ev) {
		t.Error("empty identity must never match as a mention")
	}
}
