package slack

import (
	"encoding/json"
	"fmt"

	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// Envelope is the outer body of an Events API delivery, whether it arrived
// over HTTP or Socket Mode.
type Envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// Envelope types.
const (
	EnvelopeURLVerification = "url_verification"
	EnvelopeEventCallback   = "event_callback"
)

// ParseEnvelope decodes the outer Events API body.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("slack: parse envelope: %w", err)
	}
	return env, nil
}

// wireEvent is the inner event of an event_callback delivery. Edited and
// deleted messages arrive as "message" events with a subtype and the
// interesting fields nested.
type wireEvent struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type"`
	AppID       string `json:"app_id"`
	User        string `json:"user"`
	Text        string `json:"text"`
	TS          string `json:"ts"`
	DeletedTS   string `json:"deleted_ts"`
	Message     *struct {
		AppID string `json:"app_id"`
		User  string `json:"user"`
		Text  string `json:"text"`
		TS    string `json:"ts"`
	} `json:"message"`
}

// ParseEvent lifts the inner event of an event_callback into the
// platform-agnostic form. Events the engine has no use for come back as
// chat.EventUnknown, not an error.
func ParseEvent(raw json.RawMessage) (chat.Event, error) {
	var we wireEvent
	if err := json.Unmarshal(raw, &we); err != nil {
		return chat.Event{}, fmt.Errorf("slack: parse event: %w", err)
	}

	if we.Type != "message" {
		return chat.Event{Type: chat.EventUnknown}, nil
	}

	ev := chat.Event{
		ChannelID:   we.Channel,
		ChannelType: we.ChannelType,
		AppID:       we.AppID,
		UserID:      we.User,
		Text:        we.Text,
		Timestamp:   we.TS,
	}

	switch we.Subtype {
	case "", "bot_message":
		ev.Type = chat.EventMessage
	case "message_changed":
		ev.Type = chat.EventMessageEdited
		if we.Message != nil {
			ev.UserID = we.Message.User
			ev.Text = we.Message.Text
			ev.Timestamp = we.Message.TS
			if ev.AppID == "" {
				ev.AppID = we.Message.AppID
			}
		}
	case "message_deleted":
		ev.Type = chat.EventMessageDeleted
		ev.Timestamp = we.DeletedTS
	default:
		ev.Type = chat.EventUnknown
	}
	return ev, nil
}
