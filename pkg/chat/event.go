package chat

import (
	"strconv"
	"strings"
	"time"
)

// EventType discriminates inbound platform events.
type EventType string

// Event types the engine distinguishes. Anything else maps to EventUnknown
// and is ignored.
const (
	EventMessage        EventType = "message"
	EventMessageEdited  EventType = "message_edited"
	EventMessageDeleted EventType = "message_deleted"
	EventUnknown        EventType = "unknown"
)

// Event is one inbound chat-platform event, already lifted out of the
// platform's wire envelope.
type Event struct {
	Type      EventType `json:"type"`
	ChannelID string    `json:"channel_id"`
	// ChannelType is the platform's channel classification ("im" for a
	// direct-message channel).
	ChannelType string `json:"channel_type,omitempty"`
	// AppID is the application identifier that produced the event. Empty
	// for human-authored messages.
	AppID     string `json:"app_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// IsDirectMessage reports whether the event occurred in a direct-message
// channel.
func (e Event) IsDirectMessage() bool {
	return e.ChannelType == "im"
}

// Mentions reports whether the event text mentions the given platform
// identity. An empty identity never matches.
func (e Event) Mentions(identity string) bool {
	if identity == "" {
		return false
	}
	return strings.Contains(e.Text, identity)
}

// parseTimestamp interprets a platform-native timestamp ("seconds.fraction")
// as a time.Time.
func parseTimestamp(ts string) time.Time {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
