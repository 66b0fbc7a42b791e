// Package chat defines the platform-agnostic data contract between the
// orchestration engine and a chat platform. It carries stored messages,
// inbound events, user profiles, and the client interface the engine
// depends on.
package chat

import "time"

// Message is one stored conversation turn. Messages are keyed by
// (ChannelID, Timestamp); Timestamp is the platform-native ordering key
// (for Slack, a string like "1688149317.012345" that sorts numerically).
type Message struct {
	ChannelID       string `json:"channel_id"`
	Timestamp       string `json:"timestamp"`
	AuthorID        string `json:"author_id"`
	Text            string `json:"text"`
	EstimatedTokens int    `json:"estimated_tokens"`
}

// TimestampTime converts the platform-native timestamp into a time.Time.
// A malformed timestamp yields the zero time.
func (m Message) TimestampTime() time.Time {
	return parseTimestamp(m.Timestamp)
}

// Profile describes a platform user. FetchedAt records when the profile was
// resolved so callers can apply a freshness window.
type Profile struct {
	ID          string    `json:"id"`
	RealName    string    `json:"real_name"`
	DisplayName string    `json:"display_name,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Name returns the best human-readable name for the profile.
func (p Profile) Name() string {
	if p.RealName != "" {
		return p.RealName
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

// MessageHandle identifies a posted message so it can be updated or
// reacted to later.
type MessageHandle struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"timestamp"`
}

// Zero reports whether the handle identifies no message.
func (h MessageHandle) Zero() bool {
	return h.ChannelID == "" && h.Timestamp == ""
}
