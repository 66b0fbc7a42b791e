package slack

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// Interface guard.
var _ chat.Client = (*Client)(nil)

type historyResponse struct {
	apiEnvelope
	Messages []struct {
		Type  string `json:"type"`
		User  string `json:"user"`
		BotID string `json:"bot_id"`
		Text  string `json:"text"`
		TS    string `json:"ts"`
	} `json:"messages"`
}

// FetchHistory implements chat.Client via conversations.history. Slack
// returns messages newest first, which is the contract's order too.
func (c *Client) FetchHistory(ctx context.Context, channelID string, limit int) ([]chat.Message, error) {
	params := url.Values{}
	params.Set("channel", channelID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp historyResponse
	if err := c.getForm(ctx, "conversations.history", params, &resp); err != nil {
		return nil, err
	}

	msgs := make([]chat.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m.Type != "message" {
			continue
		}
		author := m.User
		if author == "" {
			author = m.BotID
		}
		msgs = append(msgs, chat.Message{
			ChannelID: channelID,
			Timestamp: m.TS,
			AuthorID:  author,
			Text:      m.Text,
		})
	}
	return msgs, nil
}

type postResponse struct {
	apiEnvelope
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// PostMessage implements chat.Client via chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) (chat.MessageHandle, error) {
	payload := map[string]string{"channel": channelID, "text": text}

	var resp postResponse
	if err := c.postJSON(ctx, "chat.postMessage", c.config.BotToken, payload, &resp); err != nil {
		return chat.MessageHandle{}, err
	}
	return chat.MessageHandle{ChannelID: resp.Channel, Timestamp: resp.TS}, nil
}

// UpdateMessage implements chat.Client via chat.update.
func (c *Client) UpdateMessage(ctx context.Context, handle chat.MessageHandle, text string) error {
	payload := map[string]string{
		"channel": handle.ChannelID,
		"ts":      handle.Timestamp,
		"text":    text,
	}

	var resp postResponse
	return c.postJSON(ctx, "chat.update", c.config.BotToken, payload, &resp)
}

// AddReaction implements chat.Client via reactions.add. Slack's
// already_reacted failure maps to chat.ErrAlreadyReacted so callers can
// treat it as success.
func (c *Client) AddReaction(ctx context.Context, handle chat.MessageHandle, emoji string) error {
	payload := map[string]string{
		"channel":   handle.ChannelID,
		"timestamp": handle.Timestamp,
		"name":      emoji,
	}

	var resp struct{ apiEnvelope }
	err := c.postJSON(ctx, "reactions.add", c.config.BotToken, payload, &resp)

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Code == "already_reacted" {
		return chat.ErrAlreadyReacted
	}
	return err
}

type profileResponse struct {
	apiEnvelope
	Profile struct {
		RealName    string `json:"real_name"`
		DisplayName string `json:"display_name"`
	} `json:"profile"`
}

// ResolveUserProfile implements chat.Client via users.profile.get.
func (c *Client) ResolveUserProfile(ctx context.Context, userID string) (chat.Profile, error) {
	params := url.Values{}
	params.Set("user", userID)

	var resp profileResponse
	if err := c.getForm(ctx, "users.profile.get", params, &resp); err != nil {
		return chat.Profile{}, fmt.Errorf("resolve profile %s: %w", userID, err)
	}
	return chat.Profile{
		ID:          userID,
		RealName:    resp.Profile.RealName,
		DisplayName: resp.Profile.DisplayName,
		FetchedAt:   time.Now(),
	}, nil
}
