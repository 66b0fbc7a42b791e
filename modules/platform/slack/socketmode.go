package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/chatloop-ai/chatloop/pkg/chat"
)

const reconnectDelay = 5 * time.Second

// Handler receives each inbound chat event read off the socket.
type Handler func(ctx context.Context, ev chat.Event)

// SocketMode maintains a Socket Mode connection and delivers Events API
// payloads to a handler. Slack rotates these connections routinely, so Run
// reconnects until its context is canceled.
type SocketMode struct {
	client  *Client
	handler Handler
	logger  *slog.Logger
}

// NewSocketMode creates a SocketMode transport over the client.
func NewSocketMode(client *Client, handler Handler, logger *slog.Logger) *SocketMode {
	if logger == nil {
		logger = slog.Default()
	}
	return &SocketMode{
		client:  client,
		handler: handler,
		logger:  logger.With("component", "socketmode"),
	}
}

type connectionsOpenResponse struct {
	apiEnvelope
	URL string `json:"url"`
}

// socketEnvelope is one frame read off the Socket Mode connection.
type socketEnvelope struct {
	Type       string          `json:"type"`
	EnvelopeID string          `json:"envelope_id"`
	Payload    json.RawMessage `json:"payload"`
}

type socketAck struct {
	EnvelopeID string `json:"envelope_id"`
}

// Run connects and processes events until ctx is canceled. Connection
// failures and server-initiated disconnects trigger a fresh connection
// after a short delay.
func (s *SocketMode) Run(ctx context.Context) error {
	for {
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("socket mode connection lost, reconnecting", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *SocketMode) runOnce(ctx context.Context) error {
	var open connectionsOpenResponse
	if err := s.client.postJSON(ctx, "apps.connections.open", s.client.config.AppToken, struct{}{}, &open); err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, open.URL, nil)
	if err != nil {
		return fmt.Errorf("slack: dial socket mode: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.logger.Info("socket mode connected")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("slack: read socket frame: %w", err)
		}

		var env socketEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Warn("dropping malformed socket frame", "error", err)
			continue
		}

		if env.EnvelopeID != "" {
			if err := s.ack(ctx, conn, env.EnvelopeID); err != nil {
				return err
			}
		}

		switch env.Type {
		case "hello":
			// Nothing to do; the connection is live.
		case "disconnect":
			// Slack asks us to move to a fresh connection.
			return errors.New("slack: server requested disconnect")
		case "events_api":
			s.deliver(ctx, env.Payload)
		default:
			s.logger.Debug("ignoring socket frame", "type", env.Type)
		}
	}
}

func (s *SocketMode) ack(ctx context.Context, conn *websocket.Conn, envelopeID string) error {
	data, err := json.Marshal(socketAck{EnvelopeID: envelopeID})
	if err != nil {
		return fmt.Errorf("slack: marshal ack: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("slack: write ack: %w", err)
	}
	return nil
}

func (s *SocketMode) deliver(ctx context.Context, payload json.RawMessage) {
	env, err := ParseEnvelope(payload)
	if err != nil {
		s.logger.Warn("dropping malformed events payload", "error", err)
		return
	}
	if env.Type != EnvelopeEventCallback {
		return
	}

	ev, err := ParseEvent(env.Event)
	if err != nil {
		s.logger.Warn("dropping malformed event", "error", err)
		return
	}
	s.handler(ctx, ev)
}
