// Package slack implements the chat platform client against the Slack Web
// API, plus a Socket Mode transport for inbound events.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// maxResponseBytes caps API response reads (10 MiB).
const maxResponseBytes = 10 << 20

// Config holds the client's configuration.
type Config struct {
	// BotToken is the xoxb- token used for Web API calls.
	BotToken string `yaml:"bot_token"`

	// AppToken is the xapp- token used to open Socket Mode connections.
	AppToken string `yaml:"app_token"`

	// AppID identifies this app's own events for self-suppression.
	AppID string `yaml:"app_id"`

	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://slack.com/api"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
}

func (c *Config) parsedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Client is a thin HTTP wrapper around the Slack Web API.
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.parsedTimeout()},
		logger: logger.With("component", "slack"),
	}
}

// apiError is a Slack API-level failure ("ok": false).
type apiError struct {
	Method string
	Code   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("slack: %s: %s", e.Method, e.Code)
}

// postJSON sends an authenticated JSON POST to a Web API write method and
// decodes the response envelope into out (which must include the ok/error
// fields via apiEnvelope embedding).
func (c *Client) postJSON(ctx context.Context, method, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack: marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, method, out)
}

// getForm sends an authenticated GET to a Web API read method with query
// parameters.
func (c *Client) getForm(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.BaseURL+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("slack: create %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.BotToken)

	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %s request failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("slack: read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack: %s: HTTP %d: %s", method, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("slack: decode %s response: %w", method, err)
	}

	env, ok := out.(envelopeChecker)
	if !ok {
		return nil
	}
	if !env.okay() {
		c.logger.Debug("API call rejected", "method", method, "code", env.errorCode())
		return &apiError{Method: method, Code: env.errorCode()}
	}
	return nil
}

// apiEnvelope carries the ok/error fields every Web API response has.
// Embed it in per-method response types.
type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type envelopeChecker interface {
	okay() bool
	errorCode() string
}

func (e *apiEnvelope) okay() bool        { return e.OK }
func (e *apiEnvelope) errorCode() string { return e.Error }
