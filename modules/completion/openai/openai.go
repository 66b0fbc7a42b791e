// Package openai implements the completion client against the OpenAI Chat
// Completions API, using the functions / function_call calling convention.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatloop-ai/chatloop/internal/completion"
)

// maxResponseSize caps the response body read (10 MB). Protects against OOM
// from malformed or huge responses.
const maxResponseSize = 10 * 1024 * 1024

// Config holds the client's configuration.
type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
}

func (c *Config) parsedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Validate checks the config for required fields.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("completion.openai: api_key is required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("completion.openai: invalid timeout %q: %w", c.Timeout, err)
	}
	return nil
}

// Client implements completion.Client against the OpenAI API.
type Client struct {
	config Config
	client *http.Client
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
		client: &http.Client{Timeout: cfg.parsedTimeout()},
		logger: logger.With("component", "openai"),
	}
}

// Interface guard.
var _ completion.Client = (*Client)(nil)

// Complete implements completion.Client.
func (c *Client) Complete(ctx context.Context, req completion.Request) (completion.Response, error) {
	body, statusCode, err := c.doPost(ctx, "/chat/completions", toChatRequest(req))
	if err != nil {
		return completion.Response{}, err
	}

	if httpErr := mapHTTPError(statusCode, body); httpErr != nil {
		return completion.Response{}, httpErr
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return completion.Response{}, fmt.Errorf("openai: unmarshal response: %w", err)
	}
	return fromResponse(&resp), nil
}

// doPost sends an authenticated POST and returns the body and status code.
func (c *Client) doPost(ctx context.Context, path string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, 0, mapConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("openai: read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
