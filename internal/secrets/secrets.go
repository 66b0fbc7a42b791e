// Package secrets resolves operational secrets (API tokens, the system
// prompt) from the environment or the persistent store.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound indicates the named secret is not set anywhere.
var ErrNotFound = errors.New("secrets: not found")

// Secret names the engine resolves.
const (
	NameSlackBotToken      = "slack_bot_token"
	NameSlackAppToken      = "slack_app_token"
	NameSlackSigningSecret = "slack_signing_secret"
	NameOpenAIAPIKey       = "openai_api_key"
)

// Provider resolves named secrets.
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}

// EnvProvider resolves secrets from environment variables. A secret name
// like "openai_api_key" maps to "<PREFIX>OPENAI_API_KEY".
type EnvProvider struct {
	// Prefix is prepended to the derived variable name, e.g. "CHATLOOP_".
	Prefix string
}

// Get implements Provider.
func (p EnvProvider) Get(_ context.Context, name string) (string, error) {
	key := p.Prefix + strings.ToUpper(name)
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s (env %s)", ErrNotFound, name, key)
	}
	return v, nil
}

// Interface guard.
var _ Provider = EnvProvider{}

// Static resolves secrets from a fixed map. For tests and config-file
// deployments.
type Static map[string]string

// Get implements Provider.
func (s Static) Get(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return v, nil
}

// Interface guard.
var _ Provider = Static{}
