package config

import (
	"context"

	"github.com/chatloop-ai/chatloop/internal/secrets"
)

// ResolveSecrets fills credential fields the config file left empty from
// the secrets provider. A value from the file always wins; a secret the
// provider cannot resolve stays empty for Validate to report.
func ResolveSecrets(ctx context.Context, cfg *Config, p secrets.Provider) {
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v, err := p.Get(ctx, name); err == nil {
			*dst = v
		}
	}

	fill(&cfg.OpenAI.APIKey, secrets.NameOpenAIAPIKey)
	fill(&cfg.Slack.BotToken, secrets.NameSlackBotToken)
	fill(&cfg.Slack.AppToken, secrets.NameSlackAppToken)
	fill(&cfg.Slack.SigningSecret, secrets.NameSlackSigningSecret)
}
