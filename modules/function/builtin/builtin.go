// Package builtin provides the stock capabilities every deployment gets:
// reading and writing the bot's own settings, and reporting its health.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chatloop-ai/chatloop/internal/function"
	"github.com/chatloop-ai/chatloop/internal/metrics"
	"github.com/chatloop-ai/chatloop/internal/settings"
)

// All returns the builtin capabilities wired to the given collaborators, in
// the order they should be registered.
func All(store *settings.Store, counters *metrics.Counters) []function.Capability {
	return []function.Capability{
		&GetSetting{Store: store},
		&SetSetting{Store: store},
		&CheckHealth{Store: store, Counters: counters},
	}
}

// settingKeys are the keys the model may read or write.
var settingKeys = []string{
	settings.KeyModel,
	settings.KeyTemperature,
	settings.KeyStatusEmojis,
}

func knownKey(key string) bool {
	for _, k := range settingKeys {
		if k == key {
			return true
		}
	}
	return false
}

type settingArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func decodeSettingArgs(raw json.RawMessage) (settingArgs, error) {
	var args settingArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return settingArgs{}, fmt.Errorf("malformed arguments: %w", err)
	}
	if !knownKey(args.Key) {
		return settingArgs{}, fmt.Errorf("unknown setting key %q", args.Key)
	}
	return args, nil
}

// GetSetting reads one bot configuration setting.
type GetSetting struct {
	Store *settings.Store
}

// Interface guard.
var _ function.Capability = (*GetSetting)(nil)

func (g *GetSetting) Name() string { return "get_bot_setting" }

func (g *GetSetting) Description() string {
	return "Get this bot's configuration setting values. The 'key' parameter specifies " +
		"a specific value to get. The 'model' key gets the bot's current OpenAI model " +
		"name setting. The 'temperature' key gets the current OpenAI temperature " +
		"setting. The 'status_emojis' key gets whether status emojis are enabled or not."
}

func (g *GetSetting) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"key": {
				"type": "string",
				"enum": ["model", "temperature", "status_emojis"]
			}
		},
		"required": ["key"]
	}`)
}

func (g *GetSetting) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeSettingArgs(raw)
	if err != nil {
		return nil, err
	}
	return map[string]string{args.Key: g.Store.Get(ctx, args.Key)}, nil
}

// SetSetting writes one bot configuration setting and reports the canonical
// stored value back to the model.
type SetSetting struct {
	Store *settings.Store
}

// Interface guard.
var _ function.Capability = (*SetSetting)(nil)

func (s *SetSetting) Name() string { return "set_bot_setting" }

func (s *SetSetting) Description() string {
	return "Set this bot's configuration setting values. The 'key' parameter specifies " +
		"a specific value to set. The 'model' key sets the bot's current OpenAI model " +
		"name setting. The 'temperature' key sets the current OpenAI temperature " +
		"setting. The 'status_emojis' key sets whether status emojis are enabled or not."
}

func (s *SetSetting) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"key": {
				"type": "string",
				"enum": ["model", "temperature", "status_emojis"]
			},
			"value": {
				"type": "string"
			}
		},
		"required": ["key"]
	}`)
}

func (s *SetSetting) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeSettingArgs(raw)
	if err != nil {
		return nil, err
	}

	stored, err := s.Store.Set(ctx, args.Key, args.Value)
	if err != nil {
		return nil, fmt.Errorf("store setting %s: %w", args.Key, err)
	}
	return map[string]string{
		args.Key:  stored,
		"message": fmt.Sprintf("Set bot configuration setting: %s => %s", args.Key, stored),
	}, nil
}

// CheckHealth reports the bot's own activity counters and current model so
// the model can answer "how are you?" with real numbers.
type CheckHealth struct {
	Store    *settings.Store
	Counters *metrics.Counters
}

// Interface guard.
var _ function.Capability = (*CheckHealth)(nil)

func (c *CheckHealth) Name() string { return "check_bot_health" }

func (c *CheckHealth) Description() string {
	return "Get this bot's health status by checking its activity counters. This " +
		"measures the bot itself, not the system that the bot assists with, so this " +
		"is about the AI model's integration with the chat platform. The 'summary' " +
		"key returns a prose summary; the 'metrics' key returns the raw counters."
}

func (c *CheckHealth) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"key": {
				"type": "string",
				"enum": ["summary", "metrics"]
			}
		},
		"required": ["key"]
	}`)
}

func (c *CheckHealth) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("malformed arguments: %w", err)
	}

	snap := c.Counters.Snapshot()
	switch args.Key {
	case "metrics":
		return map[string]any{
			"model":              c.Store.Model(ctx),
			"events_received":    snap.Events,
			"responses_sent":     snap.Responses,
			"failures":           snap.Failures,
			"total_tokens_used":  snap.TotalTokens,
			"average_latency_ms": snap.AvgLatency.Milliseconds(),
		}, nil
	case "summary", "":
		return map[string]string{
			"summary": fmt.Sprintf(
				"My current model is %s. Since starting I have received %d messages, "+
					"sent %d responses, and hit %d failures, using %d tokens in total.",
				c.Store.Model(ctx), snap.Events, snap.Responses, snap.Failures, snap.TotalTokens),
		}, nil
	default:
		return nil, fmt.Errorf("unknown health key %q", args.Key)
	}
}
