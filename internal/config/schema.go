// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for chatloop.
package config

import (
	"github.com/chatloop-ai/chatloop/modules/completion/openai"
	"github.com/chatloop-ai/chatloop/modules/platform/slack"
	"github.com/chatloop-ai/chatloop/modules/store/redis"
	"github.com/chatloop-ai/chatloop/modules/store/sqlite"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is
	// supported.
	Version string `yaml:"version"`

	// DataDir holds the SQLite database and anything else the bot
	// persists locally.
	DataDir string `yaml:"data_dir"`

	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	OpenAI   openai.Config  `yaml:"openai"`
	Slack    SlackConfig    `yaml:"slack"`
	Engine   EngineConfig   `yaml:"engine"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// StoreConfig selects and configures the key-value backend. The message
// cache always lives on SQLite.
type StoreConfig struct {
	// Backend is "sqlite" (default) or "redis".
	Backend string `yaml:"backend"`

	SQLite sqlite.Config `yaml:"sqlite"`
	Redis  redis.Config  `yaml:"redis"`
}

// SlackConfig extends the platform client config with the gateway's
// signing secret.
type SlackConfig struct {
	slack.Config `yaml:",inline"`

	// SigningSecret verifies inbound Events API requests on the HTTP
	// gateway. Empty disables verification.
	SigningSecret string `yaml:"signing_secret"`
}

// EngineConfig tunes the orchestration engine.
type EngineConfig struct {
	// SystemPrompt seeds the stored system prompt on first run. Empty
	// uses the bundled default.
	SystemPrompt string `yaml:"system_prompt"`

	HistoryLimit int    `yaml:"history_limit"`
	FetchLimit   int    `yaml:"fetch_limit"`
	AckEmoji     string `yaml:"ack_emoji"`
	BusyText     string `yaml:"busy_text"`
	FailureReply string `yaml:"failure_reply"`

	Driver DriverConfig `yaml:"driver"`
}

// DriverConfig tunes the completion driver's retry behavior.
type DriverConfig struct {
	MaxAttempts       int    `yaml:"max_attempts"`
	Backoff           string `yaml:"backoff"`
	MaxFunctionRounds int    `yaml:"max_function_rounds"`
	ExhaustedReply    string `yaml:"exhausted_reply"`
}

// GatewayConfig configures the HTTP gateway.
type GatewayConfig struct {
	// Addr is the listen address, e.g. ":8080". Empty disables the
	// gateway.
	Addr string `yaml:"addr"`
}

// ScheduleConfig configures the background scheduler.
type ScheduleConfig struct {
	// Sweep is the cron expression for the expired-entry sweep. Empty
	// defaults to hourly.
	Sweep string `yaml:"sweep"`
}

func (c *Config) withDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Schedule.Sweep == "" {
		c.Schedule.Sweep = "@hourly"
	}
}
