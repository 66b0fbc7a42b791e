package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate checks the structural validity of a Config: the version field,
// the store backend, required credentials, and that at least one inbound
// event source is configured.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", cfg.Log.Format))
	}

	switch cfg.Store.Backend {
	case "", BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("config: unknown store backend %q (supported: sqlite, redis)", cfg.Store.Backend))
	}

	if cfg.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("config: openai.api_key is required"))
	}
	if cfg.Slack.BotToken == "" {
		errs = append(errs, errors.New("config: slack.bot_token is required"))
	}
	if cfg.Slack.AppToken == "" && cfg.Gateway.Addr == "" {
		errs = append(errs, errors.New("config: no event source: set slack.app_token for socket mode or gateway.addr for the events endpoint"))
	}

	errs = append(errs, validateDriver(&cfg.Engine.Driver)...)

	if cfg.Schedule.Sweep != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Sweep); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid schedule.sweep %q: %w", cfg.Schedule.Sweep, err))
		}
	}

	return errors.Join(errs...)
}

func validateDriver(d *DriverConfig) []error {
	var errs []error
	if d.MaxAttempts < 0 {
		errs = append(errs, errors.New("config: engine.driver.max_attempts must not be negative"))
	}
	if d.MaxFunctionRounds < 0 {
		errs = append(errs, errors.New("config: engine.driver.max_function_rounds must not be negative"))
	}
	if d.Backoff != "" {
		if _, err := time.ParseDuration(d.Backoff); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid engine.driver.backoff %q: %w", d.Backoff, err))
		}
	}
	return errs
}
