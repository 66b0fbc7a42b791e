package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chatloop-ai/chatloop/internal/bot"
	"github.com/chatloop-ai/chatloop/internal/config"
	"github.com/chatloop-ai/chatloop/internal/cron"
	"github.com/chatloop-ai/chatloop/internal/driver"
	"github.com/chatloop-ai/chatloop/internal/function"
	"github.com/chatloop-ai/chatloop/internal/gateway"
	"github.com/chatloop-ai/chatloop/internal/history"
	"github.com/chatloop-ai/chatloop/internal/kvstore"
	"github.com/chatloop-ai/chatloop/internal/metrics"
	"github.com/chatloop-ai/chatloop/internal/secrets"
	"github.com/chatloop-ai/chatloop/internal/settings"
	"github.com/chatloop-ai/chatloop/internal/tokenest"
	"github.com/chatloop-ai/chatloop/modules/completion/openai"
	"github.com/chatloop-ai/chatloop/modules/function/builtin"
	"github.com/chatloop-ai/chatloop/modules/platform/slack"
	"github.com/chatloop-ai/chatloop/modules/store/redis"
	"github.com/chatloop-ai/chatloop/modules/store/sqlite"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

// app holds the wired components of a running bot.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *sqlite.Store
	redis     *redis.Store
	engine    *bot.Engine
	gateway   *gateway.Gateway
	socket    *slack.SocketMode
	scheduler *cron.Scheduler
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot: event sources, gateway, and scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPathFromFlag(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			config.ResolveSecrets(cmd.Context(), cfg, envSecrets())
			if err := config.Validate(cfg); err != nil {
				return err
			}

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			return a.run(cmd.Context())
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			config.ResolveSecrets(cmd.Context(), cfg, envSecrets())
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("Configuration OK (store: %s)\n", cfg.Store.Backend)
			return nil
		},
	})
	return cmd
}

// envSecrets is the fallback credential source for config fields left
// empty: CHATLOOP_OPENAI_API_KEY, CHATLOOP_SLACK_BOT_TOKEN, and friends.
func envSecrets() secrets.Provider {
	return secrets.EnvProvider{Prefix: "CHATLOOP_"}
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// buildApp wires every component from the validated config.
func buildApp(cfg *config.Config) (*app, error) {
	logger := newLogger(cfg.Log)
	a := &app{cfg: cfg, logger: logger}

	// The message cache always lives on SQLite; the key-value side moves
	// to Redis when configured.
	store, err := sqlite.Open(cfg.Store.SQLite, cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	var kv kvstore.Store = store.KV()
	if cfg.Store.Backend == config.BackendRedis {
		a.redis = redis.New(cfg.Store.Redis, logger)
		kv = a.redis
	}

	if err := cfg.OpenAI.Validate(); err != nil {
		return nil, err
	}
	completer := openai.New(cfg.OpenAI, logger)

	client := slack.New(cfg.Slack.Config, logger)
	identity := slack.NewIdentityResolver(client)

	estimator := tokenest.New("")
	histCache := history.NewCache(store.History(), estimator, logger)
	profiles := history.NewProfileCache(kv, client, history.DefaultProfileTTL, logger)
	settingsStore := settings.New(kv, logger)
	prompt := secrets.NewSystemPrompt(kv, cfg.Engine.SystemPrompt, logger)

	registry := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(registry, "chatloop", logger)
	counters := &metrics.Counters{}

	engineCfg, err := engineConfig(cfg)
	if err != nil {
		return nil, err
	}

	a.engine = bot.New(bot.Deps{
		Client:    client,
		Completer: completer,
		History:   histCache,
		Profiles:  profiles,
		Settings:  settingsStore,
		Prompt:    prompt,
		Identity:  identity,
		Capabilities: func() []function.Capability {
			return builtin.All(settingsStore, counters)
		},
		Sink:     sink,
		Counters: counters,
		Logger:   logger,
	}, engineCfg)

	if cfg.Gateway.Addr != "" {
		a.gateway = gateway.New(gateway.Config{
			Addr:          cfg.Gateway.Addr,
			SigningSecret: cfg.Slack.SigningSecret,
		}, gateway.Deps{
			Handler:  a.engine,
			Counters: counters,
			Gatherer: registry,
			Logger:   logger,
		})
	}

	if cfg.Slack.AppToken != "" {
		a.socket = slack.NewSocketMode(client, func(ctx context.Context, ev chat.Event) {
			a.engine.HandleInboundEvent(ctx, ev)
		}, logger)
	}

	a.scheduler = cron.NewScheduler(logger)
	if cfg.Store.Backend == config.BackendSQLite {
		// Redis expires entries natively; only SQLite needs the sweep.
		job := &cron.SweepJob{
			Sweeper:      store,
			Logger:       logger,
			ScheduleExpr: cfg.Schedule.Sweep,
		}
		if err := a.scheduler.RegisterJob(job); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// engineConfig maps the YAML engine section onto the engine's config.
func engineConfig(cfg *config.Config) (bot.Config, error) {
	d := cfg.Engine.Driver

	var backoff time.Duration
	if d.Backoff != "" {
		var err error
		backoff, err = time.ParseDuration(d.Backoff)
		if err != nil {
			return bot.Config{}, fmt.Errorf("invalid driver backoff %q: %w", d.Backoff, err)
		}
	}

	return bot.Config{
		HistoryLimit: cfg.Engine.HistoryLimit,
		FetchLimit:   cfg.Engine.FetchLimit,
		AckEmoji:     cfg.Engine.AckEmoji,
		BusyText:     cfg.Engine.BusyText,
		FailureReply: cfg.Engine.FailureReply,
		Driver: driver.Config{
			MaxAttempts:       d.MaxAttempts,
			Backoff:           backoff,
			MaxFunctionRounds: d.MaxFunctionRounds,
			ExhaustedReply:    d.ExhaustedReply,
		},
	}, nil
}

// run starts every configured component and blocks until a signal or
// fatal error.
func (a *app) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := a.redis.Ping(pingCtx)
		cancel()
		if err != nil {
			return err
		}
	}

	if a.gateway != nil {
		if err := a.gateway.Start(ctx); err != nil {
			return err
		}
	}
	if err := a.scheduler.Start(); err != nil {
		return err
	}

	socketErr := make(chan error, 1)
	if a.socket != nil {
		go func() { socketErr <- a.socket.Run(ctx) }()
	}

	a.logger.Info("chatloop started", "version", version)

	select {
	case <-ctx.Done():
	case err := <-socketErr:
		if err != nil && ctx.Err() == nil {
			a.logger.Error("socket mode terminated", "error", err)
		}
	}

	return a.shutdown()
}

func (a *app) shutdown() error {
	a.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.gateway != nil {
		if err := a.gateway.Stop(ctx); err != nil {
			a.logger.Error("gateway shutdown failed", "error", err)
		}
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		a.logger.Error("scheduler shutdown failed", "error", err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close failed", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("store close failed", "error", err)
	}
	return nil
}
