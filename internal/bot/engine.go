// Package bot classifies inbound chat events and orchestrates the response
// turn: acknowledgment, history sync, window assembly, the completion
// driver, and the single final reply update.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/chatloop-ai/chatloop/internal/completion"
	"github.com/chatloop-ai/chatloop/internal/driver"
	"github.com/chatloop-ai/chatloop/internal/function"
	"github.com/chatloop-ai/chatloop/internal/history"
	"github.com/chatloop-ai/chatloop/internal/metrics"
	"github.com/chatloop-ai/chatloop/internal/secrets"
	"github.com/chatloop-ai/chatloop/internal/settings"
	"github.com/chatloop-ai/chatloop/internal/window"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

const metricMessagesReceived = "Slack Messages Received"

// OutcomeKind classifies what the engine did with an event.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeIgnored   OutcomeKind = "ignored"
	OutcomeResponded OutcomeKind = "responded"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is the result of handling one inbound event. Text carries the
// reply for OutcomeResponded; Reason explains the other two kinds.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Reason string
}

// Config holds the engine's tuning knobs.
type Config struct {
	// HistoryLimit caps the cached messages considered for the window.
	HistoryLimit int `yaml:"history_limit"`

	// FetchLimit caps the raw messages pulled from the platform per sync.
	FetchLimit int `yaml:"fetch_limit"`

	// AckEmoji is the reaction added to an accepted message.
	AckEmoji string `yaml:"ack_emoji"`

	// BusyText replaces the reply while a function call executes.
	BusyText string `yaml:"busy_text"`

	// FailureReply is the plain-text substitute posted when a turn fails.
	FailureReply string `yaml:"failure_reply"`

	Window window.Config `yaml:"window"`
	Driver driver.Config `yaml:"driver"`
}

func (c Config) withDefaults() Config {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 100
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = 200
	}
	if c.AckEmoji == "" {
		c.AckEmoji = "hourglass_flowing_sand"
	}
	if c.BusyText == "" {
		c.BusyText = ":wrench:"
	}
	if c.FailureReply == "" {
		c.FailureReply = "I'm sorry, something went wrong while answering that. Please try again."
	}
	return c
}

// Deps are the engine's collaborators.
type Deps struct {
	Client    chat.Client
	Completer completion.Client
	History   *history.Cache
	Profiles  *history.ProfileCache
	Settings  *settings.Store
	Prompt    *secrets.SystemPrompt
	Identity  IdentityResolver

	// Capabilities supplies the function set registered for each turn.
	Capabilities func() []function.Capability

	Sink     metrics.Sink
	Counters *metrics.Counters
	Logger   *slog.Logger
}

// Engine is the event entry point. One Engine serves all channels; each
// accepted event runs as an independent turn.
type Engine struct {
	deps      Deps
	config    Config
	assembler *window.Assembler
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an Engine.
func New(deps Deps, cfg Config) *Engine {
	if deps.Sink == nil {
		deps.Sink = metrics.NopSink{}
	}
	if deps.Counters == nil {
		deps.Counters = &metrics.Counters{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Capabilities == nil {
		deps.Capabilities = func() []function.Capability { return nil }
	}
	cfg = cfg.withDefaults()
	return &Engine{
		deps:      deps,
		config:    cfg,
		assembler: window.New(cfg.Window),
		logger:    deps.Logger.With("component", "engine"),
		now:       time.Now,
	}
}

// Classifier returns a classifier bound to the engine's identity resolver,
// for callers that pre-filter events before handing them over.
func (e *Engine) Classifier() *Classifier {
	return NewClassifier(e.deps.Identity, e.deps.Logger)
}

// HandleInboundEvent processes one inbound event to completion. It never
// returns an error: failures come back as OutcomeFailed after the plain-text
// substitute reply was attempted.
func (e *Engine) HandleInboundEvent(ctx context.Context, ev chat.Event) Outcome {
	switch ev.Type {
	case chat.EventMessage:
		return e.handleMessage(ctx, ev)
	case chat.EventMessageEdited:
		return e.handleEdit(ctx, ev)
	case chat.EventMessageDeleted:
		return Outcome{Kind: OutcomeIgnored, Reason: "message deleted"}
	default:
		return Outcome{Kind: OutcomeIgnored, Reason: "unrecognized event type"}
	}
}

func (e *Engine) handleMessage(ctx context.Context, ev chat.Event) Outcome {
	e.deps.Counters.RecordEvent()
	e.deps.Sink.Record(metricMessagesReceived, 1, metrics.UnitCount, nil)

	// Cache every message, including ones the bot won't answer; they are
	// context for later turns.
	if _, err := e.deps.History.Upsert(ctx, eventMessage(ev)); err != nil {
		e.logger.Warn("caching inbound message failed",
			"channel", ev.ChannelID, "error", err)
	}

	if !e.Classifier().NeedsProcessing(ctx, ev) {
		return Outcome{Kind: OutcomeIgnored, Reason: "not addressed to the bot"}
	}

	return e.respond(ctx, ev)
}

// handleEdit refreshes the cached copy of an edited message. Edits never
// trigger a response.
func (e *Engine) handleEdit(ctx context.Context, ev chat.Event) Outcome {
	if _, err := e.deps.History.Upsert(ctx, eventMessage(ev)); err != nil {
		e.logger.Warn("caching edited message failed",
			"channel", ev.ChannelID, "error", err)
	}
	return Outcome{Kind: OutcomeIgnored, Reason: "edit cached"}
}

func (e *Engine) respond(ctx context.Context, ev chat.Event) Outcome {
	start := e.now()
	logger := e.logger.With("channel", ev.ChannelID, "ts", ev.Timestamp)

	id, err := e.deps.Identity.Identity(ctx)
	if err != nil {
		// The classifier already let the event through (direct message),
		// so answer without self-recognition in history.
		logger.Warn("identity resolution failed", "error", err)
	}

	// Settings are read once so a concurrent change cannot split this turn
	// across two models.
	model := e.deps.Settings.Model(ctx)
	temperature := e.deps.Settings.Temperature(ctx)
	statusEmojis := e.deps.Settings.StatusEmojis(ctx)

	r := newResponder(e.deps.Client, ev, e.deps.Sink, logger)
	if statusEmojis {
		r.react(ctx, e.config.AckEmoji)
	}

	if _, err := e.deps.History.Sync(ctx, e.deps.Client, ev.ChannelID, e.config.FetchLimit); err != nil {
		logger.Warn("history sync failed, answering from cache", "error", err)
	}
	recent, err := e.deps.History.Recent(ctx, ev.ChannelID, e.config.HistoryLimit)
	if err != nil {
		return e.fail(ctx, r, logger, "history read failed", err)
	}
	oldestFirst := reverseMessages(recent)

	entries := e.assembler.Build(window.Request{
		Model:        model,
		SystemPrompt: e.deps.Prompt.Get(ctx),
		BudgetTokens: driver.WindowBudget(model),
		History:      oldestFirst,
		BotUserID:    id.UserID,
		AuthorNames:  e.authorNames(ctx, oldestFirst, id.UserID),
	})

	reg := function.NewRegistry()
	for _, c := range e.deps.Capabilities() {
		if err := reg.Register(c); err != nil {
			logger.Error("capability registration failed", "error", err)
		}
	}

	drv := driver.New(e.deps.Completer, reg, e.deps.Sink, e.config.Driver, e.deps.Logger)
	res, err := drv.Run(ctx, driver.Request{
		Model:       model,
		Temperature: temperature,
		Entries:     entries,
		OnFunctionCall: func(name string) {
			if statusEmojis {
				if err := r.update(ctx, e.config.BusyText); err != nil {
					logger.Warn("busy status update failed", "error", err)
				}
			}
		},
	})
	if err != nil {
		return e.fail(ctx, r, logger, "completion turn failed", err)
	}

	if err := r.update(ctx, res.Text); err != nil {
		return e.fail(ctx, r, logger, "posting reply failed", err)
	}

	e.deps.Counters.RecordResponse(res.Usage.TotalTokens, time.Since(start))
	logger.Info("responded",
		"stop", string(res.StopReason),
		"attempts", res.Attempts,
		"function_rounds", res.FunctionRounds,
		"total_tokens", res.Usage.TotalTokens)
	return Outcome{Kind: OutcomeResponded, Text: res.Text}
}

// fail records the failure and posts the substitute reply as the turn's one
// final update.
func (e *Engine) fail(ctx context.Context, r *responder, logger *slog.Logger, reason string, err error) Outcome {
	e.deps.Counters.RecordFailure()
	logger.Error(reason, "error", err)
	if uerr := r.update(ctx, e.config.FailureReply); uerr != nil {
		logger.Error("substitute reply failed", "error", uerr)
	}
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

// authorNames resolves display names for every distinct human author.
// Resolution failures degrade to raw IDs in the window.
func (e *Engine) authorNames(ctx context.Context, msgs []chat.Message, botUserID string) map[string]string {
	names := make(map[string]string)
	for _, m := range msgs {
		if m.AuthorID == "" || m.AuthorID == botUserID {
			continue
		}
		if _, done := names[m.AuthorID]; done {
			continue
		}
		p, err := e.deps.Profiles.Resolve(ctx, m.AuthorID)
		if err != nil {
			e.logger.Debug("profile resolution failed", "user", m.AuthorID, "error", err)
			continue
		}
		names[m.AuthorID] = p.Name()
	}
	return names
}

func eventMessage(ev chat.Event) chat.Message {
	return chat.Message{
		ChannelID: ev.ChannelID,
		Timestamp: ev.Timestamp,
		AuthorID:  ev.UserID,
		Text:      ev.Text,
	}
}

func reverseMessages(msgs []chat.Message) []chat.Message {
	out := make([]chat.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
