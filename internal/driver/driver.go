// Package driver runs one completion turn: it sends the assembled window to
// the completion service, retries with a trimmed window on context overflow
// and with a fixed backoff on transient failures, dispatches function calls
// through the registry, and reports usage and cost readings. One Driver is
// created per top-level turn and never reused.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatloop-ai/chatloop/internal/completion"
	"github.com/chatloop-ai/chatloop/internal/function"
	"github.com/chatloop-ai/chatloop/internal/metrics"
)

// ErrRetriesExhausted marks a turn that used up every completion attempt.
// Run folds it into a normal Result; it surfaces only through logs.
var ErrRetriesExhausted = errors.New("driver: completion retries exhausted")

// Metric reading names.
const (
	metricResponses        = "Open AI Chat API Responses"
	metricPromptTokens     = "OpenAI Prompt Token Usage"
	metricCompletionTokens = "OpenAI Completion Token Usage"
	metricTotalTokens      = "OpenAI Total Token Usage"
	metricInputCost        = "OpenAI Input Token Cost"
	metricOutputCost       = "OpenAI Output Token Cost"
	metricTotalCost        = "OpenAI Total Token Cost"
	metricFunctionCalls    = "Function Responses"
	metricNoFunctionCall   = "Function Calls Not Required"
)

// DefaultExhaustedReply is posted when every attempt failed or the model
// would not stop calling functions.
const DefaultExhaustedReply = "I'm having trouble reaching the language model right now. Please try again in a minute."

// StopReason explains how a turn ended.
type StopReason string

// Stop reasons.
const (
	StopComplete         StopReason = "complete"
	StopExhaustedRetries StopReason = "exhausted_retries"
	StopFunctionRounds   StopReason = "function_rounds_exhausted"
	StopError            StopReason = "error"
)

// Config controls the retry and recursion bounds.
type Config struct {
	// MaxAttempts is the number of completion attempts per request.
	MaxAttempts int `yaml:"max_attempts"`

	// Backoff is the fixed sleep between attempts.
	Backoff time.Duration `yaml:"backoff"`

	// MaxFunctionRounds bounds function-call recursion within one turn.
	MaxFunctionRounds int `yaml:"max_function_rounds"`

	// ExhaustedReply overrides DefaultExhaustedReply.
	ExhaustedReply string `yaml:"exhausted_reply"`
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	if c.MaxFunctionRounds <= 0 {
		c.MaxFunctionRounds = 5
	}
	if c.ExhaustedReply == "" {
		c.ExhaustedReply = DefaultExhaustedReply
	}
	return c
}

// Request is one turn's input. Entries come from the window assembler with
// the instruction entry at index 0.
type Request struct {
	Model       string
	Temperature float64
	Entries     []completion.Entry

	// OnFunctionCall, when set, is notified before each capability
	// execution so the caller can signal progress (the wrench status).
	OnFunctionCall func(name string)
}

// Result is one turn's outcome. Usage aggregates every completion the turn
// made, including function-call rounds.
type Result struct {
	Text           string
	StopReason     StopReason
	Attempts       int
	FunctionRounds int
	Usage          completion.Usage
}

// Driver executes turns against a completion client.
type Driver struct {
	client   completion.Client
	registry *function.Registry
	sink     metrics.Sink
	config   Config
	logger   *slog.Logger
	sleep    func(time.Duration)
}

// New creates a Driver. A nil sink discards readings.
func New(client completion.Client, registry *function.Registry, sink metrics.Sink, cfg Config, logger *slog.Logger) *Driver {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		client:   client,
		registry: registry,
		sink:     sink,
		config:   cfg.withDefaults(),
		logger:   logger.With("component", "driver"),
		sleep:    time.Sleep,
	}
}

// SetSleep replaces the inter-attempt sleep. For tests.
func (d *Driver) SetSleep(fn func(time.Duration)) {
	d.sleep = fn
}

// Run executes the turn to completion. Exhausted retries and exhausted
// function rounds come back as normal Results carrying the fallback reply;
// an error is returned only for failures the conversation cannot absorb,
// like a function call naming an unregistered capability.
func (d *Driver) Run(ctx context.Context, req Request) (Result, error) {
	spec := SpecFor(req.Model)
	entries := req.Entries

	var res Result
	for round := 0; ; round++ {
		resp, remaining, attempts, err := d.complete(ctx, req, entries)
		entries = remaining
		res.Attempts += attempts
		res.FunctionRounds = round

		if err != nil {
			if errors.Is(err, ErrRetriesExhausted) {
				d.logger.Error("turn gave up after retries", "attempts", res.Attempts, "error", err)
				res.Text = d.config.ExhaustedReply
				res.StopReason = StopExhaustedRetries
				return res, nil
			}
			res.StopReason = StopError
			return res, err
		}

		res.Usage = addUsage(res.Usage, resp.Usage)
		d.recordResponse(req.Model, spec, resp.Usage)

		if resp.FunctionCall == nil {
			d.sink.Record(metricNoFunctionCall, 1, metrics.UnitCount, nil)
			res.Text = resp.Content
			res.StopReason = StopComplete
			return res, nil
		}

		if round >= d.config.MaxFunctionRounds {
			d.logger.Error("function-call recursion bound hit",
				"rounds", round, "function", resp.FunctionCall.Name)
			res.Text = d.config.ExhaustedReply
			res.StopReason = StopFunctionRounds
			return res, nil
		}

		call := resp.FunctionCall
		d.logger.Info("executing function call", "function", call.Name, "round", round)
		if req.OnFunctionCall != nil {
			req.OnFunctionCall(call.Name)
		}

		payload, err := d.registry.Invoke(ctx, call.Name, call.Arguments)
		if err != nil {
			// Unregistered capability: the catalog we advertised does not
			// match the registry, a configuration error.
			res.StopReason = StopError
			return res, fmt.Errorf("dispatch %q: %w", call.Name, err)
		}
		d.sink.Record(metricFunctionCalls, 1, metrics.UnitCount, nil)

		entries = append(entries, completion.Entry{
			Role:    completion.RoleFunction,
			Name:    call.Name,
			Content: string(payload),
		})
	}
}

// complete makes up to MaxAttempts calls for one window. On context overflow
// it drops the oldest entry after the instruction entry and tries again; on
// a transient failure it backs off and retries unchanged. Any other error
// aborts immediately.
func (d *Driver) complete(ctx context.Context, req Request, entries []completion.Entry) (completion.Response, []completion.Entry, int, error) {
	var lastErr error
	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return completion.Response{}, entries, attempt - 1, err
		}

		resp, err := d.client.Complete(ctx, completion.Request{
			Model:       req.Model,
			Entries:     entries,
			Functions:   d.registry.Definitions(),
			Temperature: req.Temperature,
		})
		if err == nil {
			return resp, entries, attempt, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, completion.ErrContextLength):
			d.logger.Warn("context length exceeded, trimming window",
				"attempt", attempt, "entries", len(entries))
			if len(entries) >= 2 {
				entries = dropOldest(entries)
			}
		case completion.IsRetryable(err):
			d.logger.Warn("transient completion failure",
				"attempt", attempt, "error", err)
		default:
			return completion.Response{}, entries, attempt, err
		}

		if attempt < d.config.MaxAttempts {
			d.sleep(d.config.Backoff)
		}
	}
	return completion.Response{}, entries, d.config.MaxAttempts,
		fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// dropOldest removes the oldest conversation entry while keeping the
// instruction entry at index 0. Copies so the caller's slice is untouched.
func dropOldest(entries []completion.Entry) []completion.Entry {
	out := make([]completion.Entry, 0, len(entries)-1)
	out = append(out, entries[0])
	return append(out, entries[2:]...)
}

func (d *Driver) recordResponse(model string, spec ModelSpec, usage completion.Usage) {
	// Per model and in aggregate, like the health report expects.
	d.sink.Record(metricResponses, 1, metrics.UnitCount, map[string]string{"model": model})
	d.sink.Record(metricResponses, 1, metrics.UnitCount, nil)

	if usage == (completion.Usage{}) {
		return
	}
	d.sink.Record(metricPromptTokens, float64(usage.PromptTokens), metrics.UnitCount, nil)
	d.sink.Record(metricCompletionTokens, float64(usage.CompletionTokens), metrics.UnitCount, nil)
	d.sink.Record(metricTotalTokens, float64(usage.TotalTokens), metrics.UnitCount, nil)

	inputCost := float64(usage.PromptTokens) * spec.InputCostPer1K / 1000
	outputCost := float64(usage.CompletionTokens) * spec.OutputCostPer1K / 1000
	d.sink.Record(metricInputCost, inputCost, metrics.UnitNone, nil)
	d.sink.Record(metricOutputCost, outputCost, metrics.UnitNone, nil)
	d.sink.Record(metricTotalCost, inputCost+outputCost, metrics.UnitNone, nil)
}

func addUsage(a, b completion.Usage) completion.Usage {
	return completion.Usage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}
