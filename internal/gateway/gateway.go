// Package gateway is the HTTP surface of the bot: the Slack events
// endpoint, health, and Prometheus metrics. Event processing is
// asynchronous; Slack gets its 200 before the turn runs.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chatloop-ai/chatloop/internal/bot"
	"github.com/chatloop-ai/chatloop/internal/metrics"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	// processTimeout bounds one asynchronous turn kicked off by an
	// inbound event.
	processTimeout = 2 * time.Minute
)

// EventHandler runs a turn for one inbound event.
type EventHandler interface {
	HandleInboundEvent(ctx context.Context, ev chat.Event) bot.Outcome
}

// Config holds the gateway's configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// SigningSecret verifies inbound Slack requests. Empty disables
	// verification.
	SigningSecret string
}

// Deps are the gateway's collaborators.
type Deps struct {
	Handler  EventHandler
	Counters *metrics.Counters

	// Gatherer serves GET /metrics. Nil leaves the route unmounted.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Gateway is the HTTP server.
type Gateway struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	// inflight tracks asynchronous event turns so Stop can wait for
	// them.
	inflight sync.WaitGroup
	now      func() time.Time
}

// New creates a Gateway.
func New(cfg Config, deps Deps) *Gateway {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config: cfg,
		deps:   deps,
		logger: logger.With("component", "gateway"),
		now:    time.Now,
	}
}

// Start begins listening. It returns once the listener is bound; serving
// continues in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.startedAt = g.now()

	g.server = &http.Server{
		Addr:         g.config.Addr,
		Handler:      g.buildRouter(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Addr)
	if err != nil {
		return fmt.Errorf("gateway: listen on %s: %w", g.config.Addr, err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Addr)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully and waits for in-flight event
// turns.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	err := g.server.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		g.logger.Warn("shutdown timed out with event turns still running")
	}

	return err
}
