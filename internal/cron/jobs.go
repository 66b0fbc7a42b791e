package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chatloop-ai/chatloop/internal/kvstore"
)

// SweepJob purges expired key-value entries (profile caches, TTL'd
// settings) from a store that does not expire them natively.
type SweepJob struct {
	Sweeper      kvstore.Sweeper
	Logger       *slog.Logger
	ScheduleExpr string // empty = hourly
}

// Compile-time interface check.
var _ Job = (*SweepJob)(nil)

// Name implements Job.
func (j *SweepJob) Name() string { return "kv_sweep" }

// Schedule implements Job.
func (j *SweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "@hourly"
}

// Run implements Job.
func (j *SweepJob) Run(ctx context.Context) error {
	purged, err := j.Sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("cron: sweep expired entries: %w", err)
	}
	if purged > 0 && j.Logger != nil {
		j.Logger.Info("purged expired entries", "count", purged)
	}
	return nil
}
