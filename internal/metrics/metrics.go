// Package metrics defines the fire-and-forget metrics sink the engine
// reports usage and cost readings to, plus an atomic in-process counter set
// used by the health capability and the gateway status endpoint. A sink
// failure must never abort a turn.
package metrics

import (
	"sync/atomic"
	"time"
)

// Unit describes the unit of a metric reading.
type Unit string

// Units.
const (
	UnitCount Unit = "Count"
	UnitNone  Unit = "None"
)

// Sink receives metric readings. Implementations must be best-effort:
// Record never returns an error and must not panic.
type Sink interface {
	Record(name string, value float64, unit Unit, dims map[string]string)
}

// NopSink discards all readings.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(string, float64, Unit, map[string]string) {}

// Interface guard.
var _ Sink = NopSink{}

// Counters tracks engine-level activity using atomic operations for
// lock-free concurrent access across runs.
type Counters struct {
	events       atomic.Int64
	responses    atomic.Int64
	failures     atomic.Int64
	totalTokens  atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// RecordEvent records one processed inbound event.
func (c *Counters) RecordEvent() {
	c.events.Add(1)
}

// RecordResponse records a completed response with its token usage and
// end-to-end latency.
func (c *Counters) RecordResponse(tokens int, latency time.Duration) {
	c.responses.Add(1)
	c.totalTokens.Add(int64(tokens))
	c.totalLatency.Add(int64(latency))
}

// RecordFailure records a failed turn.
func (c *Counters) RecordFailure() {
	c.failures.Add(1)
}

// Snapshot returns a point-in-time view of the counters.
func (c *Counters) Snapshot() Snapshot {
	responses := c.responses.Load()
	snap := Snapshot{
		Events:      c.events.Load(),
		Responses:   responses,
		Failures:    c.failures.Load(),
		TotalTokens: c.totalTokens.Load(),
	}
	if responses > 0 {
		snap.AvgLatency = time.Duration(c.totalLatency.Load() / responses)
	}
	return snap
}

// Snapshot is a serializable point-in-time counter view.
type Snapshot struct {
	Events      int64         `json:"events"`
	Responses   int64         `json:"responses"`
	Failures    int64         `json:"failures"`
	TotalTokens int64         `json:"total_tokens"`
	AvgLatency  time.Duration `json:"avg_latency_ns"`
}
