package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/chatloop-ai/chatloop/internal/metrics"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string           `json:"status"`
	Uptime   string           `json:"uptime"`
	Activity metrics.Snapshot `json:"activity"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Uptime: g.now().Sub(g.startedAt).Round(time.Second).String(),
		}
		if g.deps.Counters != nil {
			resp.Activity = g.deps.Counters.Snapshot()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
