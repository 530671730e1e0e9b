package gateway

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"` // "ok" or "degraded"
	Pending int    `json:"pending"`
	Error   string `json:"error,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 while the action store answers, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}

		n, err := g.registry.Len(r.Context())
		if err != nil {
			resp.Status = "degraded"
			resp.Error = err.Error()
		} else {
			resp.Pending = n
			g.metrics.SetPending(n)
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
