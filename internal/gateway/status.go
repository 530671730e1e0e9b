package gateway

import (
	"net/http"
	"time"

	"github.com/flemzord/toolgate/internal/core"
)

// moduleJSON is a serializable module info snapshot.
type moduleJSON struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// StatusResponse is the JSON response for GET /api/status.
type StatusResponse struct {
	Uptime  int64        `json:"uptime_seconds"`
	Pending int          `json:"pending"`
	Modules []moduleJSON `json:"modules"`
}

// handleStatus returns an http.HandlerFunc for GET /api/status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Uptime:  int64(time.Since(g.startedAt) / time.Second),
			Modules: []moduleJSON{},
		}

		n, err := g.registry.Len(r.Context())
		if err != nil {
			http.Error(w, "action store unavailable", http.StatusServiceUnavailable)
			return
		}
		resp.Pending = n

		for _, m := range core.GetModules() {
			resp.Modules = append(resp.Modules, moduleJSON{
				ID:        string(m.ID),
				Namespace: m.ID.Namespace(),
				Name:      m.ID.Name(),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
