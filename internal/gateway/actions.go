package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/security"
	"github.com/go-chi/chi/v5"
)

// ActionSummary is one entry of GET /api/actions.
type ActionSummary struct {
	ID     string      `json:"id"`
	Kind   action.Kind `json:"kind"`
	Target string      `json:"target"`
	Text   string      `json:"text"`
}

// ActionDetail is the JSON response for GET /api/actions/{id}.
type ActionDetail struct {
	ActionSummary
	Content string `json:"content,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// RejectRequest is the optional body of POST /api/actions/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func toSummary(s action.Summary) ActionSummary {
	return ActionSummary{ID: s.ID, Kind: s.Kind, Target: s.Target, Text: s.String()}
}

// handleListActions returns all pending actions in proposal order.
func (g *Gateway) handleListActions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := g.registry.Summaries(r.Context())
		if err != nil {
			g.logger.Error("listing actions failed", "error", err)
			http.Error(w, "action store unavailable", http.StatusServiceUnavailable)
			return
		}

		out := make([]ActionSummary, 0, len(summaries))
		for _, s := range summaries {
			out = append(out, toSummary(s))
		}
		g.metrics.SetPending(len(out))
		writeJSON(w, http.StatusOK, out)
	}
}

// handleGetAction returns one pending action with a preview of its effect.
// It never removes the action.
func (g *Gateway) handleGetAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := g.registry.Peek(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, action.ErrNotFound):
			http.Error(w, "action not found", http.StatusNotFound)
			return
		case err != nil:
			g.logger.Error("peeking action failed", "error", err)
			http.Error(w, "action store unavailable", http.StatusServiceUnavailable)
			return
		}

		detail := ActionDetail{ActionSummary: toSummary(action.Summarize(a))}
		if fw, ok := a.(action.FileWrite); ok {
			detail.Content = fw.Content
		}
		preview, err := action.Preview(a)
		if err != nil {
			g.logger.Warn("building preview failed", "id", a.ActionID(), "error", err)
		}
		detail.Preview = preview

		writeJSON(w, http.StatusOK, detail)
	}
}

// handleApproveAction applies the action and blocks until its effect
// completes. The outcome is returned as JSON.
func (g *Gateway) handleApproveAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := g.executor.Approve(r.Context(), chi.URLParam(r, "id"))
		g.logger.Info("approval via gateway", "id", out.ID, "status", out.Status, "reviewer", reviewerFrom(r.Context()))
		writeOutcome(w, out)
	}
}

// handleRejectAction discards the action. An optional JSON body may carry
// the operator's reason, which is logged.
func (g *Gateway) handleRejectAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RejectRequest
		if err := g.decodeBody(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out := g.executor.Reject(r.Context(), chi.URLParam(r, "id"))
		if out.Status == action.StatusRejected {
			g.logger.Info("action rejected by operator", "id", out.ID, "reviewer", reviewerFrom(r.Context()), "reason", req.Reason)
		}
		writeOutcome(w, out)
	}
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func (g *Gateway) decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, int64(g.config.MaxBodySize)+1))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := security.CheckSize(len(data), g.config.MaxBodySize); err != nil {
		return err
	}
	if err := security.CheckJSONDepth(data, 0); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeOutcome(w http.ResponseWriter, out action.Outcome) {
	status := http.StatusOK
	if out.Status == action.StatusNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
