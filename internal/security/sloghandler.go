package security

import (
	"context"
	"log/slog"
)

// RedactingHandler is a slog.Handler middleware that passes every message
// and attribute through a Redactor. Attributes named like a secret
// (api_key, access_token, ...) are replaced whatever their value.
type RedactingHandler struct {
	next     slog.Handler
	redactor *Redactor
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler wraps next.
func NewRedactingHandler(next slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{next: next, redactor: redactor}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.Redact(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.scrub(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		scrubbed = append(scrubbed, h.scrub(a))
	}
	return &RedactingHandler{next: h.next.WithAttrs(scrubbed), redactor: h.redactor}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}

func (h *RedactingHandler) scrub(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		scrubbed := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			scrubbed = append(scrubbed, h.scrub(ga))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbed...)}
	case slog.KindString, slog.KindAny:
		if secretArgName.MatchString(a.Key) {
			return slog.String(a.Key, RedactPlaceholder)
		}
		// Errors and Stringers are rendered so their text can be checked.
		s := v.String()
		if red := h.redactor.Redact(s); red != s {
			return slog.String(a.Key, red)
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}
