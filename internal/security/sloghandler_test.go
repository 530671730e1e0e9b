package security

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(r *Redactor, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(inner, r)), &buf
}

func TestRedactingHandler_Message(t *testing.T) {
	t.Parallel()

	logger, buf := newTestLogger(NewRedactor(), slog.LevelDebug)
	logger.Info("calling openai with sk-abcdefghijklmnopqrstuvwxyz")

	if strings.Contains(buf.String(), "sk-abcdefghijklmnopqrstuvwxyz") {
		t.Errorf("secret in message: %s", buf.String())
	}
	if !strings.Contains(buf.String(), RedactPlaceholder) {
		t.Errorf("placeholder missing: %s", buf.String())
	}
}

func TestRedactingHandler_Attributes(t *testing.T) {
	t.Parallel()

	r := &Redactor{}
	r.AddLiteral("gemini-key-literal")
	logger, buf := newTestLogger(r, slog.LevelDebug)

	logger.Info("vision call",
		"model", "gemini-2.5-flash",
		"url", "https://example.test/?key=gemini-key-literal",
		"access_token", "figd_anything",
		"error", errors.New("auth failed for gemini-key-literal"),
	)

	out := buf.String()
	if strings.Contains(out, "gemini-key-literal") || strings.Contains(out, "figd_anything") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "model=gemini-2.5-flash") {
		t.Errorf("safe attribute missing: %s", out)
	}
}

func TestRedactingHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	r := &Redactor{}
	r.AddLiteral("persistent-secret")
	logger, buf := newTestLogger(r, slog.LevelDebug)

	logger.With("owner", "persistent-secret").WithGroup("shell").Info("approved",
		slog.Group("cmd", slog.String("text", "echo persistent-secret")),
	)

	out := buf.String()
	if strings.Contains(out, "persistent-secret") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "shell.cmd.text=") {
		t.Errorf("group prefix lost: %s", out)
	}
}

func TestRedactingHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := NewRedactingHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}), NewRedactor())
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug enabled under warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled under warn level")
	}
}

func TestRedactingHandler_LeavesPlainLinesAlone(t *testing.T) {
	t.Parallel()

	logger, buf := newTestLogger(NewRedactor(), slog.LevelDebug)
	logger.Info("action proposed", "id", "a1b2c3d4", "count", 3)

	out := buf.String()
	if strings.Contains(out, RedactPlaceholder) {
		t.Errorf("unexpected redaction: %s", out)
	}
	if !strings.Contains(out, "id=a1b2c3d4") || !strings.Contains(out, "count=3") {
		t.Errorf("attributes missing: %s", out)
	}
}
