package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/toolgate/internal/security"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultShellTimeout bounds an approved shell command when no timeout is configured.
const DefaultShellTimeout = 2 * time.Minute

const tracerName = "github.com/flemzord/toolgate/internal/action"

// FileWriter creates parent directories as needed and writes content to
// path, overwriting existing content. It returns the resolved path.
type FileWriter interface {
	WriteFile(ctx context.Context, path, content string) (string, error)
}

// ShellRunner runs a command string through a shell and captures its
// output. A non-zero exit status is reported in ShellResult, not as an error.
// When ctx expires the runner returns whatever output it captured together
// with an error wrapping ErrTimeout or context.DeadlineExceeded.
type ShellRunner interface {
	Run(ctx context.Context, command string) (ShellResult, error)
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Registry is the source of pending actions. Required.
	Registry *Registry

	// Files performs approved file writes. Required.
	Files FileWriter

	// Shell runs approved shell commands. Required.
	Shell ShellRunner

	// Timeout bounds each shell command. Defaults to DefaultShellTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Audit, if non-nil, receives approval, rejection, and result events.
	Audit *security.AuditLogger

	// Observer, if non-nil, is notified of every resolution.
	Observer Observer

	// Tracer defaults to the global OpenTelemetry tracer.
	Tracer trace.Tracer
}

// Executor resolves pending actions: approval applies the side effect,
// rejection discards it.
type Executor struct {
	registry *Registry
	files    FileWriter
	shell    ShellRunner
	timeout  time.Duration
	logger   *slog.Logger
	audit    *security.AuditLogger
	observer Observer
	tracer   trace.Tracer
	now      func() time.Time
}

// NewExecutor creates an Executor from cfg, filling defaults.
func NewExecutor(cfg ExecutorConfig) *Executor {
	e := &Executor{
		registry: cfg.Registry,
		files:    cfg.Files,
		shell:    cfg.Shell,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		audit:    cfg.Audit,
		observer: cfg.Observer,
		tracer:   cfg.Tracer,
		now:      time.Now,
	}
	if e.timeout <= 0 {
		e.timeout = DefaultShellTimeout
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	e.logger = e.logger.With("component", "action.executor")
	return e
}

// Timeout returns the bound applied to each shell command.
func (e *Executor) Timeout() time.Duration { return e.timeout }

// Approve takes the action registered under id and applies its side effect.
// The action is removed before the effect starts, so a concurrent or repeated
// Approve for the same id reports not found. Once taken, the effect is not
// cancelled by ctx; it runs to completion, failure, or the shell timeout.
func (e *Executor) Approve(ctx context.Context, id string) Outcome {
	id = NormalizeID(id)
	ctx, span := e.tracer.Start(ctx, "action.approve", trace.WithAttributes(attribute.String("action.id", id)))
	defer span.End()

	start := e.now()
	a, err := e.registry.Take(ctx, id)
	if err != nil {
		return e.finish(span, e.takeFailure(id, err), start)
	}
	span.SetAttributes(attribute.String("action.kind", string(a.Kind())))
	e.logAudit(security.EventApproval, a, "approved")

	runCtx := context.WithoutCancel(ctx)

	var out Outcome
	switch v := a.(type) {
	case FileWrite:
		out = e.writeFile(runCtx, v)
	case ShellCommand:
		out = e.runCommand(runCtx, v)
	default:
		out = failedOutcome(a, fmt.Errorf("%w: unsupported action %T", ErrExecution, a), fmt.Sprintf("Error: unsupported action type %q", a.Kind()))
	}

	detail := security.TruncateForAudit(out.Text)
	if out.Err != nil {
		detail = "error: " + out.Err.Error()
	}
	if e.audit != nil {
		e.audit.Log(security.AuditEvent{
			Type:       security.EventToolResult,
			ActionID:   a.ActionID(),
			ActionKind: string(a.Kind()),
			Detail:     detail,
			Metadata: map[string]string{
				"status":  string(out.Status),
				"failure": string(out.Failure),
			},
		})
	}

	return e.finish(span, out, start)
}

// Reject takes the action registered under id and discards it unexecuted.
func (e *Executor) Reject(ctx context.Context, id string) Outcome {
	id = NormalizeID(id)
	ctx, span := e.tracer.Start(ctx, "action.reject", trace.WithAttributes(attribute.String("action.id", id)))
	defer span.End()

	start := e.now()
	a, err := e.registry.Take(ctx, id)
	if err != nil {
		return e.finish(span, e.takeFailure(id, err), start)
	}

	e.logAudit(security.EventRejection, a, "rejected")
	out := Outcome{
		ID:     a.ActionID(),
		Status: StatusRejected,
		Kind:   a.Kind(),
		Action: a,
		Text:   fmt.Sprintf("Action %s rejected and removed.", a.ActionID()),
	}
	return e.finish(span, out, start)
}

func (e *Executor) writeFile(ctx context.Context, a FileWrite) Outcome {
	resolved, err := e.files.WriteFile(ctx, a.Path, a.Content)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrIO, a.Path, err)
		return failedOutcome(a, err, fmt.Sprintf("Error writing file: %v", err))
	}
	return Outcome{
		ID:     a.ID,
		Status: StatusExecuted,
		Kind:   a.Kind(),
		Action: a,
		Path:   resolved,
		Text:   fmt.Sprintf("Successfully wrote to %s", resolved),
	}
}

func (e *Executor) runCommand(ctx context.Context, a ShellCommand) Outcome {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.shell.Run(ctx, a.Command)
	if err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			if !errors.Is(err, ErrTimeout) {
				err = fmt.Errorf("%w after %s: %w", ErrTimeout, e.timeout, err)
			}
			out := failedOutcome(a, err, fmt.Sprintf("Error: command timed out after %s\n%s", e.timeout, formatShellResult(res)))
			out.Shell = &res
			return out
		}
		if !errors.Is(err, ErrExecution) {
			err = fmt.Errorf("%w: %w", ErrExecution, err)
		}
		return failedOutcome(a, err, fmt.Sprintf("Error executing command: %v", err))
	}

	return Outcome{
		ID:     a.ID,
		Status: StatusExecuted,
		Kind:   a.Kind(),
		Action: a,
		Shell:  &res,
		Text:   formatShellResult(res),
	}
}

// takeFailure turns a Take error into an outcome. Anything other than
// ErrNotFound is a store failure.
func (e *Executor) takeFailure(id string, err error) Outcome {
	if errors.Is(err, ErrNotFound) {
		return notFoundOutcome(id, err)
	}
	e.logger.Error("action store failure", "id", id, "error", err)
	return Outcome{
		ID:      id,
		Status:  StatusFailed,
		Failure: FailureExecution,
		Text:    fmt.Sprintf("Error: could not resolve action %s: %v", id, err),
		Err:     err,
	}
}

func (e *Executor) finish(span trace.Span, out Outcome, start time.Time) Outcome {
	out.Duration = e.now().Sub(start)
	e.observer.ActionResolved(out.Kind, out.Status, out.Duration)

	span.SetAttributes(attribute.String("action.status", string(out.Status)))
	if !out.OK() {
		if out.Err != nil {
			span.RecordError(out.Err)
		}
		span.SetStatus(codes.Error, string(out.Failure))
	}

	attrs := []any{"id", out.ID, "status", string(out.Status)}
	if out.Kind != "" {
		attrs = append(attrs, "kind", string(out.Kind))
	}
	switch {
	case out.OK():
		e.logger.Info("action resolved", attrs...)
	case out.Status == StatusNotFound:
		e.logger.Warn("action resolution for unknown id", attrs...)
	default:
		e.logger.Error("action failed", append(attrs, "failure", string(out.Failure), "error", out.Err)...)
	}
	return out
}

func (e *Executor) logAudit(t security.EventType, a PendingAction, detail string) {
	if e.audit == nil {
		return
	}
	e.audit.Log(security.AuditEvent{
		Type:       t,
		ActionID:   a.ActionID(),
		ActionKind: string(a.Kind()),
		Detail:     detail,
		Metadata:   map[string]string{"target": security.TruncateForAudit(a.Target())},
	})
}
