package action

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/flemzord/toolgate/internal/security"
)

// NoPendingActions is the listing text for an empty registry.
const NoPendingActions = "No pending actions."

// DefaultMaxPayloadSize bounds file content and command length.
const DefaultMaxPayloadSize = 10 << 20 // 10 MiB

// maxIDAttempts bounds id regeneration on collision.
const maxIDAttempts = 8

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Store holds pending actions. Defaults to a new MemoryStore.
	Store Store

	// MaxPayloadSize is the largest accepted file content or command, in
	// bytes. Defaults to DefaultMaxPayloadSize.
	MaxPayloadSize int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Audit, if non-nil, receives a proposal event for every registration.
	Audit *security.AuditLogger

	// Observer, if non-nil, is notified of proposals.
	Observer Observer

	// NewID overrides id generation. Defaults to NewID.
	NewID func() string
}

// Registry is the single source of truth for unresolved actions.
type Registry struct {
	store          Store
	maxPayloadSize int
	logger         *slog.Logger
	audit          *security.AuditLogger
	observer       Observer
	newID          func() string
}

// NewRegistry creates a Registry from cfg, filling defaults.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		store:          cfg.Store,
		maxPayloadSize: cfg.MaxPayloadSize,
		logger:         cfg.Logger,
		audit:          cfg.Audit,
		observer:       cfg.Observer,
		newID:          cfg.NewID,
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	if r.maxPayloadSize <= 0 {
		r.maxPayloadSize = DefaultMaxPayloadSize
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.newID == nil {
		r.newID = NewID
	}
	r.logger = r.logger.With("component", "action.registry")
	return r
}

// ProposeFileWrite registers a file write and returns its id.
func (r *Registry) ProposeFileWrite(ctx context.Context, path, content string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: path must not be empty", ErrInvalidPayload)
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("%w: path contains a NUL byte", ErrInvalidPayload)
	}
	if err := security.CheckSize(len(content), r.maxPayloadSize); err != nil {
		return "", fmt.Errorf("%w: content: %w", ErrInvalidPayload, err)
	}
	return r.propose(ctx, FileWrite{Path: path, Content: content})
}

// ProposeShellCommand registers a shell command and returns its id.
func (r *Registry) ProposeShellCommand(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("%w: command must not be empty", ErrInvalidPayload)
	}
	if strings.ContainsRune(command, 0) {
		return "", fmt.Errorf("%w: command contains a NUL byte", ErrInvalidPayload)
	}
	if err := security.CheckSize(len(command), r.maxPayloadSize); err != nil {
		return "", fmt.Errorf("%w: command: %w", ErrInvalidPayload, err)
	}
	return r.propose(ctx, ShellCommand{Command: command})
}

func (r *Registry) propose(ctx context.Context, a PendingAction) (string, error) {
	for range maxIDAttempts {
		id := r.newID()
		err := r.store.Put(ctx, withID(a, id))
		if errors.Is(err, ErrDuplicateID) {
			r.logger.Debug("action id collision, regenerating", "id", id)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("action: register %s: %w", a.Kind(), err)
		}

		r.observer.ActionProposed(a.Kind())
		r.logger.Info("action proposed", "id", id, "kind", string(a.Kind()), "target", a.Target())
		if r.audit != nil {
			r.audit.Log(security.AuditEvent{
				Type:       security.EventProposal,
				ActionID:   id,
				ActionKind: string(a.Kind()),
				Detail:     security.TruncateForAudit(a.Target()),
			})
		}
		return id, nil
	}
	return "", fmt.Errorf("action: could not allocate a unique id after %d attempts", maxIDAttempts)
}

// List enumerates pending actions in proposal order. Each range over the
// returned sequence takes a fresh snapshot, so the sequence can be
// restarted. A store failure is yielded once as the error and ends the
// sequence.
func (r *Registry) List(ctx context.Context) iter.Seq2[Summary, error] {
	return func(yield func(Summary, error) bool) {
		actions, err := r.store.List(ctx)
		if err != nil {
			yield(Summary{}, fmt.Errorf("action: list: %w", err))
			return
		}
		for _, a := range actions {
			if !yield(Summarize(a), nil) {
				return
			}
		}
	}
}

// Summaries collects List into a slice.
func (r *Registry) Summaries(ctx context.Context) ([]Summary, error) {
	out := []Summary{}
	for s, err := range r.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ListText renders pending actions one per line, or NoPendingActions.
func (r *Registry) ListText(ctx context.Context) string {
	var b strings.Builder
	for s, err := range r.List(ctx) {
		if err != nil {
			return "Error listing pending actions: " + err.Error()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.String())
	}
	if b.Len() == 0 {
		return NoPendingActions
	}
	return b.String()
}

// Peek returns the pending action registered under id without removing it.
func (r *Registry) Peek(ctx context.Context, id string) (PendingAction, error) {
	return r.store.Peek(ctx, NormalizeID(id))
}

// Take atomically removes and returns the pending action registered under id.
func (r *Registry) Take(ctx context.Context, id string) (PendingAction, error) {
	return r.store.Take(ctx, NormalizeID(id))
}

// Len returns the number of pending actions.
func (r *Registry) Len(ctx context.Context) (int, error) {
	return r.store.Len(ctx)
}
