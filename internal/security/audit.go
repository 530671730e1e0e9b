package security

import (
	"encoding/json"
	"io"
	"maps"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// EventType categorizes audit events.
type EventType string

// Audit event types covering the action lifecycle and operator access.
const (
	EventProposal    EventType = "proposal"
	EventApproval    EventType = "approval"
	EventRejection   EventType = "rejection"
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventAuthSuccess EventType = "auth_success"
	EventAuthFailure EventType = "auth_failure"
	EventRateLimit   EventType = "rate_limit"
)

// maxAuditDetailLen caps the Detail field so a large file body or command
// output cannot bloat the audit log.
const maxAuditDetailLen = 4096

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	ActionID   string            `json:"action_id,omitempty"`
	ActionKind string            `json:"action_kind,omitempty"`
	Tool       string            `json:"tool,omitempty"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AuditLoggerConfig configures the audit logger.
type AuditLoggerConfig struct {
	// Writer is the destination for JSONL output. If nil, events are only
	// dispatched to OnEvent.
	Writer io.Writer

	// Redactor, if non-nil, is applied to Detail and Metadata values before writing.
	Redactor *Redactor

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(AuditEvent)

	// Now overrides time.Now for testing. Defaults to time.Now.
	Now func() time.Time
}

// AuditLogger writes structured audit events as JSONL with optional redaction.
type AuditLogger struct {
	writer      io.Writer
	redactor    *Redactor
	onEvent     func(AuditEvent)
	now         func() time.Time
	mu          sync.Mutex
	writeErrors atomic.Int64
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{
		writer:   cfg.Writer,
		redactor: cfg.Redactor,
		onEvent:  cfg.OnEvent,
		now:      now,
	}
}

// Log writes an audit event. The timestamp is set automatically.
// If a Redactor is configured, Detail and Metadata values are redacted.
// The caller's Metadata map is never mutated.
func (l *AuditLogger) Log(event AuditEvent) {
	event.Timestamp = l.now()

	if len(event.Metadata) > 0 {
		event.Metadata = maps.Clone(event.Metadata)
	}

	if l.redactor != nil {
		event.Detail = l.redactor.Redact(event.Detail)
		for k, v := range event.Metadata {
			event.Metadata[k] = l.redactor.Redact(v)
		}
	}

	// Callback and write share the lock so both observe the same order.
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}

	if l.writer != nil {
		if err := json.NewEncoder(l.writer).Encode(event); err != nil {
			l.writeErrors.Add(1)
		}
	}
}

// WriteErrors returns how many events failed to reach the writer.
func (l *AuditLogger) WriteErrors() int64 {
	return l.writeErrors.Load()
}

// TruncateForAudit shortens s to maxAuditDetailLen bytes without splitting
// a UTF-8 sequence, appending a marker when anything was cut.
func TruncateForAudit(s string) string {
	if len(s) <= maxAuditDetailLen {
		return s
	}
	cut := maxAuditDetailLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...[truncated]"
}

// AuditService is the AppContext service name of the process AuditLogger.
const AuditService = "security.audit"
