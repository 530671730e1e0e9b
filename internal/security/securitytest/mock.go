// Package securitytest provides test doubles for the security package.
package securitytest

import (
	"sync"

	"github.com/flemzord/toolgate/internal/security"
)

// NewTestAuditLogger creates an AuditLogger that records events in memory.
// The returned function snapshots the events logged so far.
func NewTestAuditLogger() (*security.AuditLogger, func() []security.AuditEvent) {
	var (
		mu     sync.Mutex
		events []security.AuditEvent
	)
	logger := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(e security.AuditEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	return logger, func() []security.AuditEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]security.AuditEvent(nil), events...)
	}
}
