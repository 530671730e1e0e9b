// Package actiontest provides test helpers and mocks for the action package.
package actiontest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/toolgate/internal/action"
)

// MockFileWriter is a configurable mock implementation of action.FileWriter.
// Without WriteFileFunc it records writes in memory.
type MockFileWriter struct {
	WriteFileFunc func(ctx context.Context, path, content string) (string, error)

	mu     sync.Mutex
	Writes map[string]string
	Calls  int
}

// WriteFile implements action.FileWriter.
func (m *MockFileWriter) WriteFile(ctx context.Context, path, content string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(ctx, path, content)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Writes == nil {
		m.Writes = make(map[string]string)
	}
	m.Writes[path] = content
	return path, nil
}

// CallCount returns the number of WriteFile calls.
func (m *MockFileWriter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockShellRunner is a configurable mock implementation of action.ShellRunner.
// Without RunFunc it echoes the command on stdout.
type MockShellRunner struct {
	RunFunc func(ctx context.Context, command string) (action.ShellResult, error)

	mu       sync.Mutex
	Commands []string
}

// Run implements action.ShellRunner.
func (m *MockShellRunner) Run(ctx context.Context, command string) (action.ShellResult, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, command)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, command)
	}
	return action.ShellResult{Stdout: command + "\n"}, nil
}

// CallCount returns the number of Run calls.
func (m *MockShellRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Commands)
}

// RecordingObserver is an action.Observer that counts notifications.
type RecordingObserver struct {
	mu       sync.Mutex
	Proposed map[action.Kind]int
	Resolved map[action.Status]int
}

// ActionProposed implements action.Observer.
func (o *RecordingObserver) ActionProposed(kind action.Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Proposed == nil {
		o.Proposed = make(map[action.Kind]int)
	}
	o.Proposed[kind]++
}

// ActionResolved implements action.Observer.
func (o *RecordingObserver) ActionResolved(_ action.Kind, status action.Status, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Resolved == nil {
		o.Resolved = make(map[action.Status]int)
	}
	o.Resolved[status]++
}

// ResolvedCount returns how many resolutions reported status.
func (o *RecordingObserver) ResolvedCount(status action.Status) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Resolved[status]
}

// Interface guards.
var (
	_ action.FileWriter  = (*MockFileWriter)(nil)
	_ action.ShellRunner = (*MockShellRunner)(nil)
	_ action.Observer    = (*RecordingObserver)(nil)
)
