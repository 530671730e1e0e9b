package action

import (
	"fmt"
	"strings"
	"time"
)

// Status is the terminal state an approve or reject call reports.
type Status string

// Status values.
const (
	StatusExecuted Status = "executed"
	StatusFailed   Status = "failed"
	StatusRejected Status = "rejected"
	StatusNotFound Status = "not_found"
)

// ShellResult is the captured result of a shell command. A non-zero
// ExitCode is data, not a failure.
type ShellResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Outcome describes how an approve or reject call resolved.
// Text is the human-readable result returned to the caller.
type Outcome struct {
	ID       string        `json:"id"`
	Status   Status        `json:"status"`
	Failure  FailureKind   `json:"failure,omitempty"`
	Kind     Kind          `json:"kind,omitempty"`
	Path     string        `json:"path,omitempty"`
	Shell    *ShellResult  `json:"shell,omitempty"`
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration_ns"`

	// Action is the resolved action; nil when the id was not found.
	Action PendingAction `json:"-"`

	// Err is the underlying error for failed outcomes.
	Err error `json:"-"`
}

// OK reports whether the call succeeded (executed or rejected).
func (o Outcome) OK() bool {
	return o.Status == StatusExecuted || o.Status == StatusRejected
}

func notFoundOutcome(id string, err error) Outcome {
	return Outcome{
		ID:      id,
		Status:  StatusNotFound,
		Failure: FailureNotFound,
		Text:    fmt.Sprintf("Error: No pending action found with ID %s", id),
		Err:     err,
	}
}

func failedOutcome(a PendingAction, err error, text string) Outcome {
	return Outcome{
		ID:      a.ActionID(),
		Status:  StatusFailed,
		Failure: Classify(err),
		Kind:    a.Kind(),
		Action:  a,
		Text:    text,
		Err:     err,
	}
}

// formatShellResult renders captured streams the way callers read them.
func formatShellResult(res ShellResult) string {
	var b strings.Builder
	b.WriteString("Command executed.\n")
	fmt.Fprintf(&b, "Exit code: %d\n", res.ExitCode)
	fmt.Fprintf(&b, "Stdout: %s\n", res.Stdout)
	fmt.Fprintf(&b, "Stderr: %s", res.Stderr)
	return b.String()
}
