// Package action implements the approval-gated action workflow: side effects
// an agent proposes are held in a Store under a short id and only applied
// once an operator approves them. Approval removes the action atomically
// before the effect runs, so each action executes at most once.
package action

import "fmt"

// Kind names an action variant.
type Kind string

// Kind values for the closed set of action variants.
const (
	KindFileWrite    Kind = "file_write"
	KindShellCommand Kind = "shell_command"
)

// PendingAction is a proposed side effect awaiting an operator decision.
// The set of implementations is closed: FileWrite and ShellCommand.
type PendingAction interface {
	// ActionID returns the short token the action is registered under.
	ActionID() string

	// Kind returns the variant tag.
	Kind() Kind

	// Target returns the path or command the action acts on.
	Target() string

	pending()
}

// FileWrite writes Content to Path, creating parent directories and
// overwriting any existing file.
type FileWrite struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ShellCommand runs Command through the host shell.
type ShellCommand struct {
	ID      string `json:"id"`
	Command string `json:"command"`
}

// ActionID implements PendingAction.
func (a FileWrite) ActionID() string { return a.ID }

// Kind implements PendingAction.
func (FileWrite) Kind() Kind { return KindFileWrite }

// Target implements PendingAction.
func (a FileWrite) Target() string { return a.Path }

func (FileWrite) pending() {}

// ActionID implements PendingAction.
func (a ShellCommand) ActionID() string { return a.ID }

// Kind implements PendingAction.
func (ShellCommand) Kind() Kind { return KindShellCommand }

// Target implements PendingAction.
func (a ShellCommand) Target() string { return a.Command }

func (ShellCommand) pending() {}

// Summary is the one-line listing view of a pending action.
type Summary struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Target string `json:"target"`
}

// Summarize builds the listing view of a.
func Summarize(a PendingAction) Summary {
	return Summary{ID: a.ActionID(), Kind: a.Kind(), Target: a.Target()}
}

// String renders the summary as shown to the operator.
func (s Summary) String() string {
	switch s.Kind {
	case KindFileWrite:
		return fmt.Sprintf("[%s] Write to: %s", s.ID, s.Target)
	case KindShellCommand:
		return fmt.Sprintf("[%s] Run command: %s", s.ID, s.Target)
	default:
		return fmt.Sprintf("[%s] %s: %s", s.ID, s.Kind, s.Target)
	}
}

// withID returns a copy of a registered under id.
func withID(a PendingAction, id string) PendingAction {
	switch v := a.(type) {
	case FileWrite:
		v.ID = id
		return v
	case ShellCommand:
		v.ID = id
		return v
	default:
		panic(fmt.Sprintf("action: unknown variant %T", a))
	}
}

// Compile-time interface guards.
var (
	_ PendingAction = FileWrite{}
	_ PendingAction = ShellCommand{}
)
