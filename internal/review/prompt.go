package review

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/flemzord/toolgate/internal/gateway"
)

// FormPrompter asks through huh forms on the terminal.
type FormPrompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// NewFormPrompter creates a prompter. A nil in or out uses the terminal.
// Accessible mode replaces the TUI with plain line prompts.
func NewFormPrompter(in io.Reader, out io.Writer, accessible bool) *FormPrompter {
	return &FormPrompter{in: in, out: out, accessible: accessible}
}

// Decide asks whether to approve, reject, skip, or stop reviewing.
// Aborting the form (ctrl+c) is treated as quit.
func (p *FormPrompter) Decide(ctx context.Context, a gateway.ActionDetail) (Decision, error) {
	choice := DecisionSkip
	sel := huh.NewSelect[Decision]().
		Title("Apply " + a.ID + "?").
		Description(a.Text).
		Options(
			huh.NewOption("Approve and run", DecisionApprove),
			huh.NewOption("Reject", DecisionReject),
			huh.NewOption("Skip for now", DecisionSkip),
			huh.NewOption("Quit", DecisionQuit),
		).
		Value(&choice)

	if err := p.run(ctx, huh.NewForm(huh.NewGroup(sel))); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return DecisionQuit, nil
		}
		return "", err
	}
	return choice, nil
}

// Reason asks for an optional rejection reason.
func (p *FormPrompter) Reason(ctx context.Context, a gateway.ActionDetail) (string, error) {
	var reason string
	input := huh.NewInput().
		Title("Reason for rejecting " + a.ID + " (optional)").
		CharLimit(500).
		Value(&reason)

	if err := p.run(ctx, huh.NewForm(huh.NewGroup(input))); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return reason, nil
}

func (p *FormPrompter) run(ctx context.Context, form *huh.Form) error {
	form = form.WithAccessible(p.accessible)
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}
	return form.RunWithContext(ctx)
}

var _ Prompter = (*FormPrompter)(nil)
