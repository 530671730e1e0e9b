// Package review is the operator console: it walks the pending actions
// exposed by the gateway, shows what each would do, and approves or rejects
// them on the operator's decision.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/gateway"
)

// Decision is the operator's answer for one action.
type Decision string

// Decision values.
const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionSkip    Decision = "skip"
	DecisionQuit    Decision = "quit"
)

// API is the subset of the gateway client the console uses.
type API interface {
	List(ctx context.Context) ([]gateway.ActionSummary, error)
	Get(ctx context.Context, id string) (gateway.ActionDetail, error)
	Approve(ctx context.Context, id string) (action.Outcome, error)
	Reject(ctx context.Context, id, reason string) (action.Outcome, error)
}

// Prompter asks the operator for decisions.
type Prompter interface {
	Decide(ctx context.Context, a gateway.ActionDetail) (Decision, error)
	Reason(ctx context.Context, a gateway.ActionDetail) (string, error)
}

// Stats counts what a review session did.
type Stats struct {
	Approved int
	Rejected int
	Skipped  int
	Failed   int
}

// Console drives a review session.
type Console struct {
	api          API
	prompter     Prompter
	out          io.Writer
	colorEnabled bool
}

// NewConsole creates a Console writing to out.
func NewConsole(api API, prompter Prompter, out io.Writer, colorEnabled bool) *Console {
	return &Console{api: api, prompter: prompter, out: out, colorEnabled: colorEnabled}
}

// Run reviews every action pending when it starts, in proposal order. Actions
// resolved elsewhere in the meantime are reported and skipped.
func (c *Console) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	pending, err := c.api.List(ctx)
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		fmt.Fprintln(c.out, action.NoPendingActions)
		return stats, nil
	}

	for i, s := range pending {
		detail, err := c.api.Get(ctx, s.ID)
		if errors.Is(err, action.ErrNotFound) {
			fmt.Fprintln(c.out, c.colorize(fmt.Sprintf("[%s] already resolved", s.ID), color.FgYellow))
			continue
		}
		if err != nil {
			return stats, err
		}

		c.show(detail, i+1, len(pending))

		decision, err := c.prompter.Decide(ctx, detail)
		if err != nil {
			return stats, err
		}

		switch decision {
		case DecisionApprove:
			out, err := c.api.Approve(ctx, detail.ID)
			if err != nil {
				return stats, err
			}
			c.report(out)
			if out.Status == action.StatusExecuted {
				stats.Approved++
			} else {
				stats.Failed++
			}
		case DecisionReject:
			reason, err := c.prompter.Reason(ctx, detail)
			if err != nil {
				return stats, err
			}
			out, err := c.api.Reject(ctx, detail.ID, reason)
			if err != nil {
				return stats, err
			}
			c.report(out)
			if out.Status == action.StatusRejected {
				stats.Rejected++
			} else {
				stats.Failed++
			}
		case DecisionQuit:
			return stats, nil
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

// PrintPending writes the pending action listing, or the empty sentinel.
func (c *Console) PrintPending(ctx context.Context) error {
	pending, err := c.api.List(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(c.out, action.NoPendingActions)
		return nil
	}
	for _, s := range pending {
		fmt.Fprintln(c.out, s.Text)
	}
	return nil
}

func (c *Console) show(a gateway.ActionDetail, n, total int) {
	separator := strings.Repeat("=", 72)

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.colorize(separator, color.FgCyan))
	fmt.Fprintln(c.out, c.colorize(fmt.Sprintf("(%d/%d) %s", n, total, a.Text), color.FgYellow, color.Bold))
	fmt.Fprintln(c.out, c.colorize(separator, color.FgCyan))

	if a.Preview == "" {
		return
	}
	for line := range strings.Lines(a.Preview) {
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(c.out, c.colorize(line, color.FgGreen))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(c.out, c.colorize(line, color.FgRed))
		default:
			fmt.Fprintln(c.out, line)
		}
	}
}

func (c *Console) report(out action.Outcome) {
	attr := color.FgGreen
	if !out.OK() {
		attr = color.FgRed
	}
	fmt.Fprintln(c.out, c.colorize(out.Text, attr))
}

// colorize applies color to text if color is enabled.
func (c *Console) colorize(text string, attributes ...color.Attribute) string {
	if !c.colorEnabled {
		return text
	}
	return color.New(attributes...).Sprint(text)
}
