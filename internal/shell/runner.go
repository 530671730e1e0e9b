// Package shell runs approved shell commands, either through the host shell
// or inside a throwaway Docker container.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/security"
)

// Default host shell invocation.
const (
	DefaultShell = "sh"
	DefaultArg   = "-c"
)

// waitDelay bounds how long Run waits for output pipes after the process
// is killed, so a backgrounded child cannot hold a timed-out command open.
const waitDelay = 2 * time.Second

// HostRunner runs commands through the host shell.
type HostRunner struct {
	shell       string
	args        []string
	dir         string
	credentials *security.CredentialStore
}

// HostConfig configures a HostRunner.
type HostConfig struct {
	// Shell is the interpreter binary. Defaults to DefaultShell.
	Shell string

	// Args precede the command string. Defaults to [DefaultArg].
	Args []string

	// Dir is the working directory. Empty means the server's directory.
	Dir string

	// Credentials, if non-nil, are scrubbed from the child environment.
	Credentials *security.CredentialStore
}

// NewHostRunner creates a HostRunner from cfg, filling defaults.
func NewHostRunner(cfg HostConfig) *HostRunner {
	r := &HostRunner{
		shell:       cfg.Shell,
		args:        cfg.Args,
		dir:         cfg.Dir,
		credentials: cfg.Credentials,
	}
	if r.shell == "" {
		r.shell = DefaultShell
	}
	if len(r.args) == 0 {
		r.args = []string{DefaultArg}
	}
	return r
}

// Run implements action.ShellRunner. The child sees a sanitized copy of
// the server environment with provider keys removed.
func (r *HostRunner) Run(ctx context.Context, command string) (action.ShellResult, error) {
	args := append(append([]string{}, r.args...), command)

	//nolint:gosec // running operator-approved commands is the purpose of this runner.
	cmd := exec.CommandContext(ctx, r.shell, args...)
	cmd.Dir = r.dir
	cmd.Env = security.SanitizedEnv(os.Environ(), r.credentials)
	cmd.WaitDelay = waitDelay
	killGroupOnCancel(cmd)
	return collect(ctx, cmd)
}

// collect runs cmd, capturing stdout and stderr separately, and maps the
// exit into a ShellResult plus an optional action error.
func collect(ctx context.Context, cmd *exec.Cmd) (action.ShellResult, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := action.ShellResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, fmt.Errorf("%w: %w", action.ErrTimeout, ctxErr)
	}

	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("%w: %w", action.ErrExecution, err)
}

var _ action.ShellRunner = (*HostRunner)(nil)
