package shell

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flemzord/toolgate/internal/action"
)

// DefaultImage is the container image used when none is configured.
const DefaultImage = "alpine:3.19"

// killTimeout bounds the docker kill issued when a sandboxed run is
// cancelled.
const killTimeout = 10 * time.Second

// ResourceLimits defines resource constraints for sandboxed execution.
type ResourceLimits struct {
	// CPUShares is the relative CPU weight (Docker --cpu-shares).
	CPUShares int `yaml:"cpu_shares"`

	// MemoryMB is the memory limit in megabytes (Docker --memory).
	MemoryMB int `yaml:"memory_mb"`

	// DiskMB sizes the writable /tmp tmpfs in megabytes.
	DiskMB int `yaml:"disk_mb"`
}

// resourceLimitsDefaults returns sane defaults for sandbox limits.
func resourceLimitsDefaults() ResourceLimits {
	return ResourceLimits{
		CPUShares: 512,
		MemoryMB:  256,
		DiskMB:    100,
	}
}

// SandboxConfig configures a SandboxRunner.
type SandboxConfig struct {
	Image  string
	Limits ResourceLimits

	// Workdir, if set, is mounted read-only at /workspace.
	Workdir string

	// Network enables container networking. Off by default.
	Network bool

	// Env entries are passed with -e. The host environment is never
	// forwarded wholesale.
	Env []string

	// Docker is the docker binary. Defaults to "docker" on PATH.
	Docker string
}

// SandboxRunner runs each approved command in a fresh, locked-down Docker
// container. If Docker is unavailable the command fails instead of falling
// back to the host shell.
type SandboxRunner struct {
	cfg SandboxConfig
}

// NewSandboxRunner creates a sandbox runner. Zero-value limits are replaced
// with defaults.
func NewSandboxRunner(cfg SandboxConfig) *SandboxRunner {
	defaults := resourceLimitsDefaults()
	if cfg.Limits.CPUShares <= 0 {
		cfg.Limits.CPUShares = defaults.CPUShares
	}
	if cfg.Limits.MemoryMB <= 0 {
		cfg.Limits.MemoryMB = defaults.MemoryMB
	}
	if cfg.Limits.DiskMB <= 0 {
		cfg.Limits.DiskMB = defaults.DiskMB
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.Docker == "" {
		cfg.Docker = "docker"
	}
	return &SandboxRunner{cfg: cfg}
}

// Run implements action.ShellRunner.
func (s *SandboxRunner) Run(ctx context.Context, command string) (action.ShellResult, error) {
	if s.cfg.Workdir != "" && strings.Contains(filepath.Clean(s.cfg.Workdir), ":") {
		return action.ShellResult{}, fmt.Errorf("%w: sandbox: workdir contains invalid character: %q", action.ErrExecution, s.cfg.Workdir)
	}
	if _, err := exec.LookPath(s.cfg.Docker); err != nil {
		return action.ShellResult{}, fmt.Errorf("%w: sandbox: docker not available: %w", action.ErrExecution, err)
	}

	return collect(ctx, s.command(ctx, "toolgate-"+uuid.NewString(), command))
}

// command builds the docker run process for a container called name.
// Cancelling ctx kills the container before the docker client, since the
// daemon keeps a container running after its client dies.
func (s *SandboxRunner) command(ctx context.Context, name, command string) *exec.Cmd {
	//nolint:gosec // args are built from configuration and the approved command.
	cmd := exec.CommandContext(ctx, s.cfg.Docker, s.args(name, command)...)
	cmd.WaitDelay = waitDelay
	cmd.Cancel = func() error {
		killCtx, cancel := context.WithTimeout(context.Background(), killTimeout)
		defer cancel()
		//nolint:gosec // name is generated by Run.
		_ = exec.CommandContext(killCtx, s.cfg.Docker, "kill", name).Run()
		return cmd.Process.Kill()
	}
	return cmd
}

// args builds the docker run invocation for command.
func (s *SandboxRunner) args(name, command string) []string {
	args := []string{
		"run", "--rm",
		"--name", name,
		"--read-only",
		"--cap-drop", "ALL",
		"--security-opt", "no-new-privileges:true",
		"--user", "65534:65534",
		"--pids-limit", "256",
		"--cpu-shares", strconv.Itoa(s.cfg.Limits.CPUShares),
		"--memory", strconv.Itoa(s.cfg.Limits.MemoryMB) + "m",
		"--tmpfs", "/tmp:rw,noexec,nosuid,size=" + strconv.Itoa(s.cfg.Limits.DiskMB) + "m",
	}
	if !s.cfg.Network {
		args = append(args, "--network=none")
	}
	if s.cfg.Workdir != "" {
		args = append(args, "-v", s.cfg.Workdir+":/workspace:ro", "-w", "/workspace")
	}
	for _, e := range s.cfg.Env {
		args = append(args, "-e", e)
	}
	return append(args, s.cfg.Image, "sh", "-c", command)
}

// IsDockerAvailable checks if the docker CLI is available on PATH.
func IsDockerAvailable() bool {
	_, err := exec.LookPath("docker")
	return err == nil
}

var _ action.ShellRunner = (*SandboxRunner)(nil)
