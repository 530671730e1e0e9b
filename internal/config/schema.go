// Package config handles YAML configuration loading, environment variable
// expansion, defaults and structural validation for toolgate.
package config

import (
	"time"

	"github.com/flemzord/toolgate/internal/security"
	"github.com/flemzord/toolgate/internal/shell"
	"github.com/flemzord/toolgate/internal/telemetry"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir holds durable state such as the SQLite action store.
	// Defaults to $XDG_DATA_HOME/toolgate.
	DataDir string `yaml:"data_dir,omitempty"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "store.sqlite").
	// Modules are opt-in: only listed modules are loaded.
	Modules map[string]yaml.Node `yaml:"modules"`

	// Actions controls how approved actions are applied.
	Actions ActionsConfig `yaml:"actions"`

	// Security holds rate limits and audit settings.
	Security SecurityConfig `yaml:"security"`

	// Tracing configures OTLP trace export.
	Tracing telemetry.TracingConfig `yaml:"tracing"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is "text" or "json". Defaults to text.
	Format string `yaml:"format"`
}

// ActionsConfig controls the approval workflow and its side effects.
type ActionsConfig struct {
	// Shell is the interpreter for approved commands. Defaults to "sh".
	Shell string `yaml:"shell"`

	// ShellArgs precede the command string. Defaults to ["-c"].
	ShellArgs []string `yaml:"shell_args"`

	// Workdir is the working directory for approved commands.
	Workdir string `yaml:"workdir"`

	// Timeout bounds each approved command. Defaults to 2m.
	Timeout time.Duration `yaml:"timeout"`

	// MaxPayloadSize bounds proposed file content and commands, in bytes.
	MaxPayloadSize int `yaml:"max_payload_size"`

	// MaxReadSize bounds read_file, in bytes.
	MaxReadSize int64 `yaml:"max_read_size"`

	// Sandbox runs approved commands in Docker instead of the host shell.
	Sandbox SandboxConfig `yaml:"sandbox"`
}

// SandboxConfig configures Docker sandboxing of approved commands.
type SandboxConfig struct {
	Enabled bool                 `yaml:"enabled"`
	Image   string               `yaml:"image"`
	Network bool                 `yaml:"network"`
	Limits  shell.ResourceLimits `yaml:"limits"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RateLimits bounds tool calls, proposals and model calls per minute.
	RateLimits security.RateLimitConfig `yaml:"rate_limits"`

	// AuditPath, if set, receives audit events as JSONL. "-" means stderr.
	AuditPath string `yaml:"audit_path"`
}
