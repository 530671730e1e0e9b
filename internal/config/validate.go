package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/flemzord/toolgate/internal/core"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks the structural validity of a Config: the version field,
// that every referenced module ID is registered, and the ranges of action,
// logging and tracing settings. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: %q)", cfg.Version, CurrentVersion))
	}

	for _, id := range Resolve(cfg) {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	errs = append(errs, validateLog(cfg.Log)...)
	errs = append(errs, validateActions(cfg.Actions)...)

	if r := cfg.Tracing.SampleRate; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("config: tracing.sample_rate must be within [0, 1], got %v", r))
	}

	return errors.Join(errs...)
}

func validateLog(l LogConfig) []error {
	var errs []error
	if l.Level != "" && !slices.Contains(logLevels, l.Level) {
		errs = append(errs, fmt.Errorf("config: log.level %q is not one of %v", l.Level, logLevels))
	}
	if l.Format != "" && !slices.Contains(logFormats, l.Format) {
		errs = append(errs, fmt.Errorf("config: log.format %q is not one of %v", l.Format, logFormats))
	}
	return errs
}

func validateActions(a ActionsConfig) []error {
	var errs []error
	if a.Timeout < 0 {
		errs = append(errs, fmt.Errorf("config: actions.timeout must not be negative, got %s", a.Timeout))
	}
	if a.MaxPayloadSize < 0 {
		errs = append(errs, fmt.Errorf("config: actions.max_payload_size must not be negative, got %d", a.MaxPayloadSize))
	}
	if a.MaxReadSize < 0 {
		errs = append(errs, fmt.Errorf("config: actions.max_read_size must not be negative, got %d", a.MaxReadSize))
	}
	if a.Sandbox.Enabled && a.Workdir != "" && !filepath.IsAbs(a.Workdir) {
		errs = append(errs, fmt.Errorf("config: actions.workdir must be absolute when the sandbox is enabled, got %q", a.Workdir))
	}
	return errs
}
