package config

import (
	"strings"
	"testing"
	"time"

	"github.com/flemzord/toolgate/internal/core"
	"gopkg.in/yaml.v3"
)

// stubModule is a basic module for testing.
type stubModule struct {
	id string
}

func (m *stubModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  core.ModuleID(m.id),
		New: func() core.Module { return &stubModule{id: m.id} },
	}
}

func registerStub(t *testing.T, id string) {
	t.Helper()
	core.RegisterModule(&stubModule{id: id})
}

func TestValidate_Valid(t *testing.T) {
	id := t.Name() + ".mod"
	registerStub(t, id)
	cfg := &Config{
		Version: "1",
		Modules: map[string]yaml.Node{id: {}},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoModulesIsValid(t *testing.T) {
	t.Parallel()

	if err := Validate(&Config{Version: "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingVersion(t *testing.T) {
	t.Parallel()

	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected error for missing version")
	}
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("error should mention version: %v", err)
	}
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	err := Validate(&Config{Version: "99"})
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("error should mention unsupported: %v", err)
	}
}

func TestValidate_MultipleUnknown(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Version: "1",
		Modules: map[string]yaml.Node{
			"bad.one": {},
			"bad.two": {},
		},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for unknown modules")
	}
	if !strings.Contains(err.Error(), "bad.one") || !strings.Contains(err.Error(), "bad.two") {
		t.Errorf("error should mention both modules: %v", err)
	}
}

func TestValidate_Ranges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"negative timeout", Config{Actions: ActionsConfig{Timeout: -time.Second}}, "actions.timeout"},
		{"negative payload", Config{Actions: ActionsConfig{MaxPayloadSize: -1}}, "actions.max_payload_size"},
		{"negative read size", Config{Actions: ActionsConfig{MaxReadSize: -1}}, "actions.max_read_size"},
		{"relative sandbox workdir", Config{Actions: ActionsConfig{Workdir: "src", Sandbox: SandboxConfig{Enabled: true}}}, "actions.workdir"},
		{"bad log level", Config{Log: LogConfig{Level: "loud"}}, "log.level"},
		{"bad log format", Config{Log: LogConfig{Format: "xml"}}, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.cfg.Version = "1"
			err := Validate(&tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Version: "2",
		Actions: ActionsConfig{Timeout: -1},
		Log:     LogConfig{Level: "trace"},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"unsupported version", "actions.timeout", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}
