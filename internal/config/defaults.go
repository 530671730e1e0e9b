package config

import (
	"os"
	"path/filepath"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/shell"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only supported config format version.
const CurrentVersion = "1"

// Provider module ids enabled from the environment when no config file exists.
const (
	openAIModule = "provider.openai"
	geminiModule = "provider.gemini"
)

// Default returns the configuration used when no file is found: the
// in-memory store, no gateway, and provider modules for whichever API keys
// are present in the environment.
func Default() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Modules: make(map[string]yaml.Node),
	}

	if key := firstEnv("EXECUTION_API_KEY", "OPENAI_API_KEY"); key != "" {
		cfg.Modules[openAIModule] = encodeNode(map[string]string{"api_key": key})
	}
	if key := firstEnv("OPTIMIZER_API_KEY", "GEMINI_API_KEY"); key != "" {
		cfg.Modules[geminiModule] = encodeNode(map[string]string{
			"api_key":      key,
			"figma_token":  os.Getenv("FIGMA_ACCESS_TOKEN"),
			"vision_model": os.Getenv("VISION_MODEL"),
		})
	}

	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Actions.Shell == "" {
		cfg.Actions.Shell = shell.DefaultShell
	}
	if len(cfg.Actions.ShellArgs) == 0 {
		cfg.Actions.ShellArgs = []string{shell.DefaultArg}
	}
	if cfg.Actions.Timeout == 0 {
		cfg.Actions.Timeout = action.DefaultShellTimeout
	}
	if cfg.Actions.MaxPayloadSize == 0 {
		cfg.Actions.MaxPayloadSize = action.DefaultMaxPayloadSize
	}
	if cfg.Actions.Sandbox.Image == "" {
		cfg.Actions.Sandbox.Image = shell.DefaultImage
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "toolgate")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "toolgate")
	}
	return filepath.Join(os.TempDir(), "toolgate")
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func encodeNode(v any) yaml.Node {
	var node yaml.Node
	// Encoding a map of strings cannot fail.
	_ = node.Encode(v)
	return node
}
