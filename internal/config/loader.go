package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// FileName is the config file name looked up in the search directories.
const FileName = "toolgate.yaml"

// SearchPaths returns the locations tried, in order, when no explicit
// path is given: $XDG_CONFIG_HOME/toolgate, ~/.config/toolgate, then the
// working directory.
func SearchPaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "toolgate", FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "toolgate", FileName))
	}
	return append(paths, FileName)
}

// Find returns the config file to load. An explicit path must exist.
// Otherwise the first existing SearchPaths entry wins; ok is false when
// none exists.
func Find(explicit string) (path string, ok bool, err error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", false, fmt.Errorf("config: %w", err)
		}
		return explicit, true, nil
	}
	for _, p := range SearchPaths() {
		_, err := os.Stat(p)
		if err == nil {
			return p, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("config: %w", err)
		}
	}
	return "", false, nil
}

// LoadOrDefault loads the config at explicit, or the first file found on
// the search path, falling back to Default. The returned path is empty
// when defaults are used. Defaults are applied and the result validated.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, ok, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Load reads the YAML file at path and expands ${VAR} references against
// the process environment. Defaults are not applied.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	expanded, err := expandEnv(raw, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// expandEnv substitutes ${VAR} and ${VAR:-fallback} using lookup. Lines
// that are YAML comments are copied unchanged. Every variable that is
// unset and has no fallback is reported in one error.
func expandEnv(raw []byte, lookup func(string) (string, bool)) ([]byte, error) {
	var missing []string
	lines := bytes.SplitAfter(raw, []byte("\n"))
	for i, line := range lines {
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("#")) {
			continue
		}
		lines[i] = envPattern.ReplaceAllFunc(line, func(m []byte) []byte {
			sub := envPattern.FindSubmatch(m)
			if v, ok := lookup(string(sub[1])); ok {
				return []byte(v)
			}
			if sub[2] != nil {
				return sub[2]
			}
			missing = append(missing, string(sub[1]))
			return m
		})
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("unset variables without default: %s", strings.Join(slices.Compact(missing), ", "))
	}
	return bytes.Join(lines, nil), nil
}
