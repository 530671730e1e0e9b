package gateway

import "time"

// DefaultMaxBodySize bounds request bodies on the action API.
const DefaultMaxBodySize = 64 << 10

// writeMargin is added to the action timeout when write_timeout is unset.
const writeMargin = 30 * time.Second

// Config holds HTTP gateway configuration.
type Config struct {
	Bind        string        `yaml:"bind"`
	Auth        AuthConfig    `yaml:"auth"`
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout must exceed the action timeout, since approvals answer
	// after the effect. Unset means the action timeout plus 30s.
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodySize     int           `yaml:"max_body_size"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
}

// AuthConfig configures authentication for the action API.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}
