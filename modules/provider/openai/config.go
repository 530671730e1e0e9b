package openai

import (
	"fmt"
	"time"

	"github.com/flemzord/toolgate/internal/assist"
)

// Config holds the configuration for the OpenAI provider module.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature *float64      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  *int          `yaml:"max_retries"`
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = assist.DefaultExecutionModel
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
}

// validate checks values the API would reject.
func (c *Config) validate() error {
	if c.MaxTokens < 0 {
		return fmt.Errorf("provider.openai: max_tokens must not be negative, got %d", c.MaxTokens)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("provider.openai: temperature must be within [0, 2], got %v", *c.Temperature)
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("provider.openai: max_retries must not be negative, got %d", *c.MaxRetries)
	}
	return nil
}
