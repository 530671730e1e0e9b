package gemini

import (
	"fmt"
	"time"

	"github.com/flemzord/toolgate/internal/assist"
)

// Config holds the configuration for the Gemini provider module.
type Config struct {
	APIKey string `yaml:"api_key"`

	// Model rewrites prompts for optimize_prompt.
	Model string `yaml:"model"`

	// FallbackModel is tried once when Model fails. "none" disables it.
	FallbackModel string `yaml:"fallback_model"`

	// VisionModel preselects the vision model. Empty leaves it unset
	// until set_vision_model is called.
	VisionModel string `yaml:"vision_model"`

	// BaseURL overrides the Gemini API endpoint.
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	FigmaToken   string `yaml:"figma_token"`
	FigmaBaseURL string `yaml:"figma_base_url"`
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = assist.DefaultOptimizerModel
	}
	if c.FallbackModel == "" {
		c.FallbackModel = assist.DefaultFallbackModel
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.FigmaBaseURL == "" {
		c.FigmaBaseURL = assist.DefaultFigmaURL
	}
}

// fallback returns the fallback model, or "" when disabled or identical
// to the primary.
func (c *Config) fallback() string {
	if c.FallbackModel == "none" || c.FallbackModel == c.Model {
		return ""
	}
	return c.FallbackModel
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("provider.gemini: api_key is required")
	}
	if c.Model == "" {
		return fmt.Errorf("provider.gemini: model is required")
	}
	return nil
}
