package chrome

import (
	"errors"
	"time"
)

// Config holds the configuration for the browser.chrome module.
type Config struct {
	// AllowedDomains lists the hosts screenshot_to_code may open, with
	// their subdomains. Required.
	AllowedDomains []string `yaml:"allowed_domains"`

	// AllowHTTP admits plain http URLs on the allowed domains, for local
	// development servers.
	AllowHTTP bool `yaml:"allow_http"`

	// ChromePath overrides the browser binary found on PATH.
	ChromePath string `yaml:"chrome_path"`

	// Headless defaults to true.
	Headless *bool `yaml:"headless"`

	Width   int           `yaml:"width"`
	Height  int           `yaml:"height"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.Headless == nil {
		headless := true
		c.Headless = &headless
	}
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 800
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
}

func (c *Config) validate() error {
	if len(c.AllowedDomains) == 0 {
		return errors.New("browser.chrome: allowed_domains is required")
	}
	return nil
}
