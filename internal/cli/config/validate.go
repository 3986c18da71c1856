package config

import (
	"errors"
	"fmt"
	"slices"
)

var validOutputs = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return errors.New("state_path is required")
	}
	if c.OutputFormat != "" && !slices.Contains(validOutputs, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected auto, text, markdown, or json)", c.OutputFormat)
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("invalid planner configuration: %w", err)
	}
	return nil
}

// RequireSecretKey returns an error with a hint when no secret key is configured.
func (c *Config) RequireSecretKey() error {
	if c.SecretKey == "" {
		return errors.New("secret_key is not configured\nHint: set QUERYCANVAS_SECRET_KEY to a 64-character hex key")
	}
	return nil
}
