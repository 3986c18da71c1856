// Package config provides configuration management for the querycanvas CLI.
//
// This package extends the shared planner and server settings from
// internal/config with CLI-specific fields. The shared types are re-exported
// here via type aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/querycanvas/internal/config"
)

// PlannerConfig is an alias for the shared planner configuration.
type PlannerConfig = sharedcfg.PlannerConfig

// ServerConfig is an alias for the shared HTTP server configuration.
type ServerConfig = sharedcfg.ServerConfig

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string         `koanf:"state_path"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	SecretKey    string         `koanf:"secret_key"` // hex or 32 raw bytes; ${VAR} is expanded
	Planner      *PlannerConfig `koanf:"planner"`
	Server       *ServerConfig  `koanf:"server"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultStateFile = sharedcfg.DefaultStateFile
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
