package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/querycanvas/internal/cli/config"
	"github.com/leapstack-labs/querycanvas/internal/cli/output"
	intconfig "github.com/leapstack-labs/querycanvas/internal/config"
	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/leapstack-labs/querycanvas/internal/secret"
	"github.com/leapstack-labs/querycanvas/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// OpenStore opens and migrates the state database, creating its directory
// when needed. The caller must close the store.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	if c.Cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(c.Cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store, err := state.OpenAndMigrate(c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// SecretBox returns the box sealing stored connection passwords.
func (c *CommandContext) SecretBox() (*secret.Box, error) {
	if err := c.Cfg.RequireSecretKey(); err != nil {
		return nil, err
	}
	return secret.NewFromString(c.Cfg.SecretKey)
}

// PlanOptions builds scheduler options from the planner settings.
// A non-empty tieBreak overrides the configured one.
func (c *CommandContext) PlanOptions(tieBreak string, levels bool) ([]dag.Option, error) {
	planner := intconfig.PlannerConfig{}
	if c.Cfg.Planner != nil {
		planner = *c.Cfg.Planner
	}
	if tieBreak != "" {
		planner.TieBreak = tieBreak
	}
	opts, err := planner.Options()
	if err != nil {
		return nil, err
	}
	if levels {
		opts = append(opts, dag.WithLevels(true))
	}
	return opts, nil
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	planner := &config.PlannerConfig{TieBreak: os.Getenv("QUERYCANVAS_PLANNER_TIE_BREAK")}
	intconfig.ApplyPlannerDefaults(planner)
	server := &config.ServerConfig{Addr: os.Getenv("QUERYCANVAS_SERVER_ADDR")}
	intconfig.ApplyServerDefaults(server)

	return &config.Config{
		StatePath:    getEnvOrDefault("QUERYCANVAS_STATE_PATH", config.DefaultStateFile),
		Verbose:      os.Getenv("QUERYCANVAS_VERBOSE") == "true",
		OutputFormat: os.Getenv("QUERYCANVAS_OUTPUT"),
		SecretKey:    os.Getenv("QUERYCANVAS_SECRET_KEY"),
		Planner:      planner,
		Server:       server,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
