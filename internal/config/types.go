// Package config provides shared configuration types for querycanvas.
// It is decoupled from CLI concerns so the HTTP server and the CLI build
// scheduler options the same way.
package config

import (
	"fmt"

	"github.com/leapstack-labs/querycanvas/internal/dag"
)

// PlannerConfig controls how canvases are scheduled.
type PlannerConfig struct {
	TieBreak string `koanf:"tie_break"` // input, lexical
	MaxNodes int    `koanf:"max_nodes"`
	MaxEdges int    `koanf:"max_edges"`
}

// Validate checks the planner settings.
func (p *PlannerConfig) Validate() error {
	if p == nil {
		return nil
	}
	if _, err := dag.ParseTieBreak(p.TieBreak); err != nil {
		return err
	}
	if p.MaxNodes < 0 {
		return fmt.Errorf("planner.max_nodes must not be negative, got %d", p.MaxNodes)
	}
	if p.MaxEdges < 0 {
		return fmt.Errorf("planner.max_edges must not be negative, got %d", p.MaxEdges)
	}
	return nil
}

// Options converts the planner settings into scheduler options.
func (p *PlannerConfig) Options() ([]dag.Option, error) {
	if p == nil {
		return nil, nil
	}
	tb, err := dag.ParseTieBreak(p.TieBreak)
	if err != nil {
		return nil, err
	}
	return []dag.Option{
		dag.WithTieBreak(tb),
		dag.WithLimits(dag.Limits{MaxNodes: p.MaxNodes, MaxEdges: p.MaxEdges}),
	}, nil
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr      string `koanf:"addr"`
	Watch     bool   `koanf:"watch"`
	CanvasDir string `koanf:"canvas_dir"`
}
