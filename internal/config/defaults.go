package config

import "github.com/leapstack-labs/querycanvas/internal/dag"

// Default configuration values.
const (
	DefaultStateFile = ".querycanvas/state.db"
	DefaultTieBreak  = string(dag.TieBreakInput)
	DefaultMaxNodes  = 1000
	DefaultMaxEdges  = 5000
	DefaultAddr      = ":8765"
	DefaultCanvasDir = "canvases"
)

// ConfigFileNames are the project config file names, in lookup order.
var ConfigFileNames = []string{"querycanvas.yaml", "querycanvas.yml"}

// ApplyPlannerDefaults fills unset planner values.
func ApplyPlannerDefaults(p *PlannerConfig) {
	if p == nil {
		return
	}
	if p.TieBreak == "" {
		p.TieBreak = DefaultTieBreak
	}
	if p.MaxNodes == 0 {
		p.MaxNodes = DefaultMaxNodes
	}
	if p.MaxEdges == 0 {
		p.MaxEdges = DefaultMaxEdges
	}
}

// ApplyServerDefaults fills unset server values.
func ApplyServerDefaults(s *ServerConfig) {
	if s == nil {
		return
	}
	if s.Addr == "" {
		s.Addr = DefaultAddr
	}
	if s.CanvasDir == "" {
		s.CanvasDir = DefaultCanvasDir
	}
}
