package config

import (
	"testing"

	"github.com/leapstack-labs/querycanvas/internal/dag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPlannerDefaults(t *testing.T) {
	p := &PlannerConfig{MaxEdges: 10}
	ApplyPlannerDefaults(p)

	assert.Equal(t, "input", p.TieBreak)
	assert.Equal(t, DefaultMaxNodes, p.MaxNodes)
	assert.Equal(t, 10, p.MaxEdges, "explicit values are kept")

	ApplyPlannerDefaults(nil)
}

func TestPlannerConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *PlannerConfig
		errSubstr string
	}{
		{name: "nil", cfg: nil},
		{name: "defaults", cfg: &PlannerConfig{}},
		{name: "lexical", cfg: &PlannerConfig{TieBreak: "lexical", MaxNodes: 5}},
		{name: "bad tie break", cfg: &PlannerConfig{TieBreak: "random"}, errSubstr: "unknown tie-break"},
		{name: "negative nodes", cfg: &PlannerConfig{MaxNodes: -1}, errSubstr: "max_nodes"},
		{name: "negative edges", cfg: &PlannerConfig{MaxEdges: -1}, errSubstr: "max_edges"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr != "" {
				assert.ErrorContains(t, err, tt.errSubstr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPlannerConfig_Options(t *testing.T) {
	p := &PlannerConfig{TieBreak: "lexical", MaxNodes: 2}
	opts, err := p.Options()
	require.NoError(t, err)

	plan, err := dag.Schedule([]dag.NodeID{"b", "a"}, []dag.Edge{}, opts...)
	require.NoError(t, err)
	assert.Equal(t, []dag.NodeID{"a", "b"}, plan.Order)

	_, err = dag.Schedule([]dag.NodeID{"a", "b", "c"}, nil, opts...)
	assert.ErrorIs(t, err, dag.ErrGraphTooLarge)

	none, err := (*PlannerConfig)(nil).Options()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApplyServerDefaults(t *testing.T) {
	s := &ServerConfig{}
	ApplyServerDefaults(s)
	assert.Equal(t, DefaultAddr, s.Addr)
	assert.Equal(t, DefaultCanvasDir, s.CanvasDir)
}

func TestApplyServerDefaults_KeepsSetValues(t *testing.T) {
	s := &ServerConfig{Addr: "127.0.0.1:9000", CanvasDir: "boards"}
	ApplyServerDefaults(s)
	assert.Equal(t, "127.0.0.1:9000", s.Addr)
	assert.Equal(t, "boards", s.CanvasDir)

	ApplyServerDefaults(nil)
}
