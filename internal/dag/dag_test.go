package dag

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func edges(pairs ...string) []Edge {
	out := make([]Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Edge{Source: pairs[i], Target: pairs[i+1]})
	}
	return out
}

func TestSchedule_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []NodeID
		edges   []Edge
		want    [][]NodeID
		wantErr error
	}{
		{
			name:  "chain",
			nodes: []NodeID{"A", "B", "C"},
			edges: edges("A", "B", "B", "C"),
			want:  [][]NodeID{{"A", "B", "C"}},
		},
		{
			name:    "two node cycle",
			nodes:   []NodeID{"A", "B", "C"},
			edges:   edges("A", "B", "B", "A"),
			wantErr: ErrCycleDetected,
		},
		{
			name:  "independent groups",
			nodes: []NodeID{"A", "B", "C", "D"},
			edges: edges("A", "B", "C", "D"),
			want:  [][]NodeID{{"A", "B"}, {"C", "D"}},
		},
		{
			name:  "singleton",
			nodes: []NodeID{"A"},
			want:  [][]NodeID{{"A"}},
		},
		{
			name:    "edge to unknown node",
			nodes:   []NodeID{"A", "B"},
			edges:   edges("A", "X"),
			wantErr: ErrMalformedGraph,
		},
		{
			name:  "fan out",
			nodes: []NodeID{"A", "B", "C"},
			edges: edges("A", "B", "A", "C"),
			want:  [][]NodeID{{"A", "B", "C"}},
		},
		{
			name:  "empty graph",
			nodes: nil,
			want:  [][]NodeID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Schedule(tt.nodes, tt.edges)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, plan, "no partial plan on failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Groups)
		})
	}
}

func TestSchedule_CycleReportsUnvisited(t *testing.T) {
	// D hangs off the cycle, E is independent.
	nodes := []NodeID{"A", "B", "C", "D", "E"}
	_, err := Schedule(nodes, edges("A", "B", "B", "C", "C", "B", "C", "D"))

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []NodeID{"B", "C", "D"}, cycleErr.Unvisited)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestSchedule_SelfLoopIsCycle(t *testing.T) {
	_, err := Schedule([]NodeID{"A", "B"}, edges("A", "A"))
	require.ErrorIs(t, err, ErrCycleDetected)
}

func TestSchedule_CycleSurroundedByAcyclicNodes(t *testing.T) {
	nodes := []NodeID{"r1", "r2", "x", "y", "z", "l1", "l2"}
	e := edges(
		"r1", "x",
		"r2", "x",
		"x", "y",
		"y", "z",
		"z", "x",
		"l1", "l2",
	)
	_, err := Schedule(nodes, e)
	require.ErrorIs(t, err, ErrCycleDetected)
}

func TestSchedule_MalformedBeforeOrdering(t *testing.T) {
	// The graph has both a cycle and a dangling edge; validation wins.
	_, err := Schedule([]NodeID{"A", "B"}, edges("A", "B", "B", "A", "B", "ghost"))
	require.ErrorIs(t, err, ErrMalformedGraph)
	assert.NotErrorIs(t, err, ErrCycleDetected)

	var malformed *MalformedGraphError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Index)
	assert.Equal(t, Edge{Source: "B", Target: "ghost"}, malformed.Edge)
	assert.Equal(t, "ghost", malformed.Missing)
	assert.Contains(t, malformed.Detail, `"ghost"`)
}

func TestNewGraph_Validation(t *testing.T) {
	tests := []struct {
		name      string
		nodes     []NodeID
		edges     []Edge
		limits    Limits
		wantErr   error
		errSubstr string
	}{
		{
			name:      "unknown source",
			nodes:     []NodeID{"A"},
			edges:     edges("X", "A"),
			wantErr:   ErrMalformedGraph,
			errSubstr: "unknown source node",
		},
		{
			name:      "unknown target",
			nodes:     []NodeID{"A"},
			edges:     edges("A", "X"),
			wantErr:   ErrMalformedGraph,
			errSubstr: "unknown target node",
		},
		{
			name:      "duplicate node",
			nodes:     []NodeID{"A", "A"},
			wantErr:   ErrMalformedGraph,
			errSubstr: "duplicate node id",
		},
		{
			name:      "empty node id",
			nodes:     []NodeID{""},
			wantErr:   ErrMalformedGraph,
			errSubstr: "empty node id",
		},
		{
			name:      "too many nodes",
			nodes:     []NodeID{"A", "B", "C"},
			limits:    Limits{MaxNodes: 2},
			wantErr:   ErrGraphTooLarge,
			errSubstr: "3 nodes exceeds limit of 2",
		},
		{
			name:      "too many edges",
			nodes:     []NodeID{"A", "B"},
			edges:     edges("A", "B", "A", "B"),
			limits:    Limits{MaxEdges: 1},
			wantErr:   ErrGraphTooLarge,
			errSubstr: "2 edges exceeds limit of 1",
		},
		{
			name:   "within limits",
			nodes:  []NodeID{"A", "B"},
			edges:  edges("A", "B"),
			limits: Limits{MaxNodes: 2, MaxEdges: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGraph(tt.nodes, tt.edges, tt.limits)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.nodes), g.NodeCount())
			assert.Equal(t, len(tt.edges), g.EdgeCount())
		})
	}
}

func TestGraph_DoesNotAliasInput(t *testing.T) {
	nodes := []NodeID{"A", "B"}
	e := edges("A", "B")
	g, err := NewGraph(nodes, e, Limits{})
	require.NoError(t, err)

	nodes[0] = "Z"
	e[0].Source = "Z"
	assert.Equal(t, []NodeID{"A", "B"}, g.Nodes())
	assert.Equal(t, edges("A", "B"), g.Edges())

	children := g.Children("A")
	children[0] = "mutated"
	assert.Equal(t, []NodeID{"B"}, g.Children("A"))
}

func TestGraph_Accessors(t *testing.T) {
	g, err := NewGraph([]NodeID{"a", "b", "c", "d"}, edges("a", "b", "a", "c", "b", "c"), Limits{})
	require.NoError(t, err)

	assert.Equal(t, map[NodeID]int{"a": 0, "b": 1, "c": 2, "d": 0}, g.InDegrees())
	assert.Equal(t, []NodeID{"a", "d"}, g.Roots())
	assert.Equal(t, []NodeID{"c", "d"}, g.Leaves())
	assert.Equal(t, []NodeID{"b", "c"}, g.Children("a"))
	assert.Equal(t, []NodeID{"a", "b"}, g.Parents("c"))
	assert.True(t, g.HasNode("d"))
	assert.False(t, g.HasNode("e"))
	assert.False(t, g.HasCycle())
}

func TestTopologicalSort_TieBreak(t *testing.T) {
	nodes := []NodeID{"orders", "customers", "items", "addresses"}
	e := edges("customers", "orders", "orders", "items")

	g, err := NewGraph(nodes, e, Limits{})
	require.NoError(t, err)

	byInput, err := g.TopologicalSort(TieBreakInput)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"customers", "addresses", "orders", "items"}, byInput)

	byName, err := g.TopologicalSort(TieBreakLexical)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"addresses", "customers", "orders", "items"}, byName)

	// Lexical order ignores declaration order entirely.
	reversed := slices.Clone(nodes)
	slices.Reverse(reversed)
	g2, err := NewGraph(reversed, e, Limits{})
	require.NoError(t, err)
	again, err := g2.TopologicalSort(TieBreakLexical)
	require.NoError(t, err)
	assert.Equal(t, byName, again)
}

func TestTopologicalSort_DuplicateEdges(t *testing.T) {
	g, err := NewGraph([]NodeID{"A", "B"}, edges("A", "B", "A", "B"), Limits{})
	require.NoError(t, err)

	order, err := g.TopologicalSort(TieBreakInput)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{"A", "B"}, order)
}

func TestParseTieBreak(t *testing.T) {
	tests := []struct {
		in      string
		want    TieBreak
		wantErr bool
	}{
		{in: "", want: TieBreakInput},
		{in: "input", want: TieBreakInput},
		{in: " Lexical ", want: TieBreakLexical},
		{in: "random", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTieBreak(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectedComponents(t *testing.T) {
	// Direction must not matter: b -> a and b -> c still joins a and c.
	g, err := NewGraph([]NodeID{"a", "b", "c", "d", "e"}, edges("b", "a", "b", "c", "e", "d"), Limits{})
	require.NoError(t, err)

	components := g.ConnectedComponents()
	assert.Equal(t, [][]NodeID{{"a", "b", "c"}, {"d", "e"}}, components)
}

func TestExecutionLevels(t *testing.T) {
	nodes := []NodeID{"customers", "orders", "payments", "items", "products"}
	e := edges(
		"customers", "orders",
		"customers", "payments",
		"orders", "items",
		"products", "items",
	)

	plan, err := Schedule(nodes, e, WithLevels(true))
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	require.Len(t, plan.Levels, 1)

	assert.Equal(t, [][]NodeID{
		{"customers", "products"},
		{"orders", "payments"},
		{"items"},
	}, plan.Levels[0])
}

func TestExecutionLevels_Cycle(t *testing.T) {
	g, err := NewGraph([]NodeID{"a", "b"}, edges("a", "b", "b", "a"), Limits{})
	require.NoError(t, err)

	_, err = g.ExecutionLevels([]NodeID{"a", "b"})
	require.ErrorIs(t, err, ErrCycleDetected)
}

func TestPlan_GroupOf(t *testing.T) {
	plan, err := Schedule([]NodeID{"A", "B", "C"}, edges("A", "B"))
	require.NoError(t, err)

	assert.Equal(t, 0, plan.GroupOf("B"))
	assert.Equal(t, 1, plan.GroupOf("C"))
	assert.Equal(t, -1, plan.GroupOf("Z"))
	assert.Equal(t, 3, plan.NodeCount())
}

// randomDAG builds a random acyclic graph by only drawing edges from a lower
// to a higher index of a shuffled node list.
func randomDAG(r *rand.Rand, n, m int) ([]NodeID, []Edge) {
	nodes := make([]NodeID, n)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("t%02d", i)
	}
	hidden := slices.Clone(nodes)
	r.Shuffle(len(hidden), func(i, j int) { hidden[i], hidden[j] = hidden[j], hidden[i] })

	var e []Edge
	for k := 0; k < m && n > 1; k++ {
		i := r.IntN(n - 1)
		j := i + 1 + r.IntN(n-i-1)
		e = append(e, Edge{Source: hidden[i], Target: hidden[j]})
	}
	return nodes, e
}

// reachableUndirected is an independent oracle for component membership.
func reachableUndirected(e []Edge, from NodeID) map[NodeID]bool {
	seen := map[NodeID]bool{from: true}
	for changed := true; changed; {
		changed = false
		for _, edge := range e {
			if seen[edge.Source] != seen[edge.Target] {
				seen[edge.Source], seen[edge.Target] = true, true
				changed = true
			}
		}
	}
	return seen
}

func TestSchedule_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for iter := 0; iter < 200; iter++ {
		n := 1 + r.IntN(15)
		nodes, e := randomDAG(r, n, r.IntN(2*n))

		plan, err := Schedule(nodes, e)
		require.NoError(t, err, "acyclic input must plan")

		// Totality: every node exactly once.
		var all []NodeID
		for _, group := range plan.Groups {
			all = append(all, group...)
		}
		assert.ElementsMatch(t, nodes, all)

		// Soundness: within a group the source precedes the target.
		for _, edge := range e {
			gi := plan.GroupOf(edge.Source)
			require.Equal(t, gi, plan.GroupOf(edge.Target), "edge endpoints share a group")
			group := plan.Groups[gi]
			assert.Less(t, slices.Index(group, edge.Source), slices.Index(group, edge.Target))
		}

		// Component correctness against an independent oracle.
		for _, a := range nodes {
			reach := reachableUndirected(e, a)
			for _, b := range nodes {
				assert.Equal(t, reach[b], plan.GroupOf(a) == plan.GroupOf(b), "%s ~ %s", a, b)
			}
		}

		// Determinism.
		again, err := Schedule(nodes, e)
		require.NoError(t, err)
		assert.Equal(t, plan, again)

		// Reversing any existing edge closes a cycle.
		if len(e) > 0 {
			edge := e[r.IntN(len(e))]
			back := Edge{Source: edge.Target, Target: edge.Source}
			_, err := Schedule(nodes, append(slices.Clone(e), back))
			assert.True(t, errors.Is(err, ErrCycleDetected), "reversed %v must cycle", edge)
		}
	}
}

func TestSchedule_Concurrent(t *testing.T) {
	nodes, e := randomDAG(rand.New(rand.NewPCG(1, 2)), 30, 40)
	want, err := Schedule(nodes, e)
	require.NoError(t, err)

	var eg errgroup.Group
	for i := 0; i < 32; i++ {
		eg.Go(func() error {
			got, err := Schedule(nodes, e, WithTieBreak(TieBreakInput))
			if err != nil {
				return err
			}
			if !slices.Equal(got.Order, want.Order) {
				return fmt.Errorf("order mismatch: %v != %v", got.Order, want.Order)
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
}
