package dag

// Plan is the execution plan for a join graph.
type Plan struct {
	// Groups are the independent join groups in discovery order.
	// Each group lists its nodes in topological order.
	Groups [][]NodeID `json:"groups"`
	// Order is the global topological order the groups were projected from.
	Order []NodeID `json:"order"`
	// Levels holds, per group, nodes layered by dependency depth.
	// Only populated when requested with WithLevels.
	Levels [][][]NodeID `json:"levels,omitempty"`
}

// NodeCount returns the number of planned nodes.
func (p *Plan) NodeCount() int {
	return len(p.Order)
}

// GroupOf returns the index of the group containing id, or -1.
func (p *Plan) GroupOf(id NodeID) int {
	for i, group := range p.Groups {
		for _, member := range group {
			if member == id {
				return i
			}
		}
	}
	return -1
}

type options struct {
	tieBreak TieBreak
	limits   Limits
	levels   bool
}

// Option configures Schedule.
type Option func(*options)

// WithTieBreak selects the ordering among nodes that are ready at the same time.
func WithTieBreak(tb TieBreak) Option {
	return func(o *options) {
		o.tieBreak = tb
	}
}

// WithLimits rejects graphs larger than the given bounds.
func WithLimits(l Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithLevels also computes per-group execution levels.
func WithLevels(enabled bool) Option {
	return func(o *options) {
		o.levels = enabled
	}
}

// Schedule validates the graph described by nodes and edges and returns its
// execution plan. It fails with ErrMalformedGraph when an edge references an
// undeclared node and with ErrCycleDetected when the joins form a cycle; a
// partial plan is never returned.
func Schedule(nodes []NodeID, edges []Edge, opts ...Option) (*Plan, error) {
	o := options{tieBreak: TieBreakInput}
	for _, opt := range opts {
		opt(&o)
	}

	g, err := NewGraph(nodes, edges, o.limits)
	if err != nil {
		return nil, err
	}

	plan, err := g.Plan(o.tieBreak)
	if err != nil {
		return nil, err
	}

	if o.levels {
		plan.Levels = make([][][]NodeID, len(plan.Groups))
		for i, group := range plan.Groups {
			levels, err := g.ExecutionLevels(group)
			if err != nil {
				return nil, err
			}
			plan.Levels[i] = levels
		}
	}

	return plan, nil
}

// Plan orders the graph and projects the order onto its connected components.
func (g *Graph) Plan(tb TieBreak) (*Plan, error) {
	order, err := g.TopologicalSort(tb)
	if err != nil {
		return nil, err
	}

	components := g.ConnectedComponents()
	componentOf := make(map[NodeID]int, len(g.nodes))
	for i, component := range components {
		for _, id := range component {
			componentOf[id] = i
		}
	}

	groups := make([][]NodeID, len(components))
	for i, component := range components {
		groups[i] = make([]NodeID, 0, len(component))
	}
	for _, id := range order {
		i := componentOf[id]
		groups[i] = append(groups[i], id)
	}

	return &Plan{Groups: groups, Order: order}, nil
}
