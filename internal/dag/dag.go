// Package dag schedules a canvas join graph into an execution plan.
// It validates the graph, orders it with Kahn's algorithm, and splits it into
// independent join groups (weakly connected components).
package dag

import (
	"slices"
)

// NodeID identifies a placed table instance. It is opaque to the scheduler.
type NodeID = string

// Edge is a directed join drawn from Source to Target.
type Edge struct {
	Source NodeID `json:"source" yaml:"source"`
	Target NodeID `json:"target" yaml:"target"`
}

// Limits bounds the size of a graph accepted by NewGraph. Zero means unlimited.
type Limits struct {
	MaxNodes int
	MaxEdges int
}

// Graph is an immutable snapshot of a join graph.
// It is built once per planning request and never shared with the caller.
type Graph struct {
	nodes    []NodeID
	position map[NodeID]int
	edges    []Edge
	children map[NodeID][]NodeID // source -> targets, in edge order
	parents  map[NodeID][]NodeID // target -> sources, in edge order
}

// NewGraph validates nodes and edges and builds a snapshot graph.
// Every edge endpoint must be a declared node; node ids must be unique and non-empty.
func NewGraph(nodes []NodeID, edges []Edge, limits Limits) (*Graph, error) {
	if limits.MaxNodes > 0 && len(nodes) > limits.MaxNodes {
		return nil, &LimitError{Kind: "nodes", Count: len(nodes), Max: limits.MaxNodes}
	}
	if limits.MaxEdges > 0 && len(edges) > limits.MaxEdges {
		return nil, &LimitError{Kind: "edges", Count: len(edges), Max: limits.MaxEdges}
	}

	g := &Graph{
		nodes:    make([]NodeID, 0, len(nodes)),
		position: make(map[NodeID]int, len(nodes)),
		edges:    slices.Clone(edges),
		children: make(map[NodeID][]NodeID, len(nodes)),
		parents:  make(map[NodeID][]NodeID, len(nodes)),
	}

	for _, id := range nodes {
		if id == "" {
			return nil, &MalformedGraphError{Index: -1, Detail: "empty node id"}
		}
		if _, dup := g.position[id]; dup {
			return nil, &MalformedGraphError{Index: -1, Detail: "duplicate node id " + quote(id)}
		}
		g.position[id] = len(g.nodes)
		g.nodes = append(g.nodes, id)
		g.children[id] = nil
		g.parents[id] = nil
	}

	for i, e := range edges {
		if _, ok := g.position[e.Source]; !ok {
			return nil, newMissingEndpointError(i, e, e.Source, "source")
		}
		if _, ok := g.position[e.Target]; !ok {
			return nil, newMissingEndpointError(i, e, e.Target, "target")
		}
		g.children[e.Source] = append(g.children[e.Source], e.Target)
		g.parents[e.Target] = append(g.parents[e.Target], e.Source)
	}

	return g, nil
}

// Nodes returns the node ids in declaration order.
func (g *Graph) Nodes() []NodeID {
	return slices.Clone(g.nodes)
}

// Edges returns the edges in declaration order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.position[id]
	return ok
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Children returns the targets of edges leaving id, in edge order.
func (g *Graph) Children(id NodeID) []NodeID {
	return slices.Clone(g.children[id])
}

// Parents returns the sources of edges entering id, in edge order.
func (g *Graph) Parents(id NodeID) []NodeID {
	return slices.Clone(g.parents[id])
}

// InDegrees returns the number of incoming edges of every node.
func (g *Graph) InDegrees() map[NodeID]int {
	inDegree := make(map[NodeID]int, len(g.nodes))
	for _, id := range g.nodes {
		inDegree[id] = 0
	}
	for _, e := range g.edges {
		inDegree[e.Target]++
	}
	return inDegree
}

// Roots returns nodes with no incoming edges, in declaration order.
func (g *Graph) Roots() []NodeID {
	var roots []NodeID
	for _, id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns nodes with no outgoing edges, in declaration order.
func (g *Graph) Leaves() []NodeID {
	var leaves []NodeID
	for _, id := range g.nodes {
		if len(g.children[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}
