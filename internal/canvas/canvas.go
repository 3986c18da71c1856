// Package canvas models the query-builder canvas: table nodes placed by the
// user and the join edges drawn between them. A Document is the caller-side
// state that the scheduler in internal/dag plans from.
package canvas

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/querycanvas/internal/dag"
)

var (
	// ErrUnknownNode is returned when an operation references a node that is not on the canvas.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownEdge is returned when an operation references a join that is not on the canvas.
	ErrUnknownEdge = errors.New("unknown join")
	// ErrDuplicateEdge is returned when the same join is drawn twice.
	ErrDuplicateEdge = errors.New("duplicate join")
	// ErrDuplicateEdgeID is returned when two joins share an id.
	ErrDuplicateEdgeID = errors.New("duplicate join id")
	// ErrSelfJoin is returned when a join starts and ends on the same node.
	ErrSelfJoin = errors.New("node cannot join itself")
)

// JoinType is the SQL join kind shown on an edge label.
type JoinType string

// Supported join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
)

// ParseJoinType normalizes a join type. The empty string means INNER.
func ParseJoinType(s string) (JoinType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.TrimSpace(strings.TrimSuffix(norm, "JOIN"))
	norm = strings.TrimSpace(strings.TrimSuffix(norm, "OUTER"))

	jt := JoinType(norm)
	switch jt {
	case "":
		return JoinInner, nil
	case JoinInner, JoinLeft, JoinRight, JoinFull, JoinCross:
		return jt, nil
	default:
		return "", fmt.Errorf("unsupported join type %q", s)
	}
}

// Position is the node location on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Column describes a column shown inside a table node.
type Column struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	IsPrimaryKey bool   `json:"isPrimaryKey,omitempty" yaml:"primary_key,omitempty"`
}

// TableNode is one placement of a table on the canvas.
type TableNode struct {
	ID       string   `json:"id" yaml:"id"`
	Table    string   `json:"table" yaml:"table"`
	Columns  []Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	Position Position `json:"position" yaml:"position"`
}

// JoinEdge is a join drawn from Source to Target.
type JoinEdge struct {
	ID       string   `json:"id" yaml:"id"`
	Source   string   `json:"source" yaml:"source"`
	Target   string   `json:"target" yaml:"target"`
	JoinType JoinType `json:"joinType,omitempty" yaml:"join_type,omitempty"`
}

// Document is the full canvas state.
type Document struct {
	Name         string      `json:"name,omitempty" yaml:"name,omitempty"`
	ConnectionID string      `json:"connectionId,omitempty" yaml:"connection_id,omitempty"`
	Nodes        []TableNode `json:"nodes" yaml:"nodes"`
	Edges        []JoinEdge  `json:"edges" yaml:"edges"`
}

// New returns an empty canvas.
func New(name string) *Document {
	return &Document{Name: name}
}

// PlaceTable drops a table onto the canvas and returns the new node id.
// Each placement gets a fresh id, so the same table can appear several times.
func (d *Document) PlaceTable(table string, columns []Column, pos Position) string {
	id := fmt.Sprintf("table-%s-%s", table, uuid.NewString())
	d.Nodes = append(d.Nodes, TableNode{
		ID:       id,
		Table:    table,
		Columns:  slices.Clone(columns),
		Position: pos,
	})
	return id
}

// Node returns the node with the given id.
func (d *Document) Node(id string) (TableNode, bool) {
	i := d.nodeIndex(id)
	if i < 0 {
		return TableNode{}, false
	}
	return d.Nodes[i], true
}

func (d *Document) nodeIndex(id string) int {
	return slices.IndexFunc(d.Nodes, func(n TableNode) bool { return n.ID == id })
}

func (d *Document) edgeIndex(id string) int {
	return slices.IndexFunc(d.Edges, func(e JoinEdge) bool { return e.ID == id })
}

// Connect draws a join from source to target and returns the edge id.
func (d *Document) Connect(source, target string, joinType JoinType) (string, error) {
	if d.nodeIndex(source) < 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, source)
	}
	if d.nodeIndex(target) < 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, target)
	}
	if source == target {
		return "", fmt.Errorf("%w: %s", ErrSelfJoin, source)
	}
	for _, e := range d.Edges {
		if e.Source == source && e.Target == target {
			return "", fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, source, target)
		}
	}

	jt, err := ParseJoinType(string(joinType))
	if err != nil {
		return "", err
	}

	id := newEdgeID()
	d.Edges = append(d.Edges, JoinEdge{ID: id, Source: source, Target: target, JoinType: jt})
	return id, nil
}

// newEdgeID mints a join id. Node ids may contain dashes, so ids are never
// derived from the endpoints.
func newEdgeID() string {
	return "join-" + uuid.NewString()
}

// Normalize canonicalizes join types, mints ids for joins that have none and
// rejects joins sharing an id. Edge endpoints are left to the scheduler.
func (d *Document) Normalize() error {
	seen := make(map[string]int, len(d.Edges))
	for i := range d.Edges {
		e := &d.Edges[i]
		jt, err := ParseJoinType(string(e.JoinType))
		if err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
		e.JoinType = jt
		if e.ID == "" {
			e.ID = newEdgeID()
		}
		if j, ok := seen[e.ID]; ok {
			return fmt.Errorf("%w: %q used by edges %d and %d", ErrDuplicateEdgeID, e.ID, j, i)
		}
		seen[e.ID] = i
	}
	return nil
}

// Disconnect removes a join.
func (d *Document) Disconnect(edgeID string) error {
	i := d.edgeIndex(edgeID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, edgeID)
	}
	d.Edges = slices.Delete(d.Edges, i, i+1)
	return nil
}

// RemoveTable removes a node and every join touching it.
func (d *Document) RemoveTable(id string) error {
	i := d.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	d.Nodes = slices.Delete(d.Nodes, i, i+1)
	d.Edges = slices.DeleteFunc(d.Edges, func(e JoinEdge) bool {
		return e.Source == id || e.Target == id
	})
	return nil
}

// Snapshot returns detached node ids and edges for the scheduler.
// Node order is placement order, edge order is drawing order.
func (d *Document) Snapshot() ([]dag.NodeID, []dag.Edge) {
	nodes := make([]dag.NodeID, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = n.ID
	}
	edges := make([]dag.Edge, len(d.Edges))
	for i, e := range d.Edges {
		edges[i] = dag.Edge{Source: e.Source, Target: e.Target}
	}
	return nodes, edges
}

// Plan schedules the canvas.
func (d *Document) Plan(opts ...dag.Option) (*dag.Plan, error) {
	nodes, edges := d.Snapshot()
	return dag.Schedule(nodes, edges, opts...)
}

// Label returns a display label for a node: its table name, or the id when unknown.
func (d *Document) Label(id string) string {
	if n, ok := d.Node(id); ok && n.Table != "" {
		return n.Table
	}
	return id
}
