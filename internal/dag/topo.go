package dag

import (
	"fmt"
	"slices"
	"strings"
)

// TieBreak selects which ready node Kahn's algorithm emits first.
type TieBreak string

const (
	// TieBreakInput emits ready nodes in the order the caller declared them.
	// Nodes freed by an edge are queued in edge order.
	TieBreakInput TieBreak = "input"
	// TieBreakLexical always emits the smallest ready node id first,
	// making the order independent of declaration order.
	TieBreakLexical TieBreak = "lexical"
)

// ParseTieBreak parses a tie-break name. The empty string selects TieBreakInput.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case "", TieBreakInput:
		return TieBreakInput, nil
	case TieBreakLexical:
		return TieBreakLexical, nil
	default:
		return "", fmt.Errorf("unknown tie-break %q (expected %q or %q)", s, TieBreakInput, TieBreakLexical)
	}
}

// readyQueue is the Kahn worklist. In input mode it is a plain FIFO;
// in lexical mode it is kept sorted so the front is always the minimum.
type readyQueue struct {
	items   []NodeID
	lexical bool
}

func (q *readyQueue) push(id NodeID) {
	if !q.lexical {
		q.items = append(q.items, id)
		return
	}
	i, _ := slices.BinarySearch(q.items, id)
	q.items = slices.Insert(q.items, i, id)
}

func (q *readyQueue) pop() NodeID {
	id := q.items[0]
	q.items = q.items[1:]
	return id
}

func (q *readyQueue) len() int {
	return len(q.items)
}

// TopologicalSort orders every node so that each edge source precedes its target.
// It returns a *CycleError wrapping ErrCycleDetected when no such order exists.
func (g *Graph) TopologicalSort(tb TieBreak) ([]NodeID, error) {
	inDegree := g.InDegrees()
	queue := &readyQueue{lexical: tb == TieBreakLexical}

	for _, id := range g.nodes {
		if inDegree[id] == 0 {
			queue.push(id)
		}
	}

	order := make([]NodeID, 0, len(g.nodes))
	for queue.len() > 0 {
		u := queue.pop()
		order = append(order, u)

		for _, v := range g.children[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue.push(v)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var unvisited []NodeID
		for _, id := range g.nodes {
			if inDegree[id] > 0 {
				unvisited = append(unvisited, id)
			}
		}
		return nil, &CycleError{Unvisited: unvisited}
	}

	return order, nil
}

// HasCycle reports whether the graph contains a directed cycle.
func (g *Graph) HasCycle() bool {
	_, err := g.TopologicalSort(TieBreakInput)
	return err != nil
}

// ExecutionLevels layers the given nodes so that every level only depends on
// earlier levels. Nodes inside one level share no edge and can be joined in any
// order. Edges leaving the set are ignored. Within a level nodes keep the order
// they have in members.
func (g *Graph) ExecutionLevels(members []NodeID) ([][]NodeID, error) {
	rank := make(map[NodeID]int, len(members))
	for i, id := range members {
		rank[id] = i
	}

	inDegree := make(map[NodeID]int, len(members))
	for _, id := range members {
		for _, parent := range g.parents[id] {
			if _, ok := rank[parent]; ok {
				inDegree[id]++
			}
		}
	}

	var current []NodeID
	for _, id := range members {
		if inDegree[id] == 0 {
			current = append(current, id)
		}
	}

	var levels [][]NodeID
	placed := 0
	for len(current) > 0 {
		levels = append(levels, current)
		placed += len(current)

		var next []NodeID
		for _, u := range current {
			for _, v := range g.children[u] {
				if _, ok := rank[v]; !ok {
					continue
				}
				inDegree[v]--
				if inDegree[v] == 0 {
					next = append(next, v)
				}
			}
		}
		slices.SortFunc(next, func(a, b NodeID) int { return rank[a] - rank[b] })
		current = next
	}

	if placed != len(members) {
		var unvisited []NodeID
		for _, id := range members {
			if inDegree[id] > 0 {
				unvisited = append(unvisited, id)
			}
		}
		return nil, &CycleError{Unvisited: unvisited}
	}

	return levels, nil
}
