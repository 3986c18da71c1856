package dag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrCycleDetected is returned when the join graph contains a directed cycle.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrMalformedGraph is returned when an edge references an undeclared node
	// or the node set itself is invalid.
	ErrMalformedGraph = errors.New("malformed graph")
	// ErrGraphTooLarge is returned when a graph exceeds the configured limits.
	ErrGraphTooLarge = errors.New("graph too large")
)

// CycleError reports the nodes Kahn's algorithm could not visit.
// These are the nodes on a cycle plus everything downstream of one.
type CycleError struct {
	Unvisited []NodeID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s among %d nodes: %s", ErrCycleDetected, len(e.Unvisited), strings.Join(e.Unvisited, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// MalformedGraphError identifies the first offending edge or node.
// Index is the edge position in the input, or -1 when the problem is in the node set.
type MalformedGraphError struct {
	Index   int
	Edge    Edge
	Missing NodeID
	Detail  string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedGraph, e.Detail)
}

func (e *MalformedGraphError) Unwrap() error { return ErrMalformedGraph }

func newMissingEndpointError(index int, e Edge, missing NodeID, end string) *MalformedGraphError {
	return &MalformedGraphError{
		Index:   index,
		Edge:    e,
		Missing: missing,
		Detail: fmt.Sprintf("edge %d (%s -> %s) references unknown %s node %s",
			index, quote(e.Source), quote(e.Target), end, quote(missing)),
	}
}

// LimitError reports which bound was exceeded.
type LimitError struct {
	Kind  string
	Count int
	Max   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %d %s exceeds limit of %d", ErrGraphTooLarge, e.Count, e.Kind, e.Max)
}

func (e *LimitError) Unwrap() error { return ErrGraphTooLarge }

func quote(s string) string {
	return strconv.Quote(s)
}
