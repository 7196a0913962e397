package lineage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// Operations reported by PersistenceError.
const (
	OpAddEdge = "add_edge"
	OpLoad    = "load"
)

var (
	// ErrPersistence matches every PersistenceError via errors.Is.
	ErrPersistence = errors.New("catalog persistence failed")

	// ErrCyclicGraph matches every CyclicGraphError via errors.Is.
	ErrCyclicGraph = errors.New("graph contains a cycle")

	// ErrDerivedGraph is returned when a persistence-backed mutation is
	// attempted on a graph produced by an ancestor query.
	ErrDerivedGraph = errors.New("derived lineage graph is read-only")
)

// PersistenceError reports a failed catalog store call. Err is the store's
// error, unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// CyclicGraphError is returned by Layout when peeling stalls: nodes remain
// but none of them has a zero out-degree.
type CyclicGraphError struct {
	// Remaining holds the nodes that could not be layered, sorted.
	Remaining []core.Node
	// Cycle is one cycle among Remaining, first node repeated at the end.
	Cycle []core.Node
}

func (e *CyclicGraphError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		names[i] = n.String()
	}
	return fmt.Sprintf("layout: cycle detected among %d nodes: %s", len(e.Remaining), strings.Join(names, " -> "))
}

// Is lets errors.Is(err, ErrCyclicGraph) match any CyclicGraphError.
func (e *CyclicGraphError) Is(target error) bool { return target == ErrCyclicGraph }
