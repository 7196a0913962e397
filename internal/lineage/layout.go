package lineage

import (
	"maps"
	"slices"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// Position places a node on the layout grid. Generation is the phase index
// (0 = most upstream); Rank is the node's index within its phase.
type Position struct {
	Generation int `json:"generation"`
	Rank       int `json:"rank"`
}

// PositionedEdge is an edge with the positions of both endpoints.
type PositionedEdge struct {
	Source core.Node
	Target core.Node
	From   Position
	To     Position
}

// Layout is the result of a phase layout pass.
type Layout struct {
	// Phases lists nodes per generation, most upstream first, each phase
	// sorted by core.Compare.
	Phases    [][]core.Node
	Positions map[core.Node]Position
	// Edges are sorted by source, then target.
	Edges []PositionedEdge
}

// Layout assigns every node a Position by peeling sinks: nodes with no
// remaining outgoing edges form a phase, are removed, and the process repeats.
// Phases found later are placed earlier, so sources end up in generation 0.
//
// Positions are stored on the graph until the next mutation. If peeling
// stalls because the remaining nodes form a cycle, Layout returns a
// *CyclicGraphError and the graph holds no positions.
func (g *Graph) Layout() (*Layout, error) {
	g.positions = nil

	phases, err := g.phases()
	if err != nil {
		return nil, err
	}

	positions := make(map[core.Node]Position, len(g.nodes))
	for gen, phase := range phases {
		for rank, n := range phase {
			positions[n] = Position{Generation: gen, Rank: rank}
		}
	}
	g.positions = positions

	edges := g.Edges()
	positioned := make([]PositionedEdge, len(edges))
	for i, e := range edges {
		positioned[i] = PositionedEdge{
			Source: e.Source,
			Target: e.Target,
			From:   positions[e.Source],
			To:     positions[e.Target],
		}
	}

	g.logger.Debug("computed layout", "graph", g.name, "phases", len(phases), "nodes", len(positions))
	return &Layout{
		Phases:    phases,
		Positions: maps.Clone(positions),
		Edges:     positioned,
	}, nil
}

// phases runs the reverse Kahn peel over out-degrees.
func (g *Graph) phases() ([][]core.Node, error) {
	remaining := make(map[core.Node]int, len(g.nodes))
	for n := range g.nodes {
		remaining[n] = len(g.out[n])
	}

	var phases [][]core.Node
	for len(remaining) > 0 {
		var current []core.Node
		for n, degree := range remaining {
			if degree == 0 {
				current = append(current, n)
			}
		}
		if len(current) == 0 {
			return nil, g.cycleError(remaining)
		}

		for _, n := range current {
			delete(remaining, n)
			for pred := range g.in[n] {
				if _, ok := remaining[pred]; ok {
					remaining[pred]--
				}
			}
		}

		slices.SortFunc(current, core.Compare)
		phases = append(phases, current)
	}

	slices.Reverse(phases)
	return phases, nil
}

// Position returns the position assigned to n by the last Layout, if it is
// still valid.
func (g *Graph) Position(n core.Node) (Position, bool) {
	p, ok := g.positions[n]
	return p, ok
}

// Positions returns a copy of the current positions, or nil when the graph
// has not been laid out since its last mutation.
func (g *Graph) Positions() map[core.Node]Position {
	if g.positions == nil {
		return nil
	}
	return maps.Clone(g.positions)
}

// cycleError builds a CyclicGraphError for the stalled residual set.
func (g *Graph) cycleError(remaining map[core.Node]int) *CyclicGraphError {
	nodes := make([]core.Node, 0, len(remaining))
	for n := range remaining {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, core.Compare)

	return &CyclicGraphError{
		Remaining: nodes,
		Cycle:     g.findCycle(nodes, remaining),
	}
}

// findCycle runs a depth-first search restricted to within and returns the
// first cycle found, with its first node repeated at the end.
func (g *Graph) findCycle(order []core.Node, within map[core.Node]int) []core.Node {
	visited := make(map[core.Node]bool)
	onStack := make(map[core.Node]bool)
	parent := make(map[core.Node]core.Node)

	var cycle []core.Node

	var dfs func(n core.Node) bool
	dfs = func(n core.Node) bool {
		visited[n] = true
		onStack[n] = true

		for _, next := range g.Successors(n) {
			if _, ok := within[next]; !ok {
				continue
			}
			if !visited[next] {
				parent[next] = n
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				// Walk parents back from n to next to recover the path
				cycle = []core.Node{n}
				for curr := n; curr != next; {
					curr = parent[curr]
					cycle = append([]core.Node{curr}, cycle...)
				}
				cycle = append(cycle, next)
				return true
			}
		}

		onStack[n] = false
		return false
	}

	for _, n := range order {
		if !visited[n] && dfs(n) {
			return cycle
		}
	}
	return nil
}
