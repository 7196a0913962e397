package lineage

import (
	"context"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// DefaultName is the display name of a graph created without WithName.
const DefaultName = "Lineage"

// Option configures a Graph.
type Option func(*Graph)

// WithName sets the display name of the graph.
func WithName(name string) Option {
	return func(g *Graph) { g.name = name }
}

// WithLogger sets the logger used for debug traces of graph mutations.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Graph is an in-memory column lineage graph backed by a catalog store.
//
// Edges are added through the store first and mirrored in memory only once
// persisted. The graph is a simple directed graph: parallel edges collapse.
// Acyclicity is not enforced.
//
// Graph is not safe for concurrent mutation. Read-only methods may be called
// concurrently as long as no goroutine mutates the graph.
type Graph struct {
	name    string
	store   core.CatalogStore
	logger  *slog.Logger
	derived bool

	nodes map[core.Node]struct{}
	out   map[core.Node]map[core.Node]*core.Edge // source -> target -> edge
	in    map[core.Node]map[core.Node]*core.Edge // target -> source -> edge

	// positions is nil until Layout runs and is reset by any mutation.
	positions map[core.Node]Position
}

// New creates an empty graph bound to store.
func New(store core.CatalogStore, opts ...Option) *Graph {
	g := &Graph{
		name:   DefaultName,
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		nodes:  make(map[core.Node]struct{}),
		out:    make(map[core.Node]map[core.Node]*core.Edge),
		in:     make(map[core.Node]map[core.Node]*core.Edge),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// derive creates an empty read-only graph sharing the store handle and logger.
func (g *Graph) derive(name string) *Graph {
	sub := New(g.store, WithName(name), WithLogger(g.logger))
	sub.derived = true
	return sub
}

// Name returns the display name of the graph.
func (g *Graph) Name() string { return g.name }

// Derived reports whether the graph is a projection returned by an ancestor query.
func (g *Graph) Derived() bool { return g.derived }

// AddNode inserts n if it is not already present.
func (g *Graph) AddNode(n core.Node) {
	if _, exists := g.nodes[n]; exists {
		return
	}
	g.logger.Debug("add node", "graph", g.name, "node", n.String())
	g.nodes[n] = struct{}{}
	g.out[n] = make(map[core.Node]*core.Edge)
	g.in[n] = make(map[core.Node]*core.Edge)
	g.positions = nil
}

// AddEdge persists source -> target through the catalog store and then
// mirrors it in memory, adding missing endpoints. Every call round-trips to
// the store, even when the edge is already present in memory.
//
// A store failure is returned as a *PersistenceError and leaves the graph
// unchanged.
func (g *Graph) AddEdge(ctx context.Context, source, target core.Node, payload core.Payload) error {
	_, err := g.addEdge(ctx, source, target, payload)
	return err
}

func (g *Graph) addEdge(ctx context.Context, source, target core.Node, payload core.Payload) (bool, error) {
	if g.derived {
		return false, ErrDerivedGraph
	}

	edge, created, err := g.store.GetColumnEdge(ctx, source, target, payload)
	if err != nil {
		return false, &PersistenceError{Op: OpAddEdge, Err: err}
	}
	g.logger.Debug("persisted edge",
		"graph", g.name,
		"id", edge.ID,
		"source", source.String(),
		"target", target.String(),
		"created", created,
	)

	edge.Source, edge.Target = source, target
	g.link(edge)
	return created, nil
}

// link mirrors e in the adjacency maps without touching the store.
func (g *Graph) link(e core.Edge) {
	g.AddNode(e.Source)
	g.AddNode(e.Target)

	if existing, ok := g.out[e.Source][e.Target]; ok {
		*existing = e
	} else {
		edge := &e
		g.out[e.Source][e.Target] = edge
		g.in[e.Target][e.Source] = edge
	}
	g.positions = nil
}

// Load replays every edge of the catalog store into the graph. It is meant
// to hydrate a fresh graph once; calling it again repeats the store writes.
func (g *Graph) Load(ctx context.Context) error {
	if g.derived {
		return ErrDerivedGraph
	}

	edges, err := g.store.GetColumnEdges(ctx)
	if err != nil {
		return &PersistenceError{Op: OpLoad, Err: err}
	}

	for _, e := range edges {
		g.AddNode(e.Source)
		g.AddNode(e.Target)
		if err := g.AddEdge(ctx, e.Source, e.Target, e.Payload); err != nil {
			return err
		}
	}

	g.logger.Debug("loaded lineage", "graph", g.name, "edges", len(edges), "nodes", len(g.nodes))
	return nil
}

// IngestStats summarises an Ingest call.
type IngestStats struct {
	Created  int
	Existing int
}

// Ingest adds extractor output in order through AddEdge. It stops at the
// first failure; edges added before it remain persisted and in memory.
func (g *Graph) Ingest(ctx context.Context, triples []core.Triple) (IngestStats, error) {
	var stats IngestStats
	if g.derived {
		return stats, ErrDerivedGraph
	}

	for _, t := range triples {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		created, err := g.addEdge(ctx, t.Source, t.Target, t.Payload)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else {
			stats.Existing++
		}
	}
	return stats, nil
}

// HasNode reports whether some node matches every populated component of
// candidate. A candidate with only Table set answers "does this table appear
// anywhere in the graph".
func (g *Graph) HasNode(candidate core.Node) bool {
	if _, ok := g.nodes[candidate]; ok {
		return true
	}
	for n := range g.nodes {
		if candidate.Matches(n) {
			return true
		}
	}
	return false
}

// Contains reports exact membership of n.
func (g *Graph) Contains(n core.Node) bool {
	_, ok := g.nodes[n]
	return ok
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, targets := range g.out {
		count += len(targets)
	}
	return count
}

// Nodes returns all nodes sorted by core.Compare.
func (g *Graph) Nodes() []core.Node {
	nodes := make([]core.Node, 0, len(g.nodes))
	for n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, core.Compare)
	return nodes
}

// Edges returns copies of all edges sorted by source, then target.
func (g *Graph) Edges() []core.Edge {
	edges := make([]core.Edge, 0, g.EdgeCount())
	for _, targets := range g.out {
		for _, e := range targets {
			cp := *e
			cp.Payload = e.Payload.Clone()
			edges = append(edges, cp)
		}
	}
	slices.SortFunc(edges, compareEdges)
	return edges
}

func compareEdges(a, b core.Edge) int {
	if c := core.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return core.Compare(a.Target, b.Target)
}

// HasEdge reports whether source -> target is in the graph.
func (g *Graph) HasEdge(source, target core.Node) bool {
	_, ok := g.out[source][target]
	return ok
}

// Predecessors returns the direct upstream nodes of n, sorted.
func (g *Graph) Predecessors(n core.Node) []core.Node {
	return sortedKeys(g.in[n])
}

// Successors returns the direct downstream nodes of n, sorted.
func (g *Graph) Successors(n core.Node) []core.Node {
	return sortedKeys(g.out[n])
}

// InDegree returns the number of edges ending at n.
func (g *Graph) InDegree(n core.Node) int { return len(g.in[n]) }

// OutDegree returns the number of edges starting at n.
func (g *Graph) OutDegree(n core.Node) int { return len(g.out[n]) }

func sortedKeys(m map[core.Node]*core.Edge) []core.Node {
	keys := make([]core.Node, 0, len(m))
	for n := range m {
		keys = append(keys, n)
	}
	slices.SortFunc(keys, core.Compare)
	return keys
}
