package lineage

import (
	"slices"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// SubGraph returns the ancestor closure of the node table: every node with a
// directed path to it, plus the edges along those paths. A table that is not
// in the graph yields an empty graph.
func (g *Graph) SubGraph(table core.Node) *Graph {
	var seeds []core.Node
	if g.Contains(table) {
		seeds = append(seeds, table)
	}
	return g.ancestors(table.String(), seeds)
}

// SubGraphs returns the union of the ancestor closures of every column of
// table. A table without column nodes yields an empty graph.
func (g *Graph) SubGraphs(table core.TableRef) *Graph {
	var seeds []core.Node
	for n := range g.nodes {
		if n.IsColumn() && n.Ref() == table {
			seeds = append(seeds, n)
		}
	}
	slices.SortFunc(seeds, core.Compare)

	g.logger.Debug("searched for table columns", "graph", g.name, "table", table.String(), "found", len(seeds))
	return g.ancestors(table.String(), seeds)
}

// ancestors walks predecessors from seeds with a LIFO worklist. A node is
// marked when first pushed and expanded exactly once; every traversed edge
// is copied into the result.
func (g *Graph) ancestors(label string, seeds []core.Node) *Graph {
	sub := g.derive("Data Lineage for " + label)

	seen := make(map[core.Node]struct{}, len(seeds))
	stack := make([]core.Node, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		sub.AddNode(s)
		stack = append(stack, s)
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for pred, e := range g.in[n] {
			if _, ok := seen[pred]; !ok {
				seen[pred] = struct{}{}
				sub.AddNode(pred)
				stack = append(stack, pred)
			}
			cp := *e
			cp.Payload = e.Payload.Clone()
			sub.link(cp)
		}
	}

	g.logger.Debug("extracted ancestors",
		"graph", g.name,
		"result", sub.name,
		"nodes", sub.NodeCount(),
		"edges", sub.EdgeCount(),
	)
	return sub
}
