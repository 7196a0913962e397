// Package lineage provides the column lineage graph engine.
//
// A Graph holds column (and table) nodes connected by directed lineage
// edges, where source -> target means data from source flows into target.
// Every edge is persisted through a core.CatalogStore before it becomes
// visible in memory, so the in-memory graph never holds an edge without a
// backing record.
//
// # Features
//
//   - Graph store: idempotent node insertion, store-backed edge insertion,
//     bulk hydration with Load, fuzzy membership with HasNode
//   - Ancestor queries: SubGraph (a table node) and SubGraphs (all columns of
//     a table) return read-only projections of the upstream closure
//   - Phase layout: Layout layers the graph by peeling sinks and assigns
//     deterministic grid positions for renderers
//
// # Basic Usage
//
//	g := lineage.New(store, lineage.WithLogger(logger))
//	if err := g.Load(ctx); err != nil {
//	    return err
//	}
//
//	sub := g.SubGraphs(core.TableRef{Schema: "analytics", Table: "order_facts"})
//	layout, err := sub.Layout()
//	if err != nil {
//	    return err // *CyclicGraphError when the lineage contains a cycle
//	}
//
//	for node, pos := range layout.Positions {
//	    fmt.Printf("%s: generation %d, rank %d\n", node, pos.Generation, pos.Rank)
//	}
package lineage
