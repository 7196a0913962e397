package core

import (
	"context"
	"maps"
	"time"
)

// CatalogStore is the persistence layer of record for column lineage edges.
type CatalogStore interface {
	// GetColumnEdges returns every persisted edge.
	GetColumnEdges(ctx context.Context) ([]Edge, error)

	// GetColumnEdge finds or creates the edge source -> target. The returned
	// bool reports whether the edge was created by this call.
	GetColumnEdge(ctx context.Context, source, target Node, payload Payload) (Edge, bool, error)
}

// Payload is opaque transformation metadata attached to an edge, e.g. the
// statement that produced it.
type Payload map[string]any

// Clone returns a shallow copy of the payload. A nil payload clones to nil.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Edge is a persisted lineage edge.
type Edge struct {
	ID        string
	Source    Node
	Target    Node
	Payload   Payload
	CreatedAt time.Time
}

// Triple is one unit of lineage produced by an extractor: data flows from
// Source into Target.
type Triple struct {
	Source  Node
	Target  Node
	Payload Payload
}
