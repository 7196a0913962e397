package lineage

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

var errStoreDown = errors.New("catalog unreachable")

type edgeKey struct {
	source core.Node
	target core.Node
}

// fakeStore is an in-memory CatalogStore that counts calls and can be told to fail.
type fakeStore struct {
	edges []core.Edge
	index map[edgeKey]int

	getEdgeCalls  int
	getEdgesCalls int

	failGetEdge  bool
	failGetEdges bool
	failAfter    int // fail GetColumnEdge once this many calls succeeded; 0 disables
}

func newFakeStore() *fakeStore {
	return &fakeStore{index: make(map[edgeKey]int)}
}

func (s *fakeStore) GetColumnEdges(_ context.Context) ([]core.Edge, error) {
	s.getEdgesCalls++
	if s.failGetEdges {
		return nil, errStoreDown
	}
	out := make([]core.Edge, len(s.edges))
	copy(out, s.edges)
	return out, nil
}

func (s *fakeStore) GetColumnEdge(_ context.Context, source, target core.Node, payload core.Payload) (core.Edge, bool, error) {
	if s.failGetEdge || (s.failAfter > 0 && s.getEdgeCalls >= s.failAfter) {
		s.getEdgeCalls++
		return core.Edge{}, false, errStoreDown
	}
	s.getEdgeCalls++

	key := edgeKey{source, target}
	if i, ok := s.index[key]; ok {
		return s.edges[i], false, nil
	}
	e := core.Edge{
		ID:      fmt.Sprintf("edge-%d", len(s.edges)+1),
		Source:  source,
		Target:  target,
		Payload: payload.Clone(),
	}
	s.index[key] = len(s.edges)
	s.edges = append(s.edges, e)
	return e, true, nil
}

// seed persists edges directly, bypassing any graph.
func (s *fakeStore) seed(pairs ...[2]core.Node) {
	for _, p := range pairs {
		_, _, _ = s.GetColumnEdge(context.Background(), p[0], p[1], nil)
	}
	s.getEdgeCalls = 0
}

func tbl(name string) core.Node {
	return core.Node{Table: name}
}

func col(table, column string) core.Node {
	return core.Node{Schema: "public", Table: table, Column: column}
}
