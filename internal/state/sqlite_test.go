package state

import (
	"context"
	"testing"
	"time"

	"github.com/leapstack-labs/leaplineage/internal/testutil"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewSQLiteStore(WithLogger(testutil.NewTestLogger(t)))
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	return store
}

func TestStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	assert.Equal(t, DriverSQLite, store.Driver())

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	// Closing twice is a no-op
	assert.NoError(t, store.Close())
}

func TestStore_OpenFile(t *testing.T) {
	path := t.TempDir() + "/catalog.db"

	store := NewSQLiteStore()
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())

	_, _, err := store.GetColumnEdge(context.Background(), core.Node{Table: "a"}, core.Node{Table: "b"}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore()
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()
	require.NoError(t, reopened.Migrate())

	edges, err := reopened.GetColumnEdges(context.Background())
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	// Running again is idempotent
	require.NoError(t, store.Migrate())

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	rows, err := store.db.Query("SELECT 1 FROM column_edges LIMIT 1")
	require.NoError(t, err, "column_edges table should exist")
	_ = rows.Close()
}

func TestStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	_, err := store.GetColumnEdges(ctx)
	assert.ErrorContains(t, err, "database not opened")

	_, _, err = store.GetColumnEdge(ctx, core.Node{Table: "a"}, core.Node{Table: "b"}, nil)
	assert.ErrorContains(t, err, "database not opened")

	assert.ErrorContains(t, store.Migrate(), "database not opened")
	_, err = store.MigrationVersion()
	assert.ErrorContains(t, err, "database not opened")
}

func TestStore_GetColumnEdgeUpsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	src := core.Node{Schema: "public", Table: "orders", Column: "id"}
	dst := core.Node{Schema: "analytics", Table: "order_facts", Column: "order_id"}
	before := time.Now().UTC().Add(-time.Second)

	first, created, err := store.GetColumnEdge(ctx, src, dst, core.Payload{"statement": "q1"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, src, first.Source)
	assert.Equal(t, dst, first.Target)
	assert.Equal(t, core.Payload{"statement": "q1"}, first.Payload)
	assert.True(t, first.CreatedAt.After(before), "created_at should be set")

	second, created, err := store.GetColumnEdge(ctx, src, dst, core.Payload{"statement": "q2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, core.Payload{"statement": "q1"}, second.Payload, "existing edge keeps its payload")

	// Reverse direction is a distinct edge
	reverse, created, err := store.GetColumnEdge(ctx, dst, src, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, reverse.ID)
	assert.Nil(t, reverse.Payload)
}

func TestStore_GetColumnEdgeDistinguishesSchemaAndColumn(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	target := core.Node{Table: "b"}
	sources := []core.Node{
		{Table: "a"},
		{Table: "a", Column: "x"},
		{Schema: "s", Table: "a"},
		{Schema: "s", Table: "a", Column: "x"},
	}
	for _, src := range sources {
		_, created, err := store.GetColumnEdge(ctx, src, target, nil)
		require.NoError(t, err)
		assert.True(t, created, "edge from %s should be new", src)
	}

	edges, err := store.GetColumnEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, len(sources))
}

func TestStore_GetColumnEdgeRequiresTable(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.GetColumnEdge(context.Background(), core.Node{Column: "x"}, core.Node{Table: "b"}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidIdentity)
}

func TestStore_GetColumnEdges(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	edges, err := store.GetColumnEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)

	pairs := [][2]core.Node{
		{{Table: "a", Column: "x"}, {Table: "b", Column: "x"}},
		{{Table: "b", Column: "x"}, {Table: "c", Column: "x"}},
	}
	for _, p := range pairs {
		_, _, err := store.GetColumnEdge(ctx, p[0], p[1], core.Payload{"n": 1})
		require.NoError(t, err)
	}

	edges, err = store.GetColumnEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for i, e := range edges {
		assert.Equal(t, pairs[i][0], e.Source)
		assert.Equal(t, pairs[i][1], e.Target)
		// JSON numbers decode as float64
		assert.Equal(t, core.Payload{"n": float64(1)}, e.Payload)
	}
}

func TestPayloadCodec(t *testing.T) {
	tests := []struct {
		name    string
		payload core.Payload
		encoded string
	}{
		{name: "nil", payload: nil, encoded: "{}"},
		{name: "empty", payload: core.Payload{}, encoded: "{}"},
		{name: "values", payload: core.Payload{"statement": "insert"}, encoded: `{"statement":"insert"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodePayload(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.encoded, got)
		})
	}

	_, err := decodePayload("not json")
	assert.ErrorContains(t, err, "failed to decode payload")

	_, err = encodePayload(core.Payload{"bad": make(chan int)})
	assert.ErrorContains(t, err, "failed to encode payload")
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		input   string
		want    Driver
		wantErr bool
	}{
		{input: "", want: DriverSQLite},
		{input: "sqlite", want: DriverSQLite},
		{input: "SQLite3", want: DriverSQLite},
		{input: "postgres", want: DriverPostgres},
		{input: "postgresql", want: DriverPostgres},
		{input: "pgx", want: DriverPostgres},
		{input: "mysql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDriver(tt.input)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown catalog driver")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRebind(t *testing.T) {
	query := "SELECT id FROM column_edges WHERE source_table = ? AND target_table = ?"

	assert.Equal(t, query, rebind(DriverSQLite, query))
	assert.Equal(t,
		"SELECT id FROM column_edges WHERE source_table = $1 AND target_table = $2",
		rebind(DriverPostgres, query),
	)
}

func TestStore_GetColumnEdgesSameInstantOrderedByID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, row := range []struct{ id, target string }{
		{"c", "z"}, {"a", "x"}, {"b", "y"},
	} {
		_, err := store.db.ExecContext(ctx, rebind(store.driver, insertEdgeSQL),
			row.id, "", "src", "col", "", "dst", row.target, "{}", at)
		require.NoError(t, err)
	}

	edges, err := store.GetColumnEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	assert.Equal(t, "a", edges[0].ID)
	assert.Equal(t, "b", edges[1].ID)
	assert.Equal(t, "c", edges[2].ID)
	assert.Equal(t, "x", edges[0].Target.Column)
}
