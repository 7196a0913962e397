package commands

import (
	"testing"

	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIngestCommand(t *testing.T) {
	cmd := NewIngestCommand()

	assert.Equal(t, "ingest <file>...", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
	assert.Error(t, cmd.Args(cmd, nil), "at least one file is required")
}

func TestNewEdgesCommand(t *testing.T) {
	cmd := NewEdgesCommand()

	assert.Equal(t, "edges", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}

func TestNewLineageCommand(t *testing.T) {
	cmd := NewLineageCommand()

	assert.Equal(t, "lineage <table>...", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	// Output is a global flag on root, not local
	assert.NotNil(t, cmd.Flags().Lookup("table-level"))
	assert.Nil(t, cmd.Flags().Lookup("output"))
}

func TestNewLayoutCommand(t *testing.T) {
	cmd := NewLayoutCommand()

	assert.Equal(t, "layout <table>", cmd.Use)
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.Error(t, cmd.Args(cmd, []string{"a", "b"}), "exactly one table")
}

func TestNewMigrateCommand(t *testing.T) {
	cmd := NewMigrateCommand()

	assert.Equal(t, "migrate", cmd.Use)
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
}

func TestToLayoutJSON(t *testing.T) {
	a := core.Node{Table: "a", Column: "x"}
	b := core.Node{Table: "b", Column: "x"}
	c := core.Node{Table: "b", Column: "y"}

	layout := &lineage.Layout{
		Phases: [][]core.Node{{a}, {b, c}},
		Edges: []lineage.PositionedEdge{
			{Source: a, Target: b, From: lineage.Position{}, To: lineage.Position{Generation: 1}},
		},
	}

	got := toLayoutJSON("Data Lineage for b", layout)

	assert.Equal(t, [][]string{{"a.x"}, {"b.x", "b.y"}}, got.Phases)
	require.Len(t, got.Positions, 3)
	assert.Equal(t, positionJSON{Node: "b.y", Generation: 1, Rank: 1}, got.Positions[2])
	require.Len(t, got.Edges, 1)
	assert.Equal(t, "a.x", got.Edges[0].Source)
	assert.Equal(t, 1, got.Edges[0].To.Generation)
}

func TestToLayoutJSON_Empty(t *testing.T) {
	got := toLayoutJSON("Data Lineage for x", &lineage.Layout{})

	assert.Empty(t, got.Phases)
	assert.NotNil(t, got.Positions, "positions encode as [] rather than null")
	assert.Empty(t, got.Edges)
}

func TestFormatPayload(t *testing.T) {
	assert.Equal(t, "", formatPayload(nil))
	assert.Equal(t, `{"statement":"select 1"}`, formatPayload(core.Payload{"statement": "select 1"}))
}

func TestLookupTable(t *testing.T) {
	g := newDoctorGraph(t,
		core.Triple{Source: col("raw", "orders", "amount"), Target: col("analytics", "facts", "rev")},
		core.Triple{Source: col("reporting", "facts", "rev"), Target: col("analytics", "summary", "rev")},
	)
	facts := core.TableRef{Schema: "analytics", Table: "facts"}

	tests := []struct {
		name       string
		table      core.TableRef
		tableLevel bool
		wantFound  bool
		wantHint   string
	}{
		{name: "qualified table with columns", table: facts, wantFound: true},
		{name: "unqualified name", table: core.TableRef{Table: "facts"}, wantHint: "did you mean analytics.facts, reporting.facts?"},
		{name: "table level on column-only table", table: facts, tableLevel: true, wantHint: "only column lineage is recorded; try without --table-level"},
		{name: "unknown table", table: core.TableRef{Table: "missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, hint := lookupTable(g, tt.table, tt.tableLevel)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantHint, hint)

			// Found agrees with what the extraction seeds from
			res := extractLineage(g, tt.table, tt.tableLevel)
			assert.Equal(t, found, len(res.Nodes) > 0)
		})
	}
}

func TestLookupTable_TableNode(t *testing.T) {
	orders := core.TableRef{Schema: "raw", Table: "orders"}
	g := newDoctorGraph(t,
		core.Triple{Source: core.TableNode(orders), Target: core.TableNode(core.TableRef{Schema: "mart", Table: "facts"})},
	)

	found, hint := lookupTable(g, orders, true)
	assert.True(t, found)
	assert.Empty(t, hint)

	found, _ = lookupTable(g, orders, false)
	assert.False(t, found, "column-level lookup needs a column node")
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "table x not found in lineage graph", notFoundMessage("x", ""))
	assert.Equal(t, "table x not found in lineage graph (did you mean a.x?)", notFoundMessage("x", "did you mean a.x?"))
}
