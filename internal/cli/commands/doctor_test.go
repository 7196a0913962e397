package commands

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/cli/testutil"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/internal/state"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoctorGraph(t *testing.T, triples ...core.Triple) *lineage.Graph {
	t.Helper()

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	g := lineage.New(store)
	_, err := g.Ingest(context.Background(), triples)
	require.NoError(t, err)
	return g
}

func col(schema, table, column string) core.Node {
	return core.Node{Schema: schema, Table: table, Column: column}
}

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name      string
		checks    []HealthCheck
		edgeCount int
		minScore  int
		maxScore  int
	}{
		{
			name:      "no checks returns 100",
			checks:    nil,
			edgeCount: 10,
			minScore:  100,
			maxScore:  100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{RuleID: "LC01", Status: "pass", IssueCount: 0},
				{RuleID: "LC02", Status: "pass", IssueCount: 0},
			},
			edgeCount: 10,
			minScore:  100,
			maxScore:  100,
		},
		{
			name: "warnings reduce score",
			checks: []HealthCheck{
				{RuleID: "LC01", Status: "pass", IssueCount: 0},
				{RuleID: "LC03", Status: "warn", IssueCount: 2},
			},
			edgeCount: 10,
			minScore:  80,
			maxScore:  95,
		},
		{
			name: "errors reduce score more",
			checks: []HealthCheck{
				{RuleID: "LC01", Status: "error", IssueCount: 2},
			},
			edgeCount: 10,
			minScore:  70,
			maxScore:  95,
		},
		{
			name: "more edges means less impact per issue",
			checks: []HealthCheck{
				{RuleID: "LC03", Status: "warn", IssueCount: 5},
			},
			edgeCount: 200,
			minScore:  90,
			maxScore:  100,
		},
		{
			name: "many issues can reduce to 0",
			checks: []HealthCheck{
				{RuleID: "LC01", Status: "error", IssueCount: 20},
				{RuleID: "LC02", Status: "error", IssueCount: 20},
			},
			edgeCount: 5,
			minScore:  0,
			maxScore:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := calculateHealthScore(tt.checks, tt.edgeCount)
			assert.GreaterOrEqual(t, score, tt.minScore, "score should be >= %d", tt.minScore)
			assert.LessOrEqual(t, score, tt.maxScore, "score should be <= %d", tt.maxScore)
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	for _, id := range []string{"LC01", "LC02", "LC03"} {
		assert.NotEmpty(t, getRecommendation(id), "expected recommendation for %s", id)
	}
	assert.Empty(t, getRecommendation("UNKNOWN"))
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{RuleID: "LC01", Status: "error", IssueCount: 1},
		{RuleID: "LC02", Status: "pass", IssueCount: 0},
		{RuleID: "LC03", Status: "warn", IssueCount: 2},
	}

	recommendations := generateRecommendations(checks)

	require.Len(t, recommendations, 2)
	assert.Contains(t, recommendations[0], "cycles")
	assert.Contains(t, recommendations[1], "payload")
}

func TestBuildDoctorOutput_Healthy(t *testing.T) {
	payload := core.Payload{"statement": "select"}
	g := newDoctorGraph(t,
		core.Triple{Source: col("raw", "orders", "id"), Target: col("stg", "orders", "id"), Payload: payload},
		core.Triple{Source: col("stg", "orders", "id"), Target: col("mart", "facts", "id"), Payload: payload},
		core.Triple{Source: col("raw", "orders", "id"), Target: col("mart", "facts", "order_id"), Payload: payload},
	)

	out := buildDoctorOutput(g, 1)

	assert.Equal(t, CatalogSummary{
		SchemaVersion: 1,
		Tables:        3,
		Nodes:         4,
		Edges:         3,
		Depth:         3,
		RootCount:     1,
		LeafCount:     2,
	}, out.Summary)
	assert.Equal(t, 100, out.Score)
	assert.Zero(t, out.IssueCount)
	assert.Empty(t, out.Recommendations)

	require.Len(t, out.HealthChecks, 3)
	for _, c := range out.HealthChecks {
		assert.Equal(t, "pass", c.Status, c.RuleID)
	}
}

func TestBuildDoctorOutput_Problems(t *testing.T) {
	g := newDoctorGraph(t,
		core.Triple{Source: col("", "a", "x"), Target: col("", "b", "x")},
		core.Triple{Source: col("", "b", "x"), Target: col("", "a", "x")},
		core.Triple{Source: col("", "b", "x"), Target: col("", "b", "y")},
	)

	out := buildDoctorOutput(g, 1)

	require.Len(t, out.HealthChecks, 3)
	acyclic := out.HealthChecks[0]
	assert.Equal(t, "LC01", acyclic.RuleID)
	assert.Equal(t, "error", acyclic.Status)
	require.Len(t, acyclic.Details, 1)
	assert.Contains(t, acyclic.Details[0], "->")
	assert.Zero(t, out.Summary.Depth, "no depth without a layout")

	self := out.HealthChecks[1]
	assert.Equal(t, "warn", self.Status)
	assert.Equal(t, []string{"b.x -> b.y"}, self.Details)

	payloads := out.HealthChecks[2]
	assert.Equal(t, 3, payloads.IssueCount)

	assert.Less(t, out.Score, 100)
	assert.Len(t, out.Recommendations, 3)
}

func TestRenderDoctorMarkdown(t *testing.T) {
	g := newDoctorGraph(t,
		core.Triple{Source: col("", "a", "x"), Target: col("", "b", "x")},
	)
	out := buildDoctorOutput(g, 1)

	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	renderDoctorMarkdown(tr.Renderer, out)

	md := tr.Output()
	assert.Contains(t, md, "# Lineage Catalog Health Report")
	assert.Contains(t, md, "- **Edges**: 1")
	assert.Contains(t, md, "- **[WARN]** LC03: Edges carry a payload (1 issues)")
	assert.Contains(t, md, "## Recommendations")
}
