// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
)

// OrdersEdges is an edge file describing a small warehouse:
// raw.orders feeds staging.stg_orders, which feeds analytics.order_facts.
const OrdersEdges = `edges:
  - source: raw.orders.id
    target: staging.stg_orders.order_id
  - source: raw.orders.amount
    target: staging.stg_orders.amount
    payload:
      statement: create view staging.stg_orders as select id as order_id, amount from raw.orders
  - source: staging.stg_orders.order_id
    target: analytics.order_facts.order_id
  - source: staging.stg_orders.amount
    target: analytics.order_facts.revenue
  - source: raw.customers.id
    target: analytics.customers.customer_id
`

// CyclicEdges closes a loop between two tables.
const CyclicEdges = `edges:
  - source: loop.a.x
    target: loop.b.x
  - source: loop.b.x
    target: loop.a.x
`

// SetupTestProject creates a temporary project with a leaplineage.yaml
// pointing at a project-local SQLite catalog, plus the edge fixtures above.
// It returns the resolved project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}

	files := map[string]string{
		"leaplineage.yaml":       "catalog:\n  driver: sqlite\n  dsn: .leaplineage/catalog.db\ngraph_name: Test Warehouse\n",
		"lineage/orders.yaml":    OrdersEdges,
		"lineage/cyclic.yaml":    CyclicEdges,
		"lineage/malformed.yaml": "edges:\n  - source: orders\n    target: b.x\n",
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
