package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	TableLevel bool
}

// lineageJSON is the JSON shape of one ancestor graph.
type lineageJSON struct {
	Table string     `json:"table"`
	Name  string     `json:"name"`
	Found bool       `json:"found"`
	Hint  string     `json:"hint,omitempty"`
	Nodes []string   `json:"nodes"`
	Edges []edgePair `json:"edges"`
}

type edgePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage <table>...",
		Short: "Show upstream lineage for tables",
		Long: `Display every node and edge upstream of the given tables.

By default the ancestors of each column of the table are combined. With
--table-level, only edges recorded against the table itself are followed.

Tables are given as "table" or "schema.table".`,
		Example: `  # Show column lineage for a table
  leaplineage lineage analytics.order_facts

  # Several tables at once, as JSON
  leaplineage lineage analytics.order_facts analytics.customers --output json

  # Follow table-level edges only
  leaplineage lineage analytics.order_facts --table-level`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.TableLevel, "table-level", false, "Follow edges of the table node instead of its columns")

	return cmd
}

func runLineage(cmd *cobra.Command, args []string, opts *LineageOptions) error {
	tables := make([]core.TableRef, len(args))
	for i, arg := range args {
		t, err := core.ParseTableRef(arg)
		if err != nil {
			return err
		}
		tables[i] = t
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := cmdCtx.LoadGraph(cmd)
	if err != nil {
		return err
	}

	// The loaded graph is only read from here on, so tables are extracted
	// concurrently.
	results := make([]lineageJSON, len(tables))
	eg, ctx := errgroup.WithContext(cmd.Context())
	for i, table := range tables {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = extractLineage(g, table, opts.TableLevel)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	r := cmdCtx.Renderer
	for _, res := range results {
		if !res.Found {
			r.Warning(notFoundMessage(res.Table, res.Hint))
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	for _, res := range results {
		r.Header(1, res.Name)
		rows := make([][]string, len(res.Edges))
		for i, e := range res.Edges {
			rows[i] = []string{e.Source, e.Target}
		}
		r.Table([]string{"Source", "Target"}, rows)
		r.Muted(fmt.Sprintf("%d nodes, %d edges", len(res.Nodes), len(res.Edges)))
		r.Println()
	}
	return nil
}

// extractLineage computes the ancestor graph of one table.
func extractLineage(g *lineage.Graph, table core.TableRef, tableLevel bool) lineageJSON {
	var sub *lineage.Graph
	if tableLevel {
		sub = g.SubGraph(core.TableNode(table))
	} else {
		sub = g.SubGraphs(table)
	}

	found, hint := lookupTable(g, table, tableLevel)
	res := lineageJSON{
		Table: table.String(),
		Name:  sub.Name(),
		Found: found,
		Hint:  hint,
		Nodes: []string{},
		Edges: []edgePair{},
	}
	for _, n := range sub.Nodes() {
		res.Nodes = append(res.Nodes, n.String())
	}
	for _, e := range sub.Edges() {
		res.Edges = append(res.Edges, edgePair{Source: e.Source.String(), Target: e.Target.String()})
	}
	return res
}

// lookupTable reports whether the query for table has anything to start
// from: the table node itself at table level, otherwise one of its columns.
// When it has not, hint suggests what the caller may have meant.
func lookupTable(g *lineage.Graph, table core.TableRef, tableLevel bool) (found bool, hint string) {
	if tableLevel && g.Contains(core.TableNode(table)) {
		return true, ""
	}

	pattern := core.TableNode(table)
	var (
		similar     []string
		columnsOnly bool
	)
	for _, n := range g.Nodes() {
		if n.Ref() == table {
			if n.IsColumn() {
				if !tableLevel {
					return true, ""
				}
				columnsOnly = true
			}
			continue
		}
		if pattern.Matches(n) {
			ref := n.Ref().String()
			if len(similar) == 0 || similar[len(similar)-1] != ref {
				similar = append(similar, ref)
			}
		}
	}

	switch {
	case columnsOnly:
		return false, "only column lineage is recorded; try without --table-level"
	case len(similar) > 0:
		return false, "did you mean " + strings.Join(similar, ", ") + "?"
	default:
		return false, ""
	}
}

func notFoundMessage(table, hint string) string {
	msg := fmt.Sprintf("table %s not found in lineage graph", table)
	if hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}
