package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/spf13/cobra"
)

// LayoutOptions holds options for the layout command.
type LayoutOptions struct {
	TableLevel bool
}

// layoutJSON is the renderer-facing JSON shape of a layout.
type layoutJSON struct {
	Name      string             `json:"name"`
	Phases    [][]string         `json:"phases"`
	Positions []positionJSON     `json:"positions"`
	Edges     []positionEdgeJSON `json:"edges"`
}

type positionJSON struct {
	Node       string `json:"node"`
	Generation int    `json:"generation"`
	Rank       int    `json:"rank"`
}

type positionEdgeJSON struct {
	Source string           `json:"source"`
	Target string           `json:"target"`
	From   lineage.Position `json:"from"`
	To     lineage.Position `json:"to"`
}

// NewLayoutCommand creates the layout command.
func NewLayoutCommand() *cobra.Command {
	opts := &LayoutOptions{}

	cmd := &cobra.Command{
		Use:   "layout <table>",
		Short: "Compute grid positions for a table's lineage",
		Long: `Extract the upstream lineage of a table and arrange it in phases.

Each node gets a generation (its column, sources first) and a rank (its row
within the generation). Renderers consume the JSON output.

Layout fails if the lineage contains a cycle.`,
		Example: `  # Show positions
  leaplineage layout analytics.order_facts

  # Positions for a renderer
  leaplineage layout analytics.order_facts --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.TableLevel, "table-level", false, "Follow edges of the table node instead of its columns")

	return cmd
}

func runLayout(cmd *cobra.Command, arg string, opts *LayoutOptions) error {
	table, err := core.ParseTableRef(arg)
	if err != nil {
		return err
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

	r := cmdCtx.Renderer
	if found, hint := lookupTable(g, table, opts.TableLevel); !found {
		r.Warning(notFoundMessage(table.String(), hint))
	}

	var sub *lineage.Graph
	if opts.TableLevel {
		sub = g.SubGraph(core.TableNode(table))
	} else {
		sub = g.SubGraphs(table)
	}

	layout, err := sub.Layout()
	if err != nil {
		return fmt.Errorf("cannot lay out %s: %w", sub.Name(), err)
	}

	res := toLayoutJSON(sub.Name(), layout)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	r.Header(1, res.Name)
	rows := make([][]string, len(res.Positions))
	for i, p := range res.Positions {
		rows[i] = []string{strconv.Itoa(p.Generation), strconv.Itoa(p.Rank), p.Node}
	}
	r.Table([]string{"Generation", "Rank", "Node"}, rows)

	if len(res.Phases) > 0 {
		phases := make([]string, len(res.Phases))
		for i, phase := range res.Phases {
			phases[i] = fmt.Sprintf("[%s]", strings.Join(phase, ", "))
		}
		r.Muted(strings.Join(phases, " -> "))
	}
	return nil
}

// toLayoutJSON flattens a layout in generation, rank order.
func toLayoutJSON(name string, layout *lineage.Layout) layoutJSON {
	res := layoutJSON{
		Name:      name,
		Phases:    make([][]string, len(layout.Phases)),
		Positions: []positionJSON{},
		Edges:     make([]positionEdgeJSON, len(layout.Edges)),
	}
	for gen, phase := range layout.Phases {
		res.Phases[gen] = make([]string, len(phase))
		for rank, n := range phase {
			res.Phases[gen][rank] = n.String()
			res.Positions = append(res.Positions, positionJSON{Node: n.String(), Generation: gen, Rank: rank})
		}
	}
	for i, e := range layout.Edges {
		res.Edges[i] = positionEdgeJSON{
			Source: e.Source.String(),
			Target: e.Target.String(),
			From:   e.From,
			To:     e.To,
		}
	}
	return res
}
