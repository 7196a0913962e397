package commands

import (
	"encoding/json"
	"time"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/spf13/cobra"
)

// edgeJSON is the JSON shape of a persisted edge.
type edgeJSON struct {
	ID        string       `json:"id"`
	Source    string       `json:"source"`
	Target    string       `json:"target"`
	Payload   core.Payload `json:"payload,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewEdgesCommand creates the edges command.
func NewEdgesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edges",
		Short: "List edges stored in the catalog",
		Long: `List every lineage edge stored in the catalog, oldest first.

Use --output to override: auto, text, markdown, json`,
		Example: `  # List edges
  leaplineage edges

  # List edges as JSON
  leaplineage edges --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEdges(cmd)
		},
	}

	return cmd
}

func runEdges(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	edges, err := cmdCtx.Store.GetColumnEdges(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]edgeJSON, len(edges))
		for i, e := range edges {
			out[i] = edgeJSON{
				ID:        e.ID,
				Source:    e.Source.String(),
				Target:    e.Target.String(),
				Payload:   e.Payload,
				CreatedAt: e.CreatedAt,
			}
		}
		return r.JSON(out)
	}

	rows := make([][]string, len(edges))
	for i, e := range edges {
		rows[i] = []string{e.Source.String(), e.Target.String(), formatPayload(e.Payload)}
	}
	r.Header(1, "Catalog edges")
	r.Table([]string{"Source", "Target", "Payload"}, rows)
	return nil
}

func formatPayload(p core.Payload) string {
	if len(p) == 0 {
		return ""
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "<invalid>"
	}
	return string(data)
}
