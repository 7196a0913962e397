package commands

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/loader"
	"github.com/spf13/cobra"
)

// IngestOptions holds options for the ingest command.
type IngestOptions struct {
	DryRun bool
}

// ingestResult is the JSON shape of the ingest command.
type ingestResult struct {
	Graph    string `json:"graph"`
	Files    int    `json:"files"`
	Triples  int    `json:"triples"`
	Created  int    `json:"created"`
	Existing int    `json:"existing"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Add lineage edges from edge files to the catalog",
		Long: `Read lineage triples from one or more YAML or JSON edge files and add
them to the catalog. Edges that already exist keep their original payload.

Edge file format:
  edges:
    - source: raw.orders.amount
      target: analytics.order_facts.revenue
      payload:
        statement: insert into analytics.order_facts ...`,
		Example: `  # Ingest extractor output
  leaplineage ingest lineage/*.yaml

  # Validate files without writing to the catalog
  leaplineage ingest lineage/orders.yaml --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Parse edge files without writing to the catalog")

	return cmd
}

func runIngest(cmd *cobra.Command, files []string, opts *IngestOptions) error {
	triples, err := loader.LoadEdgeFiles(cmd.Context(), files)
	if err != nil {
		return err
	}

	if opts.DryRun {
		r := NewCommandContextWithoutStore(cmd).Renderer
		r.Success(fmt.Sprintf("Parsed %d edges from %d files", len(triples), len(files)))
		return nil
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

	stats, err := g.Ingest(cmd.Context(), triples)
	if err != nil {
		return fmt.Errorf("ingest stopped after %d edges: %w", stats.Created+stats.Existing, err)
	}
	cmdCtx.Logger.Info("ingested edge files", "files", len(files), "created", stats.Created, "existing", stats.Existing)

	result := ingestResult{
		Graph:    g.Name(),
		Files:    len(files),
		Triples:  len(triples),
		Created:  stats.Created,
		Existing: stats.Existing,
		Nodes:    g.NodeCount(),
		Edges:    g.EdgeCount(),
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(result)
	}
	r.Success(fmt.Sprintf("Ingested %d edges from %d files (%d new, %d existing)",
		result.Triples, result.Files, result.Created, result.Existing))
	r.Muted(fmt.Sprintf("%s now holds %d nodes and %d edges", result.Graph, result.Nodes, result.Edges))
	return nil
}
