package commands

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/internal/state"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the leaplineage release and supported catalog drivers",
		Long: `Print the leaplineage release, followed by the catalog drivers this
build can store lineage edges in.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "leaplineage v%s\n", version)
			_, _ = fmt.Fprintln(out, "Column-level data lineage graphs")
			_, _ = fmt.Fprintf(out, "Catalog drivers: %s, %s\n", state.DriverSQLite, state.DriverPostgres)
		},
	}
}
