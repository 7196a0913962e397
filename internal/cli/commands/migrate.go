package commands

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the catalog schema",
		Long: `Apply pending catalog migrations and report the schema version.

Other commands migrate the catalog automatically; run this to prepare a
shared PostgreSQL catalog ahead of time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd)
		},
	}

	return cmd
}

func runMigrate(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	version, err := cmdCtx.Store.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"driver":  string(cmdCtx.Store.Driver()),
			"version": version,
		})
	}
	r.Success(fmt.Sprintf("Catalog schema at version %d (%s)", version, cmdCtx.Store.Driver()))
	return nil
}
