package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *state.Store
	Renderer *output.Renderer
}

// NewCommandContext opens and migrates the catalog store and creates a renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	cmdCtx.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a catalog.
// Useful for commands that don't need database access.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewGraph creates an empty lineage graph over the context's store.
func (c *CommandContext) NewGraph() *lineage.Graph {
	return lineage.New(c.Store,
		lineage.WithName(c.Cfg.GraphName),
		lineage.WithLogger(c.Logger),
	)
}

// LoadGraph creates a lineage graph and hydrates it from the catalog.
func (c *CommandContext) LoadGraph(cmd *cobra.Command) (*lineage.Graph, error) {
	g := c.NewGraph()
	if err := g.Load(cmd.Context()); err != nil {
		return nil, fmt.Errorf("failed to load lineage graph: %w", err)
	}
	return g, nil
}

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.Store, error) {
	driver, err := state.ParseDriver(cfg.Catalog.Driver)
	if err != nil {
		return nil, err
	}

	// Ensure catalog directory exists
	if driver == state.DriverSQLite && cfg.Catalog.DSN != ":memory:" {
		dir := filepath.Dir(cfg.Catalog.DSN)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create catalog directory: %w", err)
			}
		}
	}

	store := state.NewStore(driver, state.WithLogger(logger))
	if err := store.Open(cfg.Catalog.DSN); err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return store, nil
}
