// Package cli implements the codescout command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/config"
	"github.com/codescout-dev/codescout/embedder"
	"github.com/codescout-dev/codescout/registry"
	"github.com/codescout-dev/codescout/service"
	"github.com/codescout-dev/codescout/store"
)

var rootCmd = &cobra.Command{
	Use:   "codescout",
	Short: "Discover and index the source projects on your machine",
	Long: `codescout keeps a registry of the source-code projects on your machine
and maintains a searchable semantic index of their symbols, tests, and
documentation.

Run 'codescout init' once to create the configuration, then
'codescout discover' to populate the registry and 'codescout watch'
to keep the index fresh.`,
	Version:      Version,
	SilenceUsage: true,
}

// Version is the release version, overridable at build time with
// -ldflags "-X github.com/codescout-dev/codescout/cli.Version=...".
var Version = "0.1.0"

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildService constructs the full service stack from the state
// directory: configuration, registry, vector store, and embedder.
// The caller owns the returned service and must Close it.
func buildService(ctx context.Context) (*service.Service, string, error) {
	baseDir, err := config.BaseDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve state directory: %w", err)
	}

	cfg, err := config.LoadOrDefault(baseDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}

	reg := registry.New(config.GetRegistryPath(baseDir))
	if err := reg.Load(); err != nil {
		return nil, "", fmt.Errorf("failed to load registry: %w", err)
	}

	st, err := store.NewFromConfig(ctx, cfg, baseDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create vector store: %w", err)
	}
	if err := st.Load(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to load index: %w", err)
	}

	emb, err := embedder.NewFromConfig(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create embedder: %w", err)
	}

	return service.New(cfg, reg, st, emb), baseDir, nil
}
