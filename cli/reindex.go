package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/registry"
)

var reindexAll bool

var reindexCmd = &cobra.Command{
	Use:   "reindex [project-path]",
	Short: "Re-index a project or every stale project",
	Long: `Re-index a single registered project, or with --all run a batch pass
over every project whose index is stale.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexAll, "all", false, "Re-index every stale project")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	if reindexAll == (len(args) > 0) {
		return fmt.Errorf("provide a project path or --all, not both")
	}

	ctx := context.Background()

	svc, _, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	if reindexAll {
		stats := svc.ReindexAll(ctx)
		if stats == nil {
			fmt.Println("A batch is already in flight; nothing to do.")
			return nil
		}
		fmt.Printf("Batch finished in %s: %d selected, %d succeeded, %d failed\n",
			stats.Duration.Round(time.Millisecond), stats.Selected, stats.Succeeded, stats.Failed)
		return nil
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := svc.Reindex(ctx, path); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%s is not registered (run 'codescout discover' first)", path)
		}
		return fmt.Errorf("reindex failed: %w", err)
	}

	p, _ := svc.Get(path)
	fmt.Printf("Indexed %s: %d symbols, %d tests, %d doc chunks\n",
		p.Name, p.SymbolCount, p.TestCount, p.DocCount)
	return nil
}
