package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/language"
	"github.com/codescout-dev/codescout/scanner"
)

var (
	discoverMode     string
	discoverMaxDepth int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan the configured roots for projects",
	Long: `Scan the configured root directories and register every project found.

Targeted mode checks the well-known project directories only; exhaustive
mode walks each root recursively up to the configured depth. A targeted
scan that finds nothing automatically falls back to exhaustive.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverMode, "mode", "m", "", "Scan mode (targeted or exhaustive)")
	discoverCmd.Flags().IntVarP(&discoverMaxDepth, "max-depth", "d", 0, "Recursion depth for exhaustive scans")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, _, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	result, err := svc.Discover(ctx, scanner.Mode(discoverMode), discoverMaxDepth)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	fmt.Printf("Scanned in %s mode: %d project(s) found, %d new\n", result.Mode, result.Found, result.New)
	for _, p := range result.Projects {
		ide := ""
		if p.IDE != "" && p.IDE != language.IDENone {
			ide = fmt.Sprintf("  [%s]", p.IDE)
		}
		fmt.Printf("  %-10s %s%s\n", p.Language, p.Path, ide)
	}

	if len(result.Skipped) > 0 {
		fmt.Printf("\nSkipped %d path(s):\n", len(result.Skipped))
		for _, s := range result.Skipped {
			fmt.Printf("  %s (%s)\n", s.Path, s.Reason)
		}
	}

	if result.New > 0 {
		fmt.Println("\nRun 'codescout reindex --all' to index the new projects,")
		fmt.Println("or 'codescout watch' to keep everything indexed automatically.")
	}

	return nil
}
