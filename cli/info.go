package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/git"
	"github.com/codescout-dev/codescout/language"
)

var infoCmd = &cobra.Command{
	Use:   "info <project-path>",
	Short: "Show details for one registered project",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	ctx := context.Background()

	svc, _, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	p, ok := svc.Get(path)
	if !ok {
		return fmt.Errorf("%s is not registered (run 'codescout discover' first)", path)
	}

	fmt.Printf("Name:     %s\n", p.Name)
	fmt.Printf("Path:     %s\n", p.Path)
	fmt.Printf("Language: %s\n", p.Language)
	if p.IDE != "" && p.IDE != language.IDENone {
		fmt.Printf("IDE:      %s\n", p.IDE)
	}
	if len(p.Indicators) > 0 {
		fmt.Printf("Markers:  %v\n", p.Indicators)
	}

	fmt.Printf("\nIndex status: %s\n", p.IndexStatus)
	if p.LastIndexed != nil {
		fmt.Printf("Last indexed: %s\n", p.LastIndexed.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Symbols: %d  Tests: %d  Doc chunks: %d\n", p.SymbolCount, p.TestCount, p.DocCount)
	if p.LastError != "" {
		fmt.Printf("Last error: %s\n", p.LastError)
	}

	if p.HasGit {
		if repo, err := git.Info(p.Path); err == nil {
			fmt.Printf("\nGit branch: %s", repo.Branch)
			if repo.Dirty {
				fmt.Print(" (dirty)")
			}
			fmt.Println()
			if repo.Remote != "" {
				fmt.Printf("Git remote: %s\n", repo.Remote)
			}
		}
	}

	return nil
}
