package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <project-path>",
	Short: "Register a single project directory",
	Long: `Register one directory as a project without scanning the configured
roots. The directory must contain a recognizable manifest or source
files.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
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

	p, err := svc.Add(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s (%s) at %s\n", p.Name, p.Language, p.Path)
	fmt.Printf("Run 'codescout reindex %s' to index it.\n", p.Path)
	return nil
}
