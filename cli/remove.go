package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/registry"
)

var removeCmd = &cobra.Command{
	Use:   "remove <project-path>",
	Short: "Unregister a project and delete its index documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	if err := svc.Remove(ctx, path); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%s is not registered", path)
		}
		return err
	}

	fmt.Printf("Removed %s from the registry and index\n", path)
	return nil
}
