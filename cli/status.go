package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry and index statistics",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, baseDir, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	stats := svc.Stats(ctx)

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("State directory: %s\n\n", baseDir)

	fmt.Printf("Projects: %d\n", stats.Registry.Total)
	for status, n := range stats.Registry.ByStatus {
		fmt.Printf("  %-10s %d\n", status, n)
	}
	fmt.Printf("Symbols: %d  Tests: %d  Doc chunks: %d\n",
		stats.Registry.Symbols, stats.Registry.Tests, stats.Registry.DocChunks)

	if stats.Store != nil {
		fmt.Printf("\nIndex: %d document(s)\n", stats.Store.TotalDocuments)
		for docType, n := range stats.Store.ByType {
			fmt.Printf("  %-10s %d\n", docType, n)
		}
		if stats.Store.StoreSize > 0 {
			fmt.Printf("  size: %.1f KB\n", float64(stats.Store.StoreSize)/1024)
		}
	}

	fmt.Printf("\nBatch in flight: %v\n", stats.Indexer.BatchInFlight)
	fmt.Printf("Schedule running: %v\n", stats.Indexer.ScheduleRunning)
	fmt.Printf("Watched projects: %d\n", stats.Watchers.Watched)

	return nil
}
