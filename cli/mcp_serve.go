package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/mcp"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Start codescout as an MCP server",
	Long: `Start codescout as an MCP (Model Context Protocol) server.

This allows AI agents to use codescout as a native tool through the MCP
protocol. The server communicates via stdio and exposes the following
tools:

  - codescout_discover: Scan the configured roots for projects
  - codescout_projects: List registered projects with filters
  - codescout_add:      Register a single project directory
  - codescout_remove:   Unregister a project and delete its documents
  - codescout_reindex:  Re-index one project or every stale one
  - codescout_status:   Registry, index, and scheduler statistics
  - codescout_search:   Semantic search over symbols, tests, and docs
  - codescout_watch:    Start or stop the file watchers
  - codescout_schedule: Start or stop the periodic re-index schedule

Configuration for Claude Code:
  claude mcp add codescout -- codescout mcp-serve

Configuration for Cursor (.cursor/mcp.json):
  {
    "mcpServers": {
      "codescout": {
        "command": "codescout",
        "args": ["mcp-serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	rootCmd.AddCommand(mcpServeCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, _, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	srv := mcp.NewServer(svc)
	if err := srv.Serve(); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
