// Package mcp exposes the project registry and index over the Model
// Context Protocol so AI agents can query discovered projects natively.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codescout-dev/codescout/language"
	"github.com/codescout-dev/codescout/registry"
	"github.com/codescout-dev/codescout/scanner"
	"github.com/codescout-dev/codescout/service"
	"github.com/codescout-dev/codescout/store"
)

// Server wraps the MCP server around a running Service.
type Server struct {
	mcpServer *server.MCPServer
	svc       *service.Service
}

// ProjectSummary is a lightweight struct for MCP output.
type ProjectSummary struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	IDE         string `json:"ide,omitempty"`
	HasGit      bool   `json:"has_git"`
	IndexStatus string `json:"index_status"`
	LastIndexed string `json:"last_indexed,omitempty"`
	Symbols     int    `json:"symbols"`
	Tests       int    `json:"tests"`
	DocChunks   int    `json:"doc_chunks"`
	LastError   string `json:"last_error,omitempty"`
}

// SearchHit is a lightweight struct for MCP search output.
type SearchHit struct {
	Score       float32 `json:"score"`
	Type        string  `json:"type"`
	ProjectPath string  `json:"project_path"`
	File        string  `json:"file"`
	Line        int     `json:"line"`
	Symbol      string  `json:"symbol,omitempty"`
	Text        string  `json:"text"`
}

// encodeOutput encodes data in the specified format (json or toon).
func encodeOutput(data any, format string) (string, error) {
	switch format {
	case "toon":
		return gotoon.Encode(data)
	default: // "json"
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(jsonBytes), nil
	}
}

func validateFormat(format string) error {
	if format != "json" && format != "toon" {
		return fmt.Errorf("format must be 'json' or 'toon'")
	}
	return nil
}

// NewServer creates a new MCP server over the given service.
func NewServer(svc *service.Service) *Server {
	s := &Server{svc: svc}

	s.mcpServer = server.NewMCPServer(
		"codescout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// registerTools registers all codescout tools with the MCP server.
func (s *Server) registerTools() {
	discoverTool := mcp.NewTool("codescout_discover",
		mcp.WithDescription("Scan the configured roots for source-code projects and register them. Returns the projects found, including newly discovered ones."),
		mcp.WithString("mode",
			mcp.Description("Scan mode: 'targeted' (IDE-marked directories only, falls back to exhaustive) or 'exhaustive' (full bounded walk). Default: configured mode."),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Recursion bound for exhaustive scans (default: configured depth)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(discoverTool, s.handleDiscover)

	projectsTool := mcp.NewTool("codescout_projects",
		mcp.WithDescription("List registered projects with their index state. Supports filtering by language, index status, and IDE."),
		mcp.WithString("language",
			mcp.Description("Filter by project language (e.g., 'go', 'python', 'mixed')"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by index status: pending, indexing, completed, failed"),
		),
		mcp.WithString("ide",
			mcp.Description("Filter by detected IDE: jetbrains, vscode, multiple, none"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(projectsTool, s.handleProjects)

	reindexTool := mcp.NewTool("codescout_reindex",
		mcp.WithDescription("Re-index one registered project immediately, or run a batch over every project needing work."),
		mcp.WithString("path",
			mcp.Description("Project path to re-index. Omit to run a full batch."),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(reindexTool, s.handleReindex)

	statusTool := mcp.NewTool("codescout_status",
		mcp.WithDescription("Report service health: registry aggregates, index store statistics, scheduler and watcher state."),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(statusTool, s.handleStatus)

	searchTool := mcp.NewTool("codescout_search",
		mcp.WithDescription("Semantic search over indexed symbols, tests, and documentation across all registered projects. Returns the most similar documents with file locations and scores."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query (e.g., 'http retry logic', 'config parsing tests')"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
		mcp.WithString("type",
			mcp.Description("Filter by document type: symbol, test, doc"),
		),
		mcp.WithString("language",
			mcp.Description("Filter by project language"),
		),
		mcp.WithString("project",
			mcp.Description("Filter by project path"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearch)

	watchTool := mcp.NewTool("codescout_watch",
		mcp.WithDescription("Start or stop filesystem watchers. While running, file activity in a project triggers a debounced re-index of that project."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("'start' or 'stop'"),
		),
	)
	s.mcpServer.AddTool(watchTool, s.handleWatch)

	addTool := mcp.NewTool("codescout_add",
		mcp.WithDescription("Register a single directory as a project without a full scan. The directory must contain a recognizable manifest or source files."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the project directory to register"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(addTool, s.handleAdd)

	removeTool := mcp.NewTool("codescout_remove",
		mcp.WithDescription("Unregister a project and delete its documents from the index. Projects are never removed automatically."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project to remove"),
		),
	)
	s.mcpServer.AddTool(removeTool, s.handleRemove)

	scheduleTool := mcp.NewTool("codescout_schedule",
		mcp.WithDescription("Start or stop the periodic index schedule (hourly batch plus the daily documentation refresh)."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("'start' or 'stop'"),
		),
	)
	s.mcpServer.AddTool(scheduleTool, s.handleSchedule)
}

func (s *Server) handleDiscover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "json")
	if err := validateFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mode := scanner.Mode(request.GetString("mode", ""))
	maxDepth := request.GetInt("max_depth", 0)

	res, err := s.svc.Discover(ctx, mode, maxDepth)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("discover failed: %v", err)), nil
	}

	output, err := encodeOutput(res, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "json")
	if err := validateFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filter := registry.Filter{
		Language: language.Language(request.GetString("language", "")),
		Status:   registry.Status(request.GetString("status", "")),
		IDE:      language.IDE(request.GetString("ide", "")),
	}

	projects := s.svc.List(filter)
	summaries := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = summarize(p)
	}

	output, err := encodeOutput(summaries, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "json")
	if err := validateFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path := request.GetString("path", "")
	if path == "" {
		stats := s.svc.ReindexAll(ctx)
		if stats == nil {
			return mcp.NewToolResultText("a batch is already in flight"), nil
		}
		output, err := encodeOutput(stats, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	}

	if err := s.svc.Reindex(ctx, path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reindex failed: %v", err)), nil
	}

	meta, _ := s.svc.Get(path)
	output, err := encodeOutput(summarize(meta), format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	format := request.GetString("format", "json")
	if err := validateFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	meta, err := s.svc.Add(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add failed: %v", err)), nil
	}

	output, err := encodeOutput(summarize(meta), format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	if err := s.svc.Remove(ctx, path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("remove failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed %s from the registry and index", path)), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "json")
	if err := validateFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	output, err := encodeOutput(s.svc.Stats(ctx), format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	format := request.GetString("format", "json")
	if err := validateFormat(format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	docType := request.GetString("type", "")
	switch docType {
	case "", string(store.TypeSymbol), string(store.TypeTest), string(store.TypeDoc):
	default:
		return mcp.NewToolResultError("type must be 'symbol', 'test', or 'doc'"), nil
	}

	filter := &store.Filter{
		Type:        store.DocType(docType),
		Language:    language.Language(request.GetString("language", "")),
		ProjectPath: request.GetString("project", ""),
	}

	results, err := s.svc.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{
			Score:       r.Score,
			Type:        string(r.Document.Metadata.Type),
			ProjectPath: r.Document.Metadata.ProjectPath,
			File:        r.Document.Metadata.File,
			Line:        r.Document.Metadata.Line,
			Symbol:      r.Document.Metadata.Symbol,
			Text:        r.Document.Text,
		}
	}

	output, err := encodeOutput(hits, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleWatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action parameter is required"), nil
	}

	switch action {
	case "start":
		s.svc.StartWatchers(ctx)
	case "stop":
		s.svc.StopWatchers()
	default:
		return mcp.NewToolResultError("action must be 'start' or 'stop'"), nil
	}

	status := s.svc.Stats(ctx).Watchers
	output, err := encodeOutput(status, "json")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action parameter is required"), nil
	}

	switch action {
	case "start":
		s.svc.StartSchedule(ctx)
	case "stop":
		s.svc.StopSchedule()
	default:
		return mcp.NewToolResultError("action must be 'start' or 'stop'"), nil
	}

	stats := s.svc.Stats(ctx).Indexer
	output, err := encodeOutput(stats, "json")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func summarize(p registry.ProjectMetadata) ProjectSummary {
	summary := ProjectSummary{
		Path:        p.Path,
		Name:        p.Name,
		Language:    string(p.Language),
		IDE:         string(p.IDE),
		HasGit:      p.HasGit,
		IndexStatus: string(p.IndexStatus),
		Symbols:     p.SymbolCount,
		Tests:       p.TestCount,
		DocChunks:   p.DocCount,
		LastError:   p.LastError,
	}
	if p.LastIndexed != nil {
		summary.LastIndexed = p.LastIndexed.Format("2006-01-02 15:04:05")
	}
	return summary
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}
