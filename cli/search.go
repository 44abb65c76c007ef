package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/language"
	"github.com/codescout-dev/codescout/store"
)

var (
	searchLimit    int
	searchJSON     bool
	searchTOON     bool
	searchType     string
	searchLanguage string
	searchProject  string
)

// SearchResultJSON is a lightweight struct for machine output (excludes vector)
type SearchResultJSON struct {
	Project  string  `json:"project"`
	File     string  `json:"file"`
	Line     int     `json:"line"`
	Type     string  `json:"type"`
	Symbol   string  `json:"symbol,omitempty"`
	Language string  `json:"language"`
	Score    float32 `json:"score"`
	Text     string  `json:"text"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index with natural language",
	Long: `Search the symbol, test, and documentation index using natural
language queries.

The search will:
- Vectorize your query using the configured embedding provider
- Calculate cosine similarity against indexed documents
- Return the most relevant results with project, file, and score`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results to return")
	searchCmd.Flags().BoolVarP(&searchJSON, "json", "j", false, "Output results in JSON format (for AI agents)")
	searchCmd.Flags().BoolVarP(&searchTOON, "toon", "t", false, "Output results in TOON format (token-efficient for AI agents)")
	searchCmd.Flags().StringVar(&searchType, "type", "", "Restrict to a document type (symbol, test, or doc)")
	searchCmd.Flags().StringVarP(&searchLanguage, "language", "l", "", "Restrict to a language (go, python, rust, ...)")
	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "Restrict to one project path")
	searchCmd.MarkFlagsMutuallyExclusive("json", "toon")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	var filter *store.Filter
	if searchType != "" || searchLanguage != "" || searchProject != "" {
		switch searchType {
		case "", string(store.TypeSymbol), string(store.TypeTest), string(store.TypeDoc):
		default:
			return fmt.Errorf("invalid type %q (must be symbol, test, or doc)", searchType)
		}
		filter = &store.Filter{
			Type:        store.DocType(searchType),
			Language:    language.Language(searchLanguage),
			ProjectPath: searchProject,
		}
	}

	svc, _, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	results, err := svc.Search(ctx, query, searchLimit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON || searchTOON {
		out := make([]SearchResultJSON, len(results))
		for i, r := range results {
			m := r.Document.Metadata
			out[i] = SearchResultJSON{
				Project:  m.ProjectName,
				File:     m.File,
				Line:     m.Line,
				Type:     string(m.Type),
				Symbol:   m.Symbol,
				Language: string(m.Language),
				Score:    r.Score,
				Text:     r.Document.Text,
			}
		}
		if searchTOON {
			encoded, err := gotoon.Encode(out)
			if err != nil {
				return fmt.Errorf("failed to encode results: %w", err)
			}
			fmt.Println(encoded)
			return nil
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %q\n\n", len(results), query)

	for i, r := range results {
		m := r.Document.Metadata
		fmt.Printf("─── Result %d (score: %.4f) ───\n", i+1, r.Score)
		fmt.Printf("Project: %s (%s)\n", m.ProjectName, m.Language)
		if m.Line > 0 {
			fmt.Printf("File: %s:%d\n", m.File, m.Line)
		} else {
			fmt.Printf("File: %s\n", m.File)
		}
		fmt.Printf("[%s] %s\n\n", m.Type, r.Document.Text)
	}

	return nil
}
