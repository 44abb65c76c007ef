package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/language"
	"github.com/codescout-dev/codescout/registry"
)

var (
	listLanguage string
	listStatus   string
	listIDE      string
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listLanguage, "language", "l", "", "Filter by language (go, python, rust, ...)")
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Filter by index status (pending, indexing, completed, failed)")
	listCmd.Flags().StringVar(&listIDE, "ide", "", "Filter by IDE marker (jetbrains, vscode)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, _, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	projects := svc.List(registry.Filter{
		Language: language.Language(listLanguage),
		Status:   registry.Status(listStatus),
		IDE:      language.IDE(listIDE),
	})

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(projects)
	}

	if len(projects) == 0 {
		fmt.Println("No projects registered. Run 'codescout discover' first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLANGUAGE\tSTATUS\tSYMBOLS\tTESTS\tDOCS\tPATH")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			p.Name, p.Language, p.IndexStatus, p.SymbolCount, p.TestCount, p.DocCount, p.Path)
	}
	return w.Flush()
}
