package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/config"
)

var (
	initProvider       string
	initBackend        string
	initRoots          []string
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the codescout configuration",
	Long: `Initialize codescout by creating the state directory with configuration.

This command will:
- Create config.yaml in ~/.codescout (or $CODESCOUT_HOME)
- Prompt for the embedding provider (Ollama, OpenAI, or hash)
- Prompt for the storage backend (GOB file, PostgreSQL, or Qdrant)
- Prompt for the root directories to scan for projects`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initProvider, "provider", "p", "", "Embedding provider (ollama, openai, or hash)")
	initCmd.Flags().StringVarP(&initBackend, "backend", "b", "", "Storage backend (gob, postgres, or qdrant)")
	initCmd.Flags().StringSliceVar(&initRoots, "root", nil, "Root directory to scan (repeatable)")
	initCmd.Flags().BoolVar(&initNonInteractive, "yes", false, "Use defaults without prompting")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	baseDir, err := config.BaseDir()
	if err != nil {
		return fmt.Errorf("failed to resolve state directory: %w", err)
	}

	if config.Exists(baseDir) {
		fmt.Println("codescout is already initialized.")
		fmt.Printf("Configuration: %s\n", config.GetConfigPath(baseDir))
		return nil
	}

	cfg := config.DefaultConfig()
	if len(initRoots) > 0 {
		cfg.Roots = initRoots
	}

	if !initNonInteractive {
		reader := bufio.NewReader(os.Stdin)

		if initProvider == "" {
			fmt.Println("\nSelect embedding provider:")
			fmt.Println("  1) ollama (local, privacy-first, requires Ollama running)")
			fmt.Println("  2) openai (cloud, requires API key)")
			fmt.Println("  3) hash (offline, deterministic, no semantic quality)")
			fmt.Print("Choice [1]: ")

			input, _ := reader.ReadString('\n')
			input = strings.TrimSpace(input)

			switch input {
			case "2", "openai":
				cfg.Embedder.Provider = "openai"
				cfg.Embedder.Model = "text-embedding-3-small"
				cfg.Embedder.Endpoint = "https://api.openai.com/v1"
			case "3", "hash":
				cfg.Embedder.Provider = "hash"
			default:
				cfg.Embedder.Provider = "ollama"
				fmt.Print("Ollama endpoint [http://localhost:11434]: ")
				endpoint, _ := reader.ReadString('\n')
				endpoint = strings.TrimSpace(endpoint)
				if endpoint == "" {
					endpoint = "http://localhost:11434"
				}
				cfg.Embedder.Endpoint = endpoint
			}
		} else {
			applyProvider(cfg, initProvider)
		}

		if initBackend == "" {
			fmt.Println("\nSelect storage backend:")
			fmt.Println("  1) gob (local file, recommended)")
			fmt.Println("  2) postgres (pgvector, for large machines or shared index)")
			fmt.Println("  3) qdrant (Docker-based vector database)")
			fmt.Print("Choice [1]: ")

			input, _ := reader.ReadString('\n')
			input = strings.TrimSpace(input)

			switch input {
			case "2", "postgres":
				cfg.Store.Backend = "postgres"
				fmt.Print("PostgreSQL DSN: ")
				dsn, _ := reader.ReadString('\n')
				cfg.Store.Postgres.DSN = strings.TrimSpace(dsn)
			case "3", "qdrant":
				cfg.Store.Backend = "qdrant"
				fmt.Print("Qdrant endpoint [localhost]: ")
				endpoint, _ := reader.ReadString('\n')
				endpoint = strings.TrimSpace(endpoint)
				if endpoint == "" {
					endpoint = "localhost"
				}
				cfg.Store.Qdrant.Endpoint = endpoint

				fmt.Print("Qdrant port [6334]: ")
				port, _ := reader.ReadString('\n')
				port = strings.TrimSpace(port)
				if port != "" {
					var portInt int
					if _, err := fmt.Sscanf(port, "%d", &portInt); err != nil {
						return fmt.Errorf("invalid port number: %w", err)
					}
					cfg.Store.Qdrant.Port = portInt
				}

				fmt.Print("API key (optional, for Qdrant Cloud): ")
				apiKey, _ := reader.ReadString('\n')
				cfg.Store.Qdrant.APIKey = strings.TrimSpace(apiKey)
			default:
				cfg.Store.Backend = "gob"
			}
		} else {
			cfg.Store.Backend = initBackend
		}

		if len(initRoots) == 0 {
			fmt.Printf("\nScan roots [%s]: ", strings.Join(cfg.Roots, ", "))
			input, _ := reader.ReadString('\n')
			input = strings.TrimSpace(input)
			if input != "" {
				var roots []string
				for _, r := range strings.Split(input, ",") {
					r = strings.TrimSpace(r)
					if r != "" {
						roots = append(roots, r)
					}
				}
				if len(roots) > 0 {
					cfg.Roots = roots
				}
			}
		}
	} else {
		if initProvider != "" {
			applyProvider(cfg, initProvider)
		}
		if initBackend != "" {
			cfg.Store.Backend = initBackend
		}
	}

	if err := cfg.Save(baseDir); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("\nCreated configuration at %s\n", config.GetConfigPath(baseDir))

	fmt.Println("\ncodescout initialized successfully!")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Find your projects:       codescout discover")
	fmt.Println("  2. Start the background service: codescout watch")
	fmt.Println("  3. Search your code:         codescout search \"your query\"")

	switch cfg.Embedder.Provider {
	case "ollama":
		fmt.Println("\nMake sure Ollama is running with the nomic-embed-text model:")
		fmt.Println("  ollama pull nomic-embed-text")
	case "openai":
		fmt.Println("\nMake sure OPENAI_API_KEY is set in your environment.")
	}

	return nil
}

func applyProvider(cfg *config.Config, provider string) {
	cfg.Embedder.Provider = provider
	switch provider {
	case "openai":
		cfg.Embedder.Model = "text-embedding-3-small"
		cfg.Embedder.Endpoint = "https://api.openai.com/v1"
		cfg.Embedder.Dimensions = nil
	case "hash":
		cfg.Embedder.Model = ""
		cfg.Embedder.Endpoint = ""
	}
}
