package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigDir        = ".codescout"
	ConfigFileName   = "config.yaml"
	RegistryFileName = "registry.json"
	IndexFileName    = "index.gob"
)

type Config struct {
	Version  int            `yaml:"version"`
	Roots    []string       `yaml:"roots"`
	Scan     ScanConfig     `yaml:"scan"`
	Watch    WatchConfig    `yaml:"watch"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Store    StoreConfig    `yaml:"store"`
	Embedder EmbedderConfig `yaml:"embedder"`
}

type ScanConfig struct {
	Mode     string `yaml:"mode"`      // targeted | exhaustive
	MaxDepth int    `yaml:"max_depth"` // recursion bound for exhaustive scans
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type ScheduleConfig struct {
	IndexIntervalMinutes int  `yaml:"index_interval_minutes"`
	IndexTimeoutMinutes  int  `yaml:"index_timeout_minutes"`
	DocsIntervalHours    int  `yaml:"docs_interval_hours"`
	DocsDeepWeekly       bool `yaml:"docs_deep_weekly"` // clear doc namespace before the weekly pass
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"` // gob | postgres | qdrant
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type QdrantConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	UseTLS     bool   `yaml:"use_tls,omitempty"`
}

type EmbedderConfig struct {
	Provider   string `yaml:"provider"` // ollama | openai | hash
	Model      string `yaml:"model"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Dimensions *int   `yaml:"dimensions,omitempty"`
}

// GetDimensions returns the configured dimensions or the provider default.
func (e *EmbedderConfig) GetDimensions() int {
	if e.Dimensions != nil {
		return *e.Dimensions
	}
	switch e.Provider {
	case "openai":
		return 1536
	default:
		return 768
	}
}

func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

func (s ScheduleConfig) IndexInterval() time.Duration {
	return time.Duration(s.IndexIntervalMinutes) * time.Minute
}

func (s ScheduleConfig) IndexTimeout() time.Duration {
	return time.Duration(s.IndexTimeoutMinutes) * time.Minute
}

func (s ScheduleConfig) DocsInterval() time.Duration {
	return time.Duration(s.DocsIntervalHours) * time.Hour
}

func DefaultConfig() *Config {
	defaultDim := 768
	return &Config{
		Version: 1,
		Roots:   DefaultRoots(),
		Scan: ScanConfig{
			Mode:     "targeted",
			MaxDepth: 3,
		},
		Watch: WatchConfig{
			DebounceMs: 5000,
		},
		Schedule: ScheduleConfig{
			IndexIntervalMinutes: 60,
			IndexTimeoutMinutes:  10,
			DocsIntervalHours:    24,
			DocsDeepWeekly:       false,
		},
		Store: StoreConfig{
			Backend: "gob",
		},
		Embedder: EmbedderConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Endpoint:   "http://localhost:11434",
			Dimensions: &defaultDim,
		},
	}
}

// DefaultRoots returns the well-known directories searched for projects.
func DefaultRoots() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(homeDir, "projects"),
		filepath.Join(homeDir, "src"),
		filepath.Join(homeDir, "code"),
		filepath.Join(homeDir, "dev"),
		filepath.Join(homeDir, "workspace"),
		filepath.Join(homeDir, "go", "src"),
	}
}

// BaseDir returns the codescout state directory. CODESCOUT_HOME overrides
// the default of ~/.codescout.
func BaseDir() (string, error) {
	if dir := os.Getenv("CODESCOUT_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ConfigDir), nil
}

func GetConfigPath(baseDir string) string {
	return filepath.Join(baseDir, ConfigFileName)
}

func GetRegistryPath(baseDir string) string {
	return filepath.Join(baseDir, RegistryFileName)
}

func GetIndexPath(baseDir string) string {
	return filepath.Join(baseDir, IndexFileName)
}

func Load(baseDir string) (*Config, error) {
	data, err := os.ReadFile(GetConfigPath(baseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads the config file, falling back to defaults when it
// does not exist yet.
func LoadOrDefault(baseDir string) (*Config, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in missing configuration values so that older config
// files keep working after new fields are added.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if len(c.Roots) == 0 {
		c.Roots = defaults.Roots
	}
	if c.Scan.Mode == "" {
		c.Scan.Mode = defaults.Scan.Mode
	}
	if c.Scan.MaxDepth <= 0 {
		c.Scan.MaxDepth = defaults.Scan.MaxDepth
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = defaults.Watch.DebounceMs
	}
	if c.Schedule.IndexIntervalMinutes <= 0 {
		c.Schedule.IndexIntervalMinutes = defaults.Schedule.IndexIntervalMinutes
	}
	if c.Schedule.IndexTimeoutMinutes <= 0 {
		c.Schedule.IndexTimeoutMinutes = defaults.Schedule.IndexTimeoutMinutes
	}
	if c.Schedule.DocsIntervalHours <= 0 {
		c.Schedule.DocsIntervalHours = defaults.Schedule.DocsIntervalHours
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	if c.Store.Backend == "qdrant" && c.Store.Qdrant.Port <= 0 {
		c.Store.Qdrant.Port = 6334
	}
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = defaults.Embedder.Provider
	}
	if c.Embedder.Endpoint == "" {
		switch c.Embedder.Provider {
		case "ollama":
			c.Embedder.Endpoint = "http://localhost:11434"
		case "openai":
			c.Embedder.Endpoint = "https://api.openai.com/v1"
		}
	}
	if c.Embedder.Model == "" && c.Embedder.Provider == "ollama" {
		c.Embedder.Model = defaults.Embedder.Model
	}
	if c.Embedder.Dimensions == nil {
		switch c.Embedder.Provider {
		case "ollama", "hash":
			dim := 768
			c.Embedder.Dimensions = &dim
		}
	}
}

func (c *Config) Save(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigPath(baseDir), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func Exists(baseDir string) bool {
	_, err := os.Stat(GetConfigPath(baseDir))
	return err == nil
}
