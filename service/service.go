package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/codescout-dev/codescout/config"
	"github.com/codescout-dev/codescout/embedder"
	"github.com/codescout-dev/codescout/indexer"
	"github.com/codescout-dev/codescout/registry"
	"github.com/codescout-dev/codescout/scanner"
	"github.com/codescout-dev/codescout/store"
	"github.com/codescout-dev/codescout/watcher"
)

// Service coordinates the scanner, registry, indexer, and watchers.
// It is the single entry point used by the CLI and the MCP server.
type Service struct {
	cfg      *config.Config
	registry *registry.Registry
	scanner  *scanner.Scanner
	indexer  *indexer.Indexer
	watchers *watcher.Manager
	store    store.VectorStore
	embedder embedder.Embedder

	mu       sync.Mutex
	watching bool
}

type DiscoverResult struct {
	Mode     scanner.Mode                 `json:"mode"`
	Found    int                          `json:"found"`
	New      int                          `json:"new"`
	Projects []registry.DiscoveredProject `json:"projects"`
	Skipped  []scanner.SkippedPath        `json:"skipped,omitempty"`
}

type Stats struct {
	Indexer  indexer.Stats  `json:"indexer"`
	Watchers watcher.Status `json:"watchers"`
	Registry registry.Stats `json:"registry"`
	Store    *store.Stats   `json:"store,omitempty"`
}

func New(cfg *config.Config, reg *registry.Registry, st store.VectorStore, emb embedder.Embedder) *Service {
	idx := indexer.New(reg, st, emb, indexer.Options{
		Timeout: cfg.Schedule.IndexTimeout(),
	})

	svc := &Service{
		cfg:      cfg,
		registry: reg,
		scanner:  scanner.New(cfg.Roots),
		indexer:  idx,
		store:    st,
		embedder: emb,
	}
	svc.watchers = watcher.NewManager(cfg.Watch.Debounce(), func(ctx context.Context, p registry.DiscoveredProject) error {
		return idx.IndexOne(ctx, p)
	})
	return svc
}

// Discover scans the configured roots and registers every project found.
// An empty mode uses the configured one. A targeted scan that yields
// nothing falls back to an exhaustive scan: a fresh machine with no IDE
// metadata should still find its projects.
func (s *Service) Discover(ctx context.Context, mode scanner.Mode, maxDepth int) (*DiscoverResult, error) {
	if mode == "" {
		mode = scanner.Mode(s.cfg.Scan.Mode)
	}
	if maxDepth <= 0 {
		maxDepth = s.cfg.Scan.MaxDepth
	}

	res, err := s.scanner.Scan(ctx, mode, maxDepth)
	if mode == scanner.ModeTargeted && (err != nil || len(res.Projects) == 0) {
		if err != nil {
			log.Printf("targeted scan failed (%v), falling back to exhaustive", err)
		}
		mode = scanner.ModeExhaustive
		res, err = s.scanner.Scan(ctx, mode, maxDepth)
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	out := &DiscoverResult{
		Mode:     mode,
		Found:    len(res.Projects),
		Projects: res.Projects,
		Skipped:  res.Skipped,
	}

	for _, p := range res.Projects {
		_, known := s.registry.Get(p.Path)
		s.registry.Upsert(p)
		if !known {
			out.New++
		}

		s.mu.Lock()
		watching := s.watching
		s.mu.Unlock()
		if watching {
			if err := s.watchers.Watch(ctx, p); err != nil {
				log.Printf("failed to watch %s: %v", p.Path, err)
			}
		}
	}

	if err := s.registry.Save(); err != nil {
		return nil, fmt.Errorf("failed to save registry: %w", err)
	}
	return out, nil
}

// Add registers a single directory without a full scan. The directory
// must classify as a project.
func (s *Service) Add(ctx context.Context, path string) (registry.ProjectMetadata, error) {
	p, ok := scanner.Classify(path)
	if !ok {
		return registry.ProjectMetadata{}, fmt.Errorf("%s is not a recognizable project (no manifest or source files)", path)
	}

	meta := s.registry.Upsert(p)

	s.mu.Lock()
	watching := s.watching
	s.mu.Unlock()
	if watching {
		if err := s.watchers.Watch(ctx, p); err != nil {
			log.Printf("failed to watch %s: %v", p.Path, err)
		}
	}
	return meta, nil
}

// Remove unregisters a project and deletes its documents from the
// index. Removal never happens automatically; this is the only path.
func (s *Service) Remove(ctx context.Context, path string) error {
	s.watchers.Unwatch(path)

	if !s.registry.Remove(path) {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, path)
	}

	if err := s.store.DeleteByProject(ctx, path); err != nil {
		return fmt.Errorf("failed to delete project documents: %w", err)
	}
	return s.store.Persist(ctx)
}

func (s *Service) List(f registry.Filter) []registry.ProjectMetadata {
	return s.registry.List(f)
}

func (s *Service) Get(path string) (registry.ProjectMetadata, bool) {
	return s.registry.Get(path)
}

// Reindex re-indexes one registered project immediately.
func (s *Service) Reindex(ctx context.Context, path string) error {
	meta, ok := s.registry.Get(path)
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, path)
	}
	if err := s.indexer.IndexOne(ctx, meta.DiscoveredProject); err != nil {
		return err
	}
	return s.store.Persist(ctx)
}

// ReindexAll runs one index batch over every project needing work.
func (s *Service) ReindexAll(ctx context.Context) *indexer.BatchStats {
	return s.indexer.RunBatch(ctx)
}

// Search embeds the query and runs a similarity search over the index.
func (s *Service) Search(ctx context.Context, query string, limit int, filter *store.Filter) ([]store.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.store.Search(ctx, vector, limit, filter)
}

func (s *Service) StartSchedule(ctx context.Context) {
	s.indexer.StartSchedule(ctx, s.cfg.Schedule.IndexInterval())
	s.indexer.StartDocsSchedule(ctx, s.cfg.Schedule.DocsInterval(), s.cfg.Schedule.DocsDeepWeekly)
}

func (s *Service) StopSchedule() {
	s.indexer.StopSchedule()
	s.indexer.StopDocsSchedule()
}

// StartWatchers installs a watcher for every registered project.
func (s *Service) StartWatchers(ctx context.Context) {
	s.mu.Lock()
	s.watching = true
	s.mu.Unlock()
	s.watchers.WatchAll(ctx, s.registry.List(registry.Filter{}))
}

func (s *Service) StopWatchers() {
	s.mu.Lock()
	s.watching = false
	s.mu.Unlock()
	s.watchers.UnwatchAll()
}

func (s *Service) Stats(ctx context.Context) Stats {
	stats := Stats{
		Indexer:  s.indexer.Stats(),
		Watchers: s.watchers.Status(),
		Registry: s.registry.Stats(),
	}
	if st, err := s.store.GetStats(ctx); err == nil {
		stats.Store = st
	}
	return stats
}

// Close stops background work and persists all state.
func (s *Service) Close(ctx context.Context) error {
	s.indexer.StopAll()
	s.StopWatchers()

	var firstErr error
	if err := s.registry.Save(); err != nil {
		firstErr = err
	}
	if err := s.store.Persist(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
