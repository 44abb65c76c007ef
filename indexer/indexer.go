package indexer

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codescout-dev/codescout/analyzer"
	"github.com/codescout-dev/codescout/docs"
	"github.com/codescout-dev/codescout/embedder"
	"github.com/codescout-dev/codescout/registry"
	"github.com/codescout-dev/codescout/store"
)

const (
	DefaultTimeout     = 10 * time.Minute
	DefaultParallelism = 1
)

// Indexer turns registry projects into vector store documents.
type Indexer struct {
	registry *registry.Registry
	store    store.VectorStore
	embedder embedder.Embedder
	docs     *docs.Scanner

	timeout     time.Duration
	parallelism int

	// batchInFlight guards RunBatch; docsInFlight guards RunDocsBatch.
	// They are independent so a long docs pass never blocks code indexing.
	batchInFlight atomic.Bool
	docsInFlight  atomic.Bool

	sched schedules
}

// Options tunes batch behavior. Zero values select the defaults.
type Options struct {
	Timeout     time.Duration // per-project budget
	Parallelism int           // concurrent projects per batch
}

type BatchStats struct {
	Selected  int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

type counts struct {
	symbols int
	tests   int
	docs    int
}

func New(reg *registry.Registry, st store.VectorStore, emb embedder.Embedder, opts Options) *Indexer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	return &Indexer{
		registry:    reg,
		store:       st,
		embedder:    emb,
		docs:        docs.NewScanner(),
		timeout:     opts.Timeout,
		parallelism: opts.Parallelism,
	}
}

// RunBatch indexes every project the registry reports as needing work.
// Only one batch runs at a time: a call that finds another batch in
// flight returns nil immediately.
func (idx *Indexer) RunBatch(ctx context.Context) *BatchStats {
	if !idx.batchInFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer idx.batchInFlight.Store(false)

	start := time.Now()
	projects := idx.registry.NeedingIndex(start)
	stats := &BatchStats{Selected: len(projects)}
	if len(projects) == 0 {
		stats.Duration = time.Since(start)
		return stats
	}

	var succeeded, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(idx.parallelism)
	for _, p := range projects {
		project := p.DiscoveredProject
		g.Go(func() error {
			// A project failure is recorded on the project, never
			// surfaced to the group: the batch always runs to the end.
			if err := idx.IndexOne(ctx, project); err != nil {
				log.Printf("indexing %s failed: %v", project.Path, err)
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := idx.store.Persist(ctx); err != nil {
		log.Printf("failed to persist index: %v", err)
	}

	stats.Succeeded = int(succeeded.Load())
	stats.Failed = int(failed.Load())
	stats.Duration = time.Since(start)
	return stats
}

// IndexOne re-indexes a single project within the per-project timeout.
// The registry records the outcome either way.
func (idx *Indexer) IndexOne(ctx context.Context, p registry.DiscoveredProject) error {
	ctx, cancel := context.WithTimeout(ctx, idx.timeout)
	defer cancel()

	idx.registry.UpdateStatus(p.Path, registry.StatusIndexing, nil)

	c, err := idx.indexProject(ctx, p)
	if err != nil {
		msg := err.Error()
		idx.registry.UpdateStatus(p.Path, registry.StatusFailed, &registry.StatusPatch{Error: &msg})
		return err
	}

	now := time.Now()
	idx.registry.UpdateStatus(p.Path, registry.StatusCompleted, &registry.StatusPatch{
		LastIndexed: &now,
		SymbolCount: &c.symbols,
		TestCount:   &c.tests,
		DocCount:    &c.docs,
	})
	return nil
}

func (idx *Indexer) indexProject(ctx context.Context, p registry.DiscoveredProject) (counts, error) {
	var c counts

	// Stale documents from a previous layout would otherwise survive the
	// deterministic-id upsert.
	if err := idx.store.DeleteByProject(ctx, p.Path); err != nil {
		return c, fmt.Errorf("failed to clear project documents: %w", err)
	}

	var symbols []analyzer.Symbol
	var tests []analyzer.Test
	for _, a := range analyzer.ForLanguage(p.Language) {
		syms, err := a.FindSymbols(ctx, p.Path)
		if err != nil {
			log.Printf("%s: %s symbol extraction failed: %v", p.Path, a.Language(), err)
		} else {
			symbols = append(symbols, syms...)
		}

		tst, err := a.FindTests(ctx, p.Path)
		if err != nil {
			log.Printf("%s: %s test extraction failed: %v", p.Path, a.Language(), err)
		} else {
			tests = append(tests, tst...)
		}
	}

	chunks, err := idx.docs.Scan(ctx, p.Path)
	if err != nil {
		log.Printf("%s: doc scan failed: %v", p.Path, err)
		chunks = nil
	}

	if err := idx.addSymbols(ctx, p, symbols); err != nil {
		return c, err
	}
	if err := idx.addTests(ctx, p, tests); err != nil {
		return c, err
	}
	if err := idx.addDocChunks(ctx, p, chunks); err != nil {
		return c, err
	}

	c.symbols = len(symbols)
	c.tests = len(tests)
	c.docs = len(chunks)
	return c, nil
}

func (idx *Indexer) addSymbols(ctx context.Context, p registry.DiscoveredProject, symbols []analyzer.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}

	documents := make([]store.Document, len(symbols))
	texts := make([]string, len(symbols))
	for i, sym := range symbols {
		text := fmt.Sprintf("%s %s %s", sym.Kind, sym.Name, sym.Signature)
		texts[i] = text
		documents[i] = store.Document{
			ID:   documentID(p.Path, store.TypeSymbol, sym.File, sym.Line, sym.Name),
			Text: text,
			Metadata: store.Metadata{
				Type:        store.TypeSymbol,
				Language:    p.Language,
				ProjectPath: p.Path,
				ProjectName: p.Name,
				File:        sym.File,
				Line:        sym.Line,
				Symbol:      sym.Name,
				Extra:       map[string]string{"kind": sym.Kind},
			},
		}
	}
	return idx.embedAndAdd(ctx, documents, texts)
}

func (idx *Indexer) addTests(ctx context.Context, p registry.DiscoveredProject, tests []analyzer.Test) error {
	if len(tests) == 0 {
		return nil
	}

	documents := make([]store.Document, len(tests))
	texts := make([]string, len(tests))
	for i, tst := range tests {
		text := fmt.Sprintf("%s %s %s", tst.Kind, tst.Name, tst.Framework)
		texts[i] = text
		documents[i] = store.Document{
			ID:   documentID(p.Path, store.TypeTest, tst.File, tst.Line, tst.Name),
			Text: text,
			Metadata: store.Metadata{
				Type:        store.TypeTest,
				Language:    p.Language,
				ProjectPath: p.Path,
				ProjectName: p.Name,
				File:        tst.File,
				Line:        tst.Line,
				Symbol:      tst.Name,
				Extra:       map[string]string{"kind": tst.Kind, "framework": tst.Framework},
			},
		}
	}
	return idx.embedAndAdd(ctx, documents, texts)
}

func (idx *Indexer) addDocChunks(ctx context.Context, p registry.DiscoveredProject, chunks []docs.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	documents := make([]store.Document, len(chunks))
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		text := chunk.Title + "\n" + chunk.Content
		texts[i] = text
		documents[i] = store.Document{
			ID:   documentID(p.Path, store.TypeDoc, chunk.File, chunk.Line, chunk.Title),
			Text: text,
			Metadata: store.Metadata{
				Type:        store.TypeDoc,
				Language:    p.Language,
				ProjectPath: p.Path,
				ProjectName: p.Name,
				File:        chunk.File,
				Line:        chunk.Line,
				Symbol:      chunk.Title,
			},
		}
	}
	return idx.embedAndAdd(ctx, documents, texts)
}

// embedAndAdd embeds one category of documents and stores them in a
// single AddDocuments call.
func (idx *Indexer) embedAndAdd(ctx context.Context, documents []store.Document, texts []string) error {
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(documents) {
		return fmt.Errorf("expected %d vectors, got %d", len(documents), len(vectors))
	}
	for i := range documents {
		documents[i].Vector = vectors[i]
	}
	if err := idx.store.AddDocuments(ctx, documents); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

// RunDocsBatch refreshes the documentation namespace for every registered
// project. A deep run clears it first so chunks from deleted files do not
// linger. Guarded by its own in-flight flag.
func (idx *Indexer) RunDocsBatch(ctx context.Context, deep bool) error {
	if !idx.docsInFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer idx.docsInFlight.Store(false)

	if deep {
		if err := idx.store.DeleteByType(ctx, store.TypeDoc); err != nil {
			return fmt.Errorf("failed to clear doc documents: %w", err)
		}
	}

	for _, p := range idx.registry.List(registry.Filter{}) {
		chunks, err := idx.docs.Scan(ctx, p.Path)
		if err != nil {
			log.Printf("%s: doc scan failed: %v", p.Path, err)
			continue
		}
		if err := idx.addDocChunks(ctx, p.DiscoveredProject, chunks); err != nil {
			log.Printf("%s: doc refresh failed: %v", p.Path, err)
			continue
		}

		n := len(chunks)
		idx.registry.UpdateStatus(p.Path, p.IndexStatus, &registry.StatusPatch{DocCount: &n})
	}

	if err := idx.store.Persist(ctx); err != nil {
		log.Printf("failed to persist index: %v", err)
	}
	return nil
}

// documentID derives a stable UUID from the document identity so
// re-indexing the same project updates documents in place.
func documentID(projectPath string, t store.DocType, file string, line int, name string) string {
	key := fmt.Sprintf("%s|%s|%s|%d|%s", projectPath, t, file, line, name)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
