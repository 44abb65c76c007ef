package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/codescout-dev/codescout/internal/fileutil"
)

// GOBStore is the default local backend: documents in memory, persisted
// as one gob snapshot, cross-process access guarded by a file lock.
type GOBStore struct {
	indexPath string
	lockPath  string
	documents map[string]Document // id -> document
	updatedAt time.Time
	mu        sync.RWMutex
}

type gobData struct {
	Documents map[string]Document
	UpdatedAt time.Time
}

func NewGOBStore(indexPath string) *GOBStore {
	return &GOBStore{
		indexPath: indexPath,
		lockPath:  indexPath + ".lock",
		documents: make(map[string]Document),
	}
}

func (s *GOBStore) AddDocuments(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	for _, doc := range docs {
		s.documents[doc.ID] = doc
	}
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *GOBStore) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.documents))
	for _, doc := range s.documents {
		if !filter.Matches(doc.Metadata) {
			continue
		}
		results = append(results, SearchResult{
			Document: doc,
			Score:    cosineSimilarity(vector, doc.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *GOBStore) DeleteByProject(ctx context.Context, projectPath string) error {
	s.deleteWhere(func(m Metadata) bool { return m.ProjectPath == projectPath })
	return nil
}

func (s *GOBStore) DeleteByType(ctx context.Context, t DocType) error {
	s.deleteWhere(func(m Metadata) bool { return m.Type == t })
	return nil
}

func (s *GOBStore) deleteWhere(pred func(Metadata) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range s.documents {
		if pred(doc.Metadata) {
			delete(s.documents, id)
		}
	}
	s.updatedAt = time.Now()
}

func (s *GOBStore) Count(ctx context.Context, filter *Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, doc := range s.documents {
		if filter.Matches(doc.Metadata) {
			n++
		}
	}
	return n, nil
}

func (s *GOBStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockFile, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return s.loadUnlocked()
	}
	defer lockFile.Close()

	if err := fileutil.FlockShared(lockFile, false); err != nil {
		return s.loadUnlocked()
	}
	defer func() {
		_ = fileutil.Funlock(lockFile)
	}()

	return s.loadUnlocked()
}

func (s *GOBStore) loadUnlocked() error {
	file, err := os.Open(s.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var data gobData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode index: %w", err)
	}

	s.documents = data.Documents
	s.updatedAt = data.UpdatedAt
	if s.documents == nil {
		s.documents = make(map[string]Document)
	}
	return nil
}

func (s *GOBStore) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lockFile, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return s.persistUnlocked()
	}
	defer lockFile.Close()

	if err := fileutil.FlockExclusive(lockFile, false); err != nil {
		return s.persistUnlocked()
	}
	defer func() {
		_ = fileutil.Funlock(lockFile)
	}()

	return s.persistUnlocked()
}

func (s *GOBStore) persistUnlocked() error {
	if err := fileutil.EnsureParentDir(s.indexPath); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := s.indexPath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}

	data := gobData{Documents: s.documents, UpdatedAt: s.updatedAt}
	if err := gob.NewEncoder(file).Encode(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close index file: %w", err)
	}

	return fileutil.ReplaceFileAtomically(tmp, s.indexPath)
}

func (s *GOBStore) Close() error {
	return s.Persist(context.Background())
}

func (s *GOBStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalDocuments: len(s.documents),
		ByType:         make(map[DocType]int),
		LastUpdated:    s.updatedAt,
	}
	for _, doc := range s.documents {
		stats.ByType[doc.Metadata.Type]++
	}
	if info, err := os.Stat(s.indexPath); err == nil {
		stats.StoreSize = info.Size()
	}
	return stats, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}
