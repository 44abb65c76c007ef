package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestGOBStore_AddAndSearch(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.gob")
	s := NewGOBStore(indexPath)
	ctx := context.Background()

	docs := []Document{
		{
			ID:   "doc1",
			Text: "func main() {}",
			Metadata: Metadata{
				Type:        TypeSymbol,
				Language:    "go",
				ProjectPath: "/home/dev/app",
				File:        "main.go",
				Line:        1,
				Symbol:      "main",
			},
			Vector: []float32{1.0, 0.0, 0.0},
		},
		{
			ID:   "doc2",
			Text: "# Getting started",
			Metadata: Metadata{
				Type:        TypeDoc,
				ProjectPath: "/home/dev/app",
				File:        "README.md",
			},
			Vector: []float32{0.0, 1.0, 0.0},
		},
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("failed to add documents: %v", err)
	}

	results, err := s.Search(ctx, []float32{0.9, 0.1, 0.0}, 10, nil)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.ID != "doc1" {
		t.Errorf("expected doc1 as first result, got %s", results[0].Document.ID)
	}
}

func TestGOBStore_SearchWithFilter(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.gob")
	s := NewGOBStore(indexPath)
	ctx := context.Background()

	docs := []Document{
		{ID: "sym", Metadata: Metadata{Type: TypeSymbol, Language: "go", ProjectPath: "/p1"}, Vector: []float32{1, 0}},
		{ID: "tst", Metadata: Metadata{Type: TypeTest, Language: "go", ProjectPath: "/p1"}, Vector: []float32{1, 0}},
		{ID: "doc", Metadata: Metadata{Type: TypeDoc, ProjectPath: "/p2"}, Vector: []float32{1, 0}},
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("failed to add documents: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 10, &Filter{Type: TypeTest})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Document.ID != "tst" {
		t.Errorf("type filter returned wrong results: %+v", results)
	}

	results, err = s.Search(ctx, []float32{1, 0}, 10, &Filter{ProjectPath: "/p1"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results for project filter, got %d", len(results))
	}
}

func TestGOBStore_AddDocumentsIdempotent(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.gob")
	s := NewGOBStore(indexPath)
	ctx := context.Background()

	doc := Document{ID: "same-id", Text: "v1", Metadata: Metadata{Type: TypeSymbol}, Vector: []float32{1, 0}}
	if err := s.AddDocuments(ctx, []Document{doc}); err != nil {
		t.Fatalf("failed to add documents: %v", err)
	}

	doc.Text = "v2"
	if err := s.AddDocuments(ctx, []Document{doc}); err != nil {
		t.Fatalf("failed to re-add documents: %v", err)
	}

	n, err := s.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document after re-add, got %d", n)
	}

	results, _ := s.Search(ctx, []float32{1, 0}, 1, nil)
	if results[0].Document.Text != "v2" {
		t.Errorf("expected updated text, got %q", results[0].Document.Text)
	}
}

func TestGOBStore_DeleteByProject(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.gob")
	s := NewGOBStore(indexPath)
	ctx := context.Background()

	docs := []Document{
		{ID: "a", Metadata: Metadata{Type: TypeSymbol, ProjectPath: "/p1"}, Vector: []float32{1, 0}},
		{ID: "b", Metadata: Metadata{Type: TypeDoc, ProjectPath: "/p1"}, Vector: []float32{0, 1}},
		{ID: "c", Metadata: Metadata{Type: TypeSymbol, ProjectPath: "/p2"}, Vector: []float32{1, 1}},
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("failed to add documents: %v", err)
	}

	if err := s.DeleteByProject(ctx, "/p1"); err != nil {
		t.Fatalf("delete by project failed: %v", err)
	}

	n, err := s.Count(ctx, nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 document after delete, got %d", n)
	}
	if m, _ := s.Count(ctx, &Filter{ProjectPath: "/p2"}); m != 1 {
		t.Errorf("expected /p2 documents untouched, got %d", m)
	}
}

func TestGOBStore_DeleteByType(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.gob")
	s := NewGOBStore(indexPath)
	ctx := context.Background()

	docs := []Document{
		{ID: "a", Metadata: Metadata{Type: TypeDoc, ProjectPath: "/p1"}, Vector: []float32{1, 0}},
		{ID: "b", Metadata: Metadata{Type: TypeDoc, ProjectPath: "/p2"}, Vector: []float32{0, 1}},
		{ID: "c", Metadata: Metadata{Type: TypeSymbol, ProjectPath: "/p1"}, Vector: []float32{1, 1}},
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("failed to add documents: %v", err)
	}

	if err := s.DeleteByType(ctx, TypeDoc); err != nil {
		t.Fatalf("delete by type failed: %v", err)
	}

	if n, _ := s.Count(ctx, &Filter{Type: TypeDoc}); n != 0 {
		t.Errorf("expected 0 doc documents, got %d", n)
	}
	if n, _ := s.Count(ctx, &Filter{Type: TypeSymbol}); n != 1 {
		t.Errorf("expected symbol documents untouched, got %d", n)
	}
}

func TestGOBStore_PersistAndLoad(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.gob")
	ctx := context.Background()

	s1 := NewGOBStore(indexPath)
	docs := []Document{
		{ID: "d1", Text: "persisted content", Metadata: Metadata{Type: TypeSymbol}, Vector: []float32{1, 0}},
	}
	if err := s1.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("failed to add documents: %v", err)
	}
	if err := s1.Persist(ctx); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	// Lock file should exist alongside the index file
	if _, err := os.Stat(indexPath + ".lock"); os.IsNotExist(err) {
		t.Fatal("expected lock file to be created")
	}

	s2 := NewGOBStore(indexPath)
	if err := s2.Load(ctx); err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	results, err := s2.Search(ctx, []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Document.Text != "persisted content" {
		t.Errorf("expected persisted text, got %q", results[0].Document.Text)
	}
}

func TestGOBStore_LoadMissingFile(t *testing.T) {
	s := NewGOBStore(filepath.Join(t.TempDir(), "nope.gob"))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("expected missing index file to load as empty, got %v", err)
	}
	if n, _ := s.Count(context.Background(), nil); n != 0 {
		t.Errorf("expected empty store, got %d documents", n)
	}
}

func TestGOBStore_GetStats(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.gob")
	s := NewGOBStore(indexPath)
	ctx := context.Background()

	docs := []Document{
		{ID: "1", Metadata: Metadata{Type: TypeSymbol}, Vector: []float32{1, 0}},
		{ID: "2", Metadata: Metadata{Type: TypeSymbol}, Vector: []float32{0, 1}},
		{ID: "3", Metadata: Metadata{Type: TypeTest}, Vector: []float32{1, 1}},
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("failed to add documents: %v", err)
	}
	if err := s.Persist(ctx); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalDocuments != 3 {
		t.Errorf("expected 3 documents, got %d", stats.TotalDocuments)
	}
	if stats.ByType[TypeSymbol] != 2 {
		t.Errorf("expected 2 symbols, got %d", stats.ByType[TypeSymbol])
	}
	if stats.StoreSize == 0 {
		t.Error("expected non-zero store size after persist")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"opposite vectors", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"different lengths", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if abs(got-tt.expected) > 0.0001 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestFilter_Matches(t *testing.T) {
	m := Metadata{Type: TypeSymbol, Language: "go", ProjectPath: "/p"}

	var nilFilter *Filter
	if !nilFilter.Matches(m) {
		t.Error("nil filter should match everything")
	}
	if !(&Filter{Type: TypeSymbol, Language: "go"}).Matches(m) {
		t.Error("matching filter rejected metadata")
	}
	if (&Filter{Type: TypeDoc}).Matches(m) {
		t.Error("type mismatch should not match")
	}
	if (&Filter{ProjectPath: "/other"}).Matches(m) {
		t.Error("project mismatch should not match")
	}
}
