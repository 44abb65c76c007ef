// Package store defines the storage collaborator: an opaque vector sink
// for derived documents (symbols, tests, documentation chunks) with
// similarity search over them. The indexing core never inspects ranking
// internals.
package store

import (
	"context"
	"time"

	"github.com/codescout-dev/codescout/language"
)

// DocType partitions the index into namespaces.
type DocType string

const (
	TypeSymbol DocType = "symbol"
	TypeTest   DocType = "test"
	TypeDoc    DocType = "doc"
)

// Metadata is the closed set of fields attached to every document. A
// typed struct instead of an open map: a missing field is a compile
// error, not a silent absence at query time.
type Metadata struct {
	Type        DocType           `json:"type"`
	Language    language.Language `json:"language"`
	ProjectPath string            `json:"project_path"`
	ProjectName string            `json:"project_name"`
	File        string            `json:"file,omitempty"`
	Line        int               `json:"line,omitempty"`
	Symbol      string            `json:"symbol,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Document is one embeddable unit. ID is stable across re-indexing so
// that AddDocuments acts as an idempotent upsert.
type Document struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Metadata Metadata  `json:"metadata"`
	Vector   []float32 `json:"vector"`
}

// Filter narrows searches and counts. Zero values match everything.
type Filter struct {
	Type        DocType
	Language    language.Language
	ProjectPath string
}

// Matches reports whether a document satisfies the filter.
func (f *Filter) Matches(m Metadata) bool {
	if f == nil {
		return true
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Language != "" && m.Language != f.Language {
		return false
	}
	if f.ProjectPath != "" && m.ProjectPath != f.ProjectPath {
		return false
	}
	return true
}

// SearchResult is a document with its similarity score.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}

// Stats describes index contents.
type Stats struct {
	TotalDocuments int             `json:"total_documents"`
	ByType         map[DocType]int `json:"by_type"`
	StoreSize      int64           `json:"store_size,omitempty"` // bytes, local backends only
	LastUpdated    time.Time       `json:"last_updated"`
}

// VectorStore is the interface all storage backends implement.
type VectorStore interface {
	// AddDocuments upserts documents by ID.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search returns the documents most similar to the query vector,
	// optionally restricted by a metadata filter.
	Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]SearchResult, error)

	// DeleteByProject removes every document belonging to a project.
	DeleteByProject(ctx context.Context, projectPath string) error

	// DeleteByType clears one document namespace (deep docs refresh).
	DeleteByType(ctx context.Context, t DocType) error

	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, filter *Filter) (int, error)

	// Load reads the store from persistent storage (no-op for server
	// backed stores).
	Load(ctx context.Context) error

	// Persist writes the store to persistent storage (no-op for server
	// backed stores).
	Persist(ctx context.Context) error

	// Close cleanly shuts down the store.
	Close() error

	// GetStats returns index statistics.
	GetStats(ctx context.Context) (*Stats, error)
}
