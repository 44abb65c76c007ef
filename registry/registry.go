// Package registry is the durable source of truth for discovered projects
// and their indexing lifecycle. All mutations are followed by a whole
// snapshot write; readers only ever see a complete, self-consistent file.
package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/codescout-dev/codescout/internal/fileutil"
	"github.com/codescout-dev/codescout/language"
)

// SnapshotVersion is the on-disk schema version. Newer readers must
// tolerate older snapshots; unknown fields are ignored by encoding/json.
const SnapshotVersion = 1

// StalenessWindow is the maximum age of a successful index before a
// project is due for re-indexing.
const StalenessWindow = 24 * time.Hour

// Status describes a project's indexing lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusIndexing  Status = "indexing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned when an operation names an unregistered path.
var ErrNotFound = fmt.Errorf("project not found")

// DiscoveredProject is the immutable output of one scan of a directory.
type DiscoveredProject struct {
	Path       string            `json:"path"`
	Name       string            `json:"name"`
	Language   language.Language `json:"language"`
	IDE        language.IDE      `json:"ide"`
	HasGit     bool              `json:"has_git"`
	ModTime    time.Time         `json:"mod_time"`
	Indicators []string          `json:"indicators"`
}

// ProjectMetadata is a DiscoveredProject plus mutable lifecycle state.
// The registry owns the authoritative copy; callers receive value
// snapshots.
type ProjectMetadata struct {
	DiscoveredProject

	IndexStatus Status     `json:"index_status"`
	LastIndexed *time.Time `json:"last_indexed,omitempty"`
	SymbolCount int        `json:"symbol_count"`
	TestCount   int        `json:"test_count"`
	DocCount    int        `json:"doc_count"`
	LastError   string     `json:"last_error,omitempty"`
}

// StatusPatch carries optional fields applied together with a status
// transition.
type StatusPatch struct {
	LastIndexed *time.Time
	SymbolCount *int
	TestCount   *int
	DocCount    *int
	Error       *string
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Language language.Language
	Status   Status
	IDE      language.IDE
}

// Stats aggregates registry contents.
type Stats struct {
	Total      int                       `json:"total"`
	ByStatus   map[Status]int            `json:"by_status"`
	ByLanguage map[language.Language]int `json:"by_language"`
	Symbols    int                       `json:"symbols"`
	Tests      int                       `json:"tests"`
	DocChunks  int                       `json:"doc_chunks"`
}

type snapshot struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Projects  []ProjectMetadata `json:"projects"`
}

// Registry holds project metadata in memory and mirrors it to a JSON
// snapshot file after every mutation.
type Registry struct {
	path     string
	mu       sync.RWMutex
	projects map[string]ProjectMetadata
	now      func() time.Time
}

// New creates a registry backed by the snapshot file at path. Call Load
// before use.
func New(path string) *Registry {
	return &Registry{
		path:     path,
		projects: make(map[string]ProjectMetadata),
		now:      time.Now,
	}
}

// Load reads the snapshot file. A missing or corrupt snapshot is not an
// error: the registry starts empty and the next save rewrites it.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Printf("registry: cannot read snapshot %s, starting empty: %v", r.path, err)
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("registry: corrupt snapshot %s, starting empty: %v", r.path, err)
		return nil
	}

	r.projects = make(map[string]ProjectMetadata, len(snap.Projects))
	for _, p := range snap.Projects {
		// A freshly loaded registry cannot have a pass in flight: an
		// "indexing" status on disk means the previous process died
		// mid-pass. Reset to pending so the schedule picks it up again.
		if p.IndexStatus == StatusIndexing {
			p.IndexStatus = StatusPending
		}
		r.projects[p.Path] = p
	}
	return nil
}

// Save writes the full snapshot atomically (temp file + rename).
func (r *Registry) Save() error {
	r.mu.RLock()
	snap := snapshot{
		Version:   SnapshotVersion,
		UpdatedAt: r.now(),
		Projects:  r.sortedLocked(),
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry snapshot: %w", err)
	}

	if err := fileutil.WriteFileAtomic(r.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write registry snapshot: %w", err)
	}
	return nil
}

// saveOrLog persists after a mutation. A write failure keeps the
// in-memory state authoritative until the next successful save.
func (r *Registry) saveOrLog() {
	if err := r.Save(); err != nil {
		log.Printf("registry: save failed: %v", err)
	}
}

// Upsert registers a discovered project. Re-discovery of a known path
// replaces the discovery-derived fields but preserves the indexing
// lifecycle; new paths start pending.
func (r *Registry) Upsert(p DiscoveredProject) ProjectMetadata {
	r.mu.Lock()
	existing, ok := r.projects[p.Path]
	if ok {
		existing.DiscoveredProject = p
		r.projects[p.Path] = existing
	} else {
		existing = ProjectMetadata{
			DiscoveredProject: p,
			IndexStatus:       StatusPending,
		}
		r.projects[p.Path] = existing
	}
	r.mu.Unlock()

	r.saveOrLog()
	return existing
}

// UpdateStatus transitions a project's lifecycle state and applies the
// optional patch. Unknown paths are a no-op.
func (r *Registry) UpdateStatus(path string, status Status, patch *StatusPatch) {
	r.mu.Lock()
	p, ok := r.projects[path]
	if !ok {
		r.mu.Unlock()
		return
	}

	p.IndexStatus = status
	if status != StatusFailed {
		p.LastError = ""
	}
	if patch != nil {
		if patch.LastIndexed != nil {
			p.LastIndexed = patch.LastIndexed
		}
		if patch.SymbolCount != nil {
			p.SymbolCount = *patch.SymbolCount
		}
		if patch.TestCount != nil {
			p.TestCount = *patch.TestCount
		}
		if patch.DocCount != nil {
			p.DocCount = *patch.DocCount
		}
		if patch.Error != nil {
			p.LastError = *patch.Error
		}
	}
	r.projects[path] = p
	r.mu.Unlock()

	r.saveOrLog()
}

// Get returns a snapshot of one project's metadata.
func (r *Registry) Get(path string) (ProjectMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[path]
	return p, ok
}

// List returns project snapshots matching the filter, sorted by path.
func (r *Registry) List(f Filter) []ProjectMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProjectMetadata, 0, len(r.projects))
	for _, p := range r.sortedLocked() {
		if f.Language != "" && p.Language != f.Language {
			continue
		}
		if f.Status != "" && p.IndexStatus != f.Status {
			continue
		}
		if f.IDE != "" && p.IDE != f.IDE {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Remove deletes a project. Deletion is always an explicit external
// operation; nothing inside codescout removes projects automatically.
func (r *Registry) Remove(path string) bool {
	r.mu.Lock()
	_, ok := r.projects[path]
	if ok {
		delete(r.projects, path)
	}
	r.mu.Unlock()

	if ok {
		r.saveOrLog()
	}
	return ok
}

// NeedingIndex returns projects due for indexing: never completed, last
// pass failed, or last success older than the staleness window. Projects
// currently indexing are excluded.
func (r *Registry) NeedingIndex(now time.Time) []ProjectMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []ProjectMetadata
	for _, p := range r.sortedLocked() {
		switch p.IndexStatus {
		case StatusIndexing:
			continue
		case StatusPending, StatusFailed:
			due = append(due, p)
		case StatusCompleted:
			if p.LastIndexed == nil || now.Sub(*p.LastIndexed) > StalenessWindow {
				due = append(due, p)
			}
		}
	}
	return due
}

// Stats returns aggregate counts over the registry.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		ByStatus:   make(map[Status]int),
		ByLanguage: make(map[language.Language]int),
	}
	for _, p := range r.projects {
		s.Total++
		s.ByStatus[p.IndexStatus]++
		s.ByLanguage[p.Language]++
		s.Symbols += p.SymbolCount
		s.Tests += p.TestCount
		s.DocChunks += p.DocCount
	}
	return s
}

// sortedLocked returns all projects ordered by path. Callers must hold
// at least a read lock.
func (r *Registry) sortedLocked() []ProjectMetadata {
	out := make([]ProjectMetadata, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
