package watcher

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/codescout-dev/codescout/registry"
)

const DefaultDebounce = 5 * time.Second

// Manager owns one watcher per project. Projects debounce independently
// of each other.
type Manager struct {
	debounce time.Duration
	reindex  ReindexFunc

	mu       sync.Mutex
	watchers map[string]*projectWatcher // keyed by project path
}

type Status struct {
	Watched int      `json:"watched"`
	Paths   []string `json:"paths"`
}

func NewManager(debounce time.Duration, reindex ReindexFunc) *Manager {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Manager{
		debounce: debounce,
		reindex:  reindex,
		watchers: make(map[string]*projectWatcher),
	}
}

// Watch installs a watcher for the project. Watching a project that is
// already watched is a no-op.
func (m *Manager) Watch(ctx context.Context, project registry.DiscoveredProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.watchers[project.Path]; ok {
		return nil
	}

	w, err := newProjectWatcher(project, m.debounce, m.reindex)
	if err != nil {
		return err
	}
	w.start(ctx)
	m.watchers[project.Path] = w
	return nil
}

func (m *Manager) Unwatch(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.watchers[path]; ok {
		w.stop()
		delete(m.watchers, path)
	}
}

// WatchAll installs watchers for every given project. Install failures
// are logged and do not prevent the remaining projects from being
// watched.
func (m *Manager) WatchAll(ctx context.Context, projects []registry.ProjectMetadata) {
	for _, p := range projects {
		if err := m.Watch(ctx, p.DiscoveredProject); err != nil {
			log.Printf("failed to watch %s: %v", p.Path, err)
		}
	}
}

func (m *Manager) UnwatchAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for path, w := range m.watchers {
		w.stop()
		delete(m.watchers, path)
	}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.watchers))
	for path := range m.watchers {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return Status{Watched: len(paths), Paths: paths}
}
