package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codescout-dev/codescout/language"
	"github.com/codescout-dev/codescout/registry"
)

// ReindexFunc is invoked once per debounce window for a project with
// qualifying file activity.
type ReindexFunc func(ctx context.Context, project registry.DiscoveredProject) error

// projectWatcher observes a single project tree. A burst of qualifying
// events collapses into one reindex: every event re-arms the debounce
// timer, and the callback fires only after the tree has been quiet for
// the full window.
type projectWatcher struct {
	project  registry.DiscoveredProject
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reindex  ReindexFunc
	done     chan struct{}

	timerMu sync.Mutex
	timer   *time.Timer
}

func newProjectWatcher(project registry.DiscoveredProject, debounce time.Duration, reindex ReindexFunc) (*projectWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &projectWatcher{
		project:  project,
		watcher:  fsw,
		debounce: debounce,
		reindex:  reindex,
		done:     make(chan struct{}),
	}
	if err := w.addRecursive(project.Path); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *projectWatcher) start(ctx context.Context) {
	go w.processEvents(ctx)
}

func (w *projectWatcher) stop() {
	close(w.done)
	w.watcher.Close()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
}

func (w *projectWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && language.NoiseDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *projectWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error for %s: %v", w.project.Path, err)
		}
	}
}

func (w *projectWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	rel, err := filepath.Rel(w.project.Path, event.Name)
	if err != nil {
		return
	}
	if language.UnderNoiseDir(rel) {
		return
	}

	// New directories join the watch so files created inside them are
	// seen; everything else must match the project's source extensions.
	if !language.IsSourceFile(w.project.Language, event.Name) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.addRecursive(event.Name); err != nil {
					log.Printf("failed to watch new directory %s: %v", event.Name, err)
				}
			}
		}
		return
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.arm(ctx)
}

// arm starts or re-arms the debounce timer.
func (w *projectWatcher) arm(ctx context.Context) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		default:
		}
		if err := w.reindex(ctx, w.project); err != nil {
			log.Printf("watcher reindex of %s failed: %v", w.project.Path, err)
		}
	})
}
