package tables

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/csmon/internal/logfields"
)

// Watcher reloads the region table when its file changes. Rapid changes are debounced.
type Watcher struct {
	path     string
	loader   Loader
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	current Set
	reloads chan struct{}
}

// NewWatcher creates a watcher for path. current is the set already applied to loader.
func NewWatcher(path string, loader Loader, current Set, logger *slog.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve table path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     absPath,
		loader:   loader,
		watcher:  watcher,
		debounce: time.Second,
		logger:   logger,
		current:  current,
		reloads:  make(chan struct{}, 1),
	}, nil
}

// SetDebounce overrides the reload debounce interval.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run watches until ctx is done. The directory is watched rather than the file so
// editors that replace the file by rename are seen.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch table directory %s: %w", dir, err)
	}
	w.logger.Info("Watching region table", logfields.Path(w.path))

	name := filepath.Base(w.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&fsnotify.Remove == fsnotify.Remove {
				w.logger.Warn("Region table removed; keeping current regions", logfields.Path(event.Name))
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.trigger)
		case <-w.reloads:
			if err := w.Reload(ctx); err != nil {
				w.logger.Error("Failed to reload region table", logfields.Path(w.path), logfields.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Region table watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) trigger() {
	select {
	case w.reloads <- struct{}{}:
	default:
	}
}

// Reload reads the file and applies the types that changed. A file that fails to parse
// or validate leaves the scheduler untouched.
func (w *Watcher) Reload(ctx context.Context) error {
	next, err := Load(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	changed, err := Apply(ctx, w.loader, w.current, next)
	if err != nil {
		return err
	}
	for _, t := range changed {
		w.logger.Info("Region table reloaded", logfields.ResourceType(t.String()), slog.Int("regions", len(next[t])))
	}
	w.current = next
	return nil
}
