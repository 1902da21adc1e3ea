// Package watch re-indexes sessions as pipeline runs write them.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/outputs"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

const (
	// DefaultDebounce is how long the watcher waits for a burst of writes to settle.
	DefaultDebounce = 2 * time.Second

	// DefaultRate is the maximum number of re-index passes per second.
	DefaultRate = 0.2

	jsonDir = "json"
)

// Watcher follows an outputs directory and keeps the session registry and
// the consolidated cache in step with new session artifacts.
type Watcher struct {
	root     string
	indexer  driving.Indexer
	cache    driving.DataCache
	limiter  *rate.Limiter
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]bool

	// onFlush is called after each re-index pass.
	onFlush func(slugs []string)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLimiter replaces the re-index rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(w *Watcher) {
		if l != nil {
			w.limiter = l
		}
	}
}

// WithFlushHook registers a callback run after every re-index pass.
func WithFlushHook(fn func(slugs []string)) Option {
	return func(w *Watcher) {
		w.onFlush = fn
	}
}

// New creates a watcher over root. The cache is optional.
func New(root string, indexer driving.Indexer, cache driving.DataCache, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		indexer:  indexer,
		cache:    cache,
		limiter:  rate.NewLimiter(rate.Limit(DefaultRate), 1),
		debounce: DefaultDebounce,
		pending:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled, re-indexing after each settled burst
// of artifact changes.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.indexer == nil {
		return errors.New("watch: indexer not configured")
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create outputs directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read outputs directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && outputs.IsSessionDir(e.Name()) {
			w.addSession(fsw, filepath.Join(w.root, e.Name()))
		}
	}
	logger.Info("Watching %s for new sessions", w.root)

	timer := time.NewTimer(w.debounce)
	if !w.hasPending() {
		timer.Stop()
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if isDir(event) && event.Op.Has(fsnotify.Create) {
				w.addSession(fsw, event.Name)
			}
			if w.handleFsEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			if err := w.flush(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("Re-index failed: %v", err)
			}
		}
	}
}

// addSession watches a session directory and its json directory, queueing
// any artifacts already present.
func (w *Watcher) addSession(fsw *fsnotify.Watcher, dir string) {
	name := filepath.Base(dir)
	switch {
	case filepath.Dir(dir) == filepath.Clean(w.root) && outputs.IsSessionDir(name):
		if err := fsw.Add(dir); err != nil {
			logger.Warn("Failed to watch %s: %v", dir, err)
			return
		}
		w.addSession(fsw, filepath.Join(dir, jsonDir))
	case name == jsonDir && outputs.IsSessionDir(filepath.Base(filepath.Dir(dir))):
		if err := fsw.Add(dir); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("Failed to watch %s: %v", dir, err)
			}
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			w.queue(e.Name())
		}
	}
}

// handleFsEvent queues the destination an event touches. It reports whether
// the event is relevant.
func (w *Watcher) handleFsEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	if isDir(event) {
		return outputs.IsSessionDir(filepath.Base(event.Name)) || filepath.Base(event.Name) == jsonDir
	}
	if filepath.Base(filepath.Dir(event.Name)) != jsonDir {
		return false
	}
	return w.queue(filepath.Base(event.Name))
}

func (w *Watcher) queue(name string) bool {
	slug, ok := outputs.ArtifactSlug(name)
	if !ok {
		return false
	}
	w.mu.Lock()
	w.pending[slug] = true
	w.mu.Unlock()
	return true
}

func (w *Watcher) hasPending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending) > 0
}

// drain returns and clears the queued slugs in sorted order.
func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	slugs := make([]string, 0, len(w.pending))
	for slug := range w.pending {
		slugs = append(slugs, slug)
	}
	w.pending = make(map[string]bool)
	sort.Strings(slugs)
	return slugs
}

// flush waits for the limiter, then re-indexes and invalidates the cached
// records of every queued destination.
func (w *Watcher) flush(ctx context.Context) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	slugs := w.drain()
	for _, slug := range slugs {
		n, err := w.indexer.IndexDestination(ctx, slug)
		if err != nil {
			return fmt.Errorf("index %s: %w", slug, err)
		}
		logger.Debug("Indexed %d sessions for %s", n, slug)

		if w.cache != nil {
			if err := w.cache.InvalidateDestination(ctx, slug); err != nil {
				logger.Warn("Failed to invalidate cache for %s: %v", slug, err)
			}
		}
	}
	if len(slugs) > 0 {
		logger.Info("Re-indexed %d destinations", len(slugs))
	}

	if w.onFlush != nil {
		w.onFlush(slugs)
	}
	return nil
}

func isDir(event fsnotify.Event) bool {
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}
