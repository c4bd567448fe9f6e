package media

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/patchbay-vj/patchbay/internal/logging"
)

// reloadQuiet suppresses the duplicate events editors produce for a
// single save.
const reloadQuiet = 100 * time.Millisecond

// ReloadFunc is called with fresh file content when a watched slot's
// source changes on disk.
type ReloadFunc func(ctx context.Context, tab, slot int, content string)

type watchRef struct {
	tab  int
	slot int
}

// Watcher reloads slots when their origin files change, enabling
// live-coding against an external editor.
type Watcher struct {
	logger zerolog.Logger
	fs     *fsnotify.Watcher
	reload ReloadFunc

	mu        sync.Mutex
	paths     map[string][]watchRef
	lastFired map[string]time.Time
}

// NewWatcher creates a source watcher delivering reloads through fn.
func NewWatcher(fn ReloadFunc) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		logger:    logging.Component("watcher"),
		fs:        fs,
		reload:    fn,
		paths:     make(map[string][]watchRef),
		lastFired: make(map[string]time.Time),
	}, nil
}

// Watch registers a slot against its source path. Multiple slots may
// share one path.
func (w *Watcher) Watch(path string, tab, slot int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	refs := w.paths[path]
	for _, r := range refs {
		if r.tab == tab && r.slot == slot {
			return nil
		}
	}
	if len(refs) == 0 {
		if err := w.fs.Add(path); err != nil {
			return err
		}
	}
	w.paths[path] = append(refs, watchRef{tab: tab, slot: slot})
	return nil
}

// Unwatch removes a slot's registration, dropping the underlying watch
// when no slot references the path anymore.
func (w *Watcher) Unwatch(path string, tab, slot int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	refs := w.paths[path]
	kept := refs[:0]
	for _, r := range refs {
		if r.tab != tab || r.slot != slot {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		delete(w.paths, path)
		w.fs.Remove(path)
		return
	}
	w.paths[path] = kept
}

// Run delivers reloads until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.fire(ctx, event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) fire(ctx context.Context, path string) {
	w.mu.Lock()
	if last, ok := w.lastFired[path]; ok && time.Since(last) < reloadQuiet {
		w.mu.Unlock()
		return
	}
	w.lastFired[path] = time.Now()
	refs := append([]watchRef(nil), w.paths[path]...)
	w.mu.Unlock()

	if len(refs) == 0 {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", path).Msg("reload read failed")
		return
	}

	for _, r := range refs {
		w.logger.Info().Str("path", path).Int("tab", r.tab).Int("slot", r.slot).Msg("source changed, reloading")
		w.reload(ctx, r.tab, r.slot, string(data))
	}
}
