package preview

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// watcher reports source changes, ignoring the output directory and editor
// noise.
type watcher struct {
	fs     *fsnotify.Watcher
	ignore string
}

func newWatcher(roots []string, ignoreDir string) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{fs: fw, ignore: filepath.Clean(ignoreDir)}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		if !info.IsDir() {
			if err := fw.Add(root); err != nil {
				_ = fw.Close()
				return nil, err
			}
			continue
		}
		w.addDirsRecursive(root)
	}
	return w, nil
}

// Run forwards relevant events to trigger until ctx is done.
func (w *watcher) Run(ctx context.Context, trigger func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev, trigger)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || w.inIgnoredDir(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *watcher) inIgnoredDir(p string) bool {
	if w.ignore == "" || w.ignore == "." {
		return false
	}
	rel, err := filepath.Rel(w.ignore, p)
	return err == nil && !strings.HasPrefix(rel, "..")
}

func (w *watcher) addDirsRecursive(root string) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (strings.HasPrefix(d.Name(), ".") || w.inIgnoredDir(p)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			slog.Warn("watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

func (w *watcher) Close() error { return w.fs.Close() }

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

// debouncer coalesces bursts of triggers into one signal delivered delay
// after the last trigger.
type debouncer struct {
	delay time.Duration
	ch    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, ch: make(chan struct{}, 1)}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.ch <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) C() <-chan struct{} { return d.ch }

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
