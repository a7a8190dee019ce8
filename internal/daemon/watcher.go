package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// Watcher rebuilds when files below a root change. Bursts of events are
// coalesced: a session starts once no event arrived for the debounce window.
// Sessions run on the watch goroutine, one at a time; events arriving during
// a session schedule exactly one follow-up.
type Watcher struct {
	root     string
	debounce time.Duration
	run      RunFunc
	ignore   []string

	readyOnce sync.Once
	ready     chan struct{}

	mu   sync.Mutex
	runs int
}

// NewWatcher watches root recursively. Paths under any of ignore (typically
// an output root inside the working tree) never trigger a rebuild.
func NewWatcher(root string, debounce time.Duration, run RunFunc, ignore ...string) (*Watcher, error) {
	if run == nil {
		return nil, errors.ValidationError("run function is required").Build()
	}
	if debounce <= 0 {
		return nil, errors.ValidationError("debounce must be > 0").
			WithContext("debounce", debounce.String()).
			Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve watch root").
			WithContext("path", root).
			Build()
	}
	if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		return nil, errors.ValidationError("watch root is not a directory").
			WithContext("path", abs).
			Build()
	}
	w := &Watcher{root: abs, debounce: debounce, run: run, ready: make(chan struct{})}
	for _, p := range ignore {
		if p == "" {
			continue
		}
		if a, absErr := filepath.Abs(p); absErr == nil {
			w.ignore = append(w.ignore, a)
		}
	}
	return w, nil
}

// Ready is closed once the initial session finished and the watch loop is
// subscribed to events.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Runs returns the number of sessions executed.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Run performs an initial session and then rebuilds on changes until ctx is
// done. Session errors are logged; only watcher setup errors are returned.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}
	slog.Info("Watching working tree", logfields.Path(w.root), slog.Duration("debounce", w.debounce))

	w.execute(ctx)
	w.readyOnce.Do(func() { close(w.ready) })

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handle(fw, ev) {
				continue
			}
			stopTimer(timer)
			timer.Reset(w.debounce)
			pending = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-pending:
			pending = nil
			w.execute(ctx)
		}
	}
}

// handle reports whether ev should trigger a rebuild. New directories are
// added to the watch set.
func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.Ignored(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

// Ignored reports whether a change at path is irrelevant: anything inside a
// .git directory or an ignored root, and editor swap or backup files.
func (w *Watcher) Ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, ig := range w.ignore {
		if within(ig, abs) {
			return true
		}
	}
	rel, err := filepath.Rel(w.root, abs)
	if err == nil {
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if part == ".git" {
				return true
			}
		}
	}
	base := filepath.Base(abs)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		base == ".DS_Store"
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.WrapError(err, errors.CategoryFileSystem, "failed to walk watch root").
					WithContext("path", path).
					Build()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.Ignored(path) {
			return filepath.SkipDir
		}
		if addErr := fw.Add(path); addErr != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(addErr))
		}
		return nil
	})
}

func (w *Watcher) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	start := time.Now()
	if err := w.run(ctx); err != nil {
		slog.Error("Rebuild failed", logfields.Path(w.root), logfields.Error(err))
		return
	}
	slog.Info("Rebuild finished",
		logfields.Path(w.root),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
