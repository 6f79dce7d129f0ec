// Package watch triggers rebuilds when files under the site source change.
package watch

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

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/pathfilter"
)

// DefaultDebounce is the quiet period after the last change before a
// rebuild is requested.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a source tree recursively, skipping hidden directories and
// the build destination.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	onChange func()

	outputs    bool
	outputExt  string
	outputKeep []string
}

// New returns a Watcher for root that calls onChange once per burst of
// changes. Paths under any of ignoreDirs (typically the destination) never
// trigger. An ignored dir equal to root is dropped; use IgnoreOutputs for an
// in-place build instead.
func New(root string, onChange func(), ignoreDirs ...string) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	w := &Watcher{root: absRoot, debounce: DefaultDebounce, onChange: onChange}
	for _, d := range ignoreDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolve ignored dir: %w", err)
		}
		if abs == absRoot {
			continue
		}
		w.ignore = append(w.ignore, abs)
	}
	return w, nil
}

// WithDebounce overrides the debounce interval.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// IgnoreOutputs makes files with extension ext (rendered pages of an in-place
// build) ignored anywhere under the root except inside keepDirs. An empty ext
// matches files without an extension.
func (w *Watcher) IgnoreOutputs(ext string, keepDirs ...string) *Watcher {
	w.outputs = true
	w.outputExt = ext
	w.outputKeep = w.outputKeep[:0]
	for _, d := range keepDirs {
		if abs, err := filepath.Abs(d); err == nil {
			w.outputKeep = append(w.outputKeep, abs)
		}
	}
	return w
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	trigger, stop := newDebouncer(w.debounce, w.onChange)
	defer stop()

	slog.Info("Watching for changes", logfields.Path(w.root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if w.ShouldIgnore(ev.Name) || ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ShouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ShouldIgnore reports whether a change at path must not trigger a rebuild:
// anything inside an ignored directory, any hidden path component below the
// root, rendered outputs when IgnoreOutputs is set, and editor swap or
// backup files.
func (w *Watcher) ShouldIgnore(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	for _, dir := range w.ignore {
		if within(dir, abs) {
			return true
		}
	}
	if w.isOutput(abs) {
		return true
	}
	if rel, err := filepath.Rel(w.root, abs); err == nil && rel != "." {
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if pathfilter.IsHidden(part) {
				return true
			}
		}
	}
	return isEditorFile(filepath.Base(abs))
}

func (w *Watcher) isOutput(abs string) bool {
	if !w.outputs || abs == w.root || !within(w.root, abs) {
		return false
	}
	if filepath.Ext(abs) != w.outputExt {
		return false
	}
	for _, dir := range w.outputKeep {
		if within(dir, abs) {
			return false
		}
	}
	if fi, err := os.Stat(abs); err == nil && fi.IsDir() {
		return false
	}
	return true
}

func within(dir, abs string) bool {
	return abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator))
}

func isEditorFile(base string) bool {
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") ||
		base == "Thumbs.db" ||
		base == "4913"
}

// newDebouncer returns a trigger that calls fire once d has passed without
// another trigger, and a stop func that cancels any pending call.
func newDebouncer(d time.Duration, fire func()) (trigger func(), stop func()) {
	var mu sync.Mutex
	var timer *time.Timer
	stopped := false

	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, fire)
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}
