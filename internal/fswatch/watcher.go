package fswatch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"kiln/pkg/logging"
)

// Kind is the kind of change reported for a path.
type Kind string

const (
	// Created indicates a new file appeared and finished being written.
	Created Kind = "Created"

	// Changed indicates an existing file was modified and finished being written.
	Changed Kind = "Changed"

	// Deleted indicates a file was removed or renamed away.
	Deleted Kind = "Deleted"
)

// Event is a single file change.
type Event struct {
	Kind Kind
	Path string
}

const (
	DefaultStabilityThreshold = 100 * time.Millisecond
	DefaultPollInterval       = 100 * time.Millisecond
	defaultBuffer             = 64
)

// Options tune write-finish detection.
type Options struct {
	// StabilityThreshold is how long size and mtime must stay unchanged
	// before Created or Changed is emitted.
	StabilityThreshold time.Duration

	// PollInterval is how often a pending file is re-checked.
	PollInterval time.Duration

	// Buffer is the capacity of the Events channel.
	Buffer int
}

func (o Options) withDefaults() Options {
	if o.StabilityThreshold <= 0 {
		o.StabilityThreshold = DefaultStabilityThreshold
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Buffer <= 0 {
		o.Buffer = defaultBuffer
	}
	return o
}

// Watcher reports file changes under a set of roots.
//
// Directory roots are watched recursively and directories created later are
// picked up. File roots are watched through their parent directory. Files
// that exist when the watcher starts produce no events.
//
// The Events and Errors channels are never closed; stop reading once Close
// has been called.
type Watcher struct {
	opts Options

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	dirRoots  []string
	fileRoots map[string]bool
	dirs      map[string]bool
	files     map[string]bool // files seen under the roots
	pending   map[string]*pendingEntry
	closed    bool

	events chan Event
	errors chan error
	stopCh chan struct{}
	done   chan struct{}
}

// pendingEntry tracks a file waiting for its writes to settle.
type pendingEntry struct {
	kind        Kind
	timer       *time.Timer
	size        int64
	modTime     time.Time
	stableSince time.Time
}

// New starts watching roots. Roots that do not exist are skipped with a
// warning.
func New(roots []string, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	w := &Watcher{
		opts:      opts,
		watcher:   fw,
		fileRoots: make(map[string]bool),
		dirs:      make(map[string]bool),
		files:     make(map[string]bool),
		pending:   make(map[string]*pendingEntry),
		events:    make(chan Event, opts.Buffer),
		errors:    make(chan error, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, root := range roots {
		if err := w.addRoot(root); err != nil {
			fw.Close()
			return nil, err
		}
	}

	go w.processEvents()

	logging.Debug("FSWatch", "Watching %d roots (%d directories)", len(roots), len(w.dirs))
	return w, nil
}

// Events returns the channel of settled file changes.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops watching and cancels pending stability checks. Only the first
// call has any effect.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stopCh)
	w.cleanupPending()
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) addRoot(root string) error {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Warn("FSWatch", "Skipping missing watch root %s", root)
			return nil
		}
		return err
	}

	if info.IsDir() {
		w.dirRoots = append(w.dirRoots, root)
		return w.addTree(root, func(p string) { w.files[p] = true })
	}

	w.fileRoots[root] = true
	w.files[root] = true
	return w.addDir(filepath.Dir(root))
}

// addTree adds dir and every directory below it. Files found are passed to
// onFile.
func (w *Watcher) addTree(dir string, onFile func(path string)) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return w.addDir(p)
		}
		onFile(p)
		return nil
	})
}

func (w *Watcher) addDir(dir string) error {
	if w.dirs[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = true
	logging.Debug("FSWatch", "Watching directory: %s", dir)
	return nil
}

// processEvents translates raw fsnotify events until Close.
func (w *Watcher) processEvents() {
	defer close(w.done)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.stopCh:
				return
			default:
				logging.Warn("FSWatch", "Dropping watcher error: %v", err)
			}
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.inScope(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if w.underDirRoot(path) {
				if err := w.addTree(path, func(p string) { w.track(p, Created) }); err != nil {
					logging.Warn("FSWatch", "Failed to watch new directory %s: %v", path, err)
				}
			}
			return
		}
		w.track(path, Created)

	case event.Has(fsnotify.Write):
		w.track(path, Changed)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if w.dirs[path] {
			w.forgetDir(path)
			return
		}
		if !w.dropFile(path) {
			// A directory we already forgot, or a file never seen.
			return
		}
		w.emitLocked(Event{Kind: Deleted, Path: path})
	}
}

// dropFile forgets path and cancels its stability wait. It reports whether
// path was a known file. Must hold w.mu.
func (w *Watcher) dropFile(path string) bool {
	known := w.files[path]
	delete(w.files, path)
	if entry, ok := w.pending[path]; ok {
		entry.timer.Stop()
		delete(w.pending, path)
		known = true
	}
	return known
}

// inScope reports whether path lies under a directory root or is a file root.
func (w *Watcher) inScope(path string) bool {
	return w.fileRoots[path] || w.underDirRoot(path)
}

func (w *Watcher) underDirRoot(path string) bool {
	for _, root := range w.dirRoots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// forgetDir drops dir and its descendants from the watched set and emits
// Deleted for every file that was inside. A directory moved out of the
// roots keeps its inotify watches, so they are removed explicitly.
func (w *Watcher) forgetDir(dir string) {
	prefix := dir + string(filepath.Separator)
	for d := range w.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
			_ = w.watcher.Remove(d)
		}
	}

	var gone []string
	for p := range w.files {
		if strings.HasPrefix(p, prefix) {
			gone = append(gone, p)
		}
	}
	sort.Strings(gone)
	for _, p := range gone {
		w.dropFile(p)
	}
	// emitLocked may release the lock, so the maps are settled first.
	for _, p := range gone {
		w.emitLocked(Event{Kind: Deleted, Path: p})
	}
}

// track starts or extends the stability wait for path. Must hold w.mu.
func (w *Watcher) track(path string, kind Kind) {
	now := time.Now()
	w.files[path] = true

	if entry, ok := w.pending[path]; ok {
		entry.kind = mergeKinds(entry.kind, kind)
		entry.stableSince = now
		return
	}

	entry := &pendingEntry{kind: kind, stableSince: now}
	if info, err := os.Stat(path); err == nil {
		entry.size = info.Size()
		entry.modTime = info.ModTime()
	}
	entry.timer = time.AfterFunc(w.opts.PollInterval, func() { w.poll(path) })
	w.pending[path] = entry
}

// poll re-checks a pending file and emits it once it has been stable for
// StabilityThreshold.
func (w *Watcher) poll(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.pending[path]
	if !ok || w.closed {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Removed while settling; the Remove event reports it.
		delete(w.pending, path)
		return
	}

	now := time.Now()
	if info.Size() != entry.size || !info.ModTime().Equal(entry.modTime) {
		entry.size = info.Size()
		entry.modTime = info.ModTime()
		entry.stableSince = now
	}

	if now.Sub(entry.stableSince) < w.opts.StabilityThreshold {
		entry.timer.Reset(w.opts.PollInterval)
		return
	}

	delete(w.pending, path)
	w.emitLocked(Event{Kind: entry.kind, Path: path})
}

// emitLocked delivers ev, giving up if the watcher closes first. The lock is
// released while blocked so Close can proceed.
func (w *Watcher) emitLocked(ev Event) {
	select {
	case w.events <- ev:
		logging.Debug("FSWatch", "Emitted %s %s", ev.Kind, ev.Path)
		return
	default:
	}

	w.mu.Unlock()
	defer w.mu.Lock()
	select {
	case w.events <- ev:
		logging.Debug("FSWatch", "Emitted %s %s", ev.Kind, ev.Path)
	case <-w.stopCh:
	}
}

// cleanupPending cancels all pending stability timers. Must hold w.mu.
func (w *Watcher) cleanupPending() {
	for _, entry := range w.pending {
		entry.timer.Stop()
	}
	w.pending = make(map[string]*pendingEntry)
}

// mergeKinds folds a new change into one still waiting to be emitted.
func mergeKinds(old, new Kind) Kind {
	if old == Created {
		if new == Deleted {
			return Deleted
		}
		// Created + Changed = Created
		return Created
	}
	if old == Changed && new == Deleted {
		return Deleted
	}
	return new
}
