// Package watch monitors the workspace for Java source changes made outside
// the editor and forwards them to the dispatcher as external file events.
// It complements workspace/didChangeWatchedFiles for clients whose watchers
// are unreliable.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/protocol"
)

// sourcePattern matches the files worth reporting.
const sourcePattern = "**/*.java"

// Watcher monitors a workspace root recursively.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	onEvent func(path string, eventType int)
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a watcher delivering events through onEvent with
// protocol.FileCreated/Changed/Deleted types.
func New(root string, onEvent func(path string, eventType int)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher: fsw,
		root:    root,
		onEvent: onEvent,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start adds watches for the root and every subdirectory and begins
// processing events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop cancels event processing and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.cancel()
	w.watcher.Close()
	w.wg.Wait()
}

func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && path != root && name[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			debug.LogWatch("watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.LogWatch("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need their own watches.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addWatches(event.Name)
			return
		}
	}
	if !w.matches(event.Name) {
		return
	}
	debug.LogWatch("%s %s", event.Op, event.Name)
	switch {
	case event.Op.Has(fsnotify.Create):
		w.onEvent(event.Name, protocol.FileCreated)
	case event.Op.Has(fsnotify.Write):
		w.onEvent(event.Name, protocol.FileChanged)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.onEvent(event.Name, protocol.FileDeleted)
	}
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(sourcePattern, filepath.ToSlash(rel))
	return err == nil && ok
}
