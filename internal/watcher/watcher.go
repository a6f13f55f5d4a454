// Package watcher translates fsnotify's native filesystem events into the
// {eventType, filePath} contract the coordinator accepts: create, change,
// and delete events for source files and config manifests, with ignored
// directories pruned and new subdirectories registered as they appear.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/pathutil"
	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// EventType classifies a watcher event.
type EventType string

const (
	EventCreate EventType = "create"
	EventChange EventType = "change"
	EventDelete EventType = "delete"
)

// Event is the single shape the coordinator accepts.
type Event struct {
	Type     EventType
	FilePath string // absolute
}

// Handler receives translated events, one at a time.
type Handler func(Event)

// ignoreDirs mirrors the discovery skip set: events under these never reach
// the coordinator, and the directories are not registered for watching.
var ignoreDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
}

// configFiles are non-source manifests the coordinator still wants to hear
// about (tsconfig/package changes trigger reloads).
var configFiles = map[string]bool{
	"tsconfig.json": true,
	"jsconfig.json": true,
	"package.json":  true,
}

// Watcher wraps an fsnotify.Watcher registered recursively under a project
// root.
type Watcher struct {
	fs      *fsnotify.Watcher
	root    string
	dataDir string
	handler Handler
	done    chan struct{}
}

// New creates a Watcher for projectRoot and registers every non-ignored
// directory under it. dataDir names the index's own data directory, which
// is never watched. Events are delivered to handler from a single
// goroutine once Start is called.
func New(projectRoot, dataDir string, handler Handler) (*Watcher, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Watcher, "resolve root", err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Watcher, "create backend", err)
	}
	w := &Watcher{fs: fs, root: root, dataDir: dataDir, handler: handler, done: make(chan struct{})}
	if err := w.addRecursive(root); err != nil {
		fs.Close()
		return nil, codeerr.Wrap(codeerr.Watcher, "register directories", err)
	}
	return w, nil
}

// Start begins delivering events. It returns immediately; translation runs
// on a background goroutine until Close.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops the underlying fsnotify watcher and waits for the delivery
// goroutine to drain.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.translate(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher.error", "err", err)
		}
	}
}

func (w *Watcher) translate(ev fsnotify.Event) {
	path := ev.Name
	if w.ignored(path) {
		return
	}

	// New directories must be registered before their contents produce
	// events; fsnotify does not watch recursively on its own.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				slog.Warn("watcher.add_dir", "path", path, "err", err)
			}
			return
		}
	}

	if !w.relevant(path) {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Create):
		w.handler(Event{Type: EventCreate, FilePath: path})
	case ev.Op.Has(fsnotify.Write):
		w.handler(Event{Type: EventChange, FilePath: path})
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.handler(Event{Type: EventDelete, FilePath: path})
	}
}

// relevant reports whether path is a source file with a parser dialect or
// one of the config manifests the coordinator reacts to.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if configFiles[base] {
		return true
	}
	_, ok := tsparser.DialectForFile(path)
	return ok
}

// ignored reports whether path lies under an ignored directory or the data
// directory.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if pathutil.IsOutOfRoot(rel) {
		return true
	}
	for _, part := range splitSlash(rel) {
		if ignoreDirs[part] || (w.dataDir != "" && part == w.dataDir) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != w.root && (ignoreDirs[name] || (w.dataDir != "" && name == w.dataDir)) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func splitSlash(rel string) []string {
	var out []string
	start := 0
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' {
			out = append(out, rel[start:i])
			start = i + 1
		}
	}
	return append(out, rel[start:])
}
