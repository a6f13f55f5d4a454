// Package coordinator owns all mutating index operations: it debounces
// watcher events, serializes full and incremental runs behind a single
// logical worker, performs the two-pass transactional write that keeps
// relation foreign keys satisfied, diffs symbol snapshots, and retargets
// relations across file renames by fingerprint.
package coordinator

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/DeusData/ts-codebase-index/internal/alias"
	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/discover"
	"github.com/DeusData/ts-codebase-index/internal/graphcache"
	"github.com/DeusData/ts-codebase-index/internal/lrucache"
	"github.com/DeusData/ts-codebase-index/internal/store"
	"github.com/DeusData/ts-codebase-index/internal/tsparser"
	"github.com/DeusData/ts-codebase-index/internal/watcher"
)

// WatcherDebounce is how long the coordinator waits after the last watcher
// event before flushing the accumulated batch into an incremental run.
const WatcherDebounce = 100 * time.Millisecond

// Options configures a Coordinator.
type Options struct {
	ProjectRoot    string
	DataDir        string // index-internal data directory name, excluded from scans
	Store          *store.Store
	Aliases        *alias.Resolver // nil gets a fresh resolver
	Graphs         *graphcache.Cache
	ParseCacheSize int           // 0 uses lrucache.DefaultCapacity
	Debounce       time.Duration // 0 uses WatcherDebounce
}

// Coordinator is the single-writer worker. All public methods are safe for
// concurrent use; mutating work is serialized on one goroutine at a time.
type Coordinator struct {
	root           string
	dataDir        string
	store          *store.Store
	aliases        *alias.Resolver
	graphs         *graphcache.Cache
	defaultProject string
	debounceDur    time.Duration

	mu            sync.Mutex
	idle          *sync.Cond
	indexing      bool
	shutdown      bool
	pendingEvents []watcher.Event
	pendingFull   bool
	fullWaiters   []chan runOutcome
	incWaiters    []chan runOutcome
	debounce      *time.Timer
	boundaries    []discover.Boundary
	listeners     []func(*IndexResult)

	// parseCache is written only by the worker goroutine during a run;
	// CachedParse reads it under mu and only while the worker is idle.
	parseCache *lrucache.Cache[*tsparser.Result]
}

type runOutcome struct {
	result *IndexResult
	err    error
}

// New creates a Coordinator. Project boundaries are discovered on first
// use and refreshed on every full run and package.json change.
func New(opts Options) *Coordinator {
	if opts.Aliases == nil {
		opts.Aliases = alias.New()
	}
	if opts.Graphs == nil {
		opts.Graphs = graphcache.New(opts.Store)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = WatcherDebounce
	}
	if opts.ParseCacheSize == 0 {
		opts.ParseCacheSize = lrucache.DefaultCapacity
	}
	c := &Coordinator{
		root:           opts.ProjectRoot,
		dataDir:        opts.DataDir,
		store:          opts.Store,
		aliases:        opts.Aliases,
		graphs:         opts.Graphs,
		defaultProject: filepath.Base(filepath.Clean(opts.ProjectRoot)),
		debounceDur:    opts.Debounce,
		parseCache:     lrucache.New[*tsparser.Result](opts.ParseCacheSize),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Graphs exposes the graph cache this coordinator invalidates, for the
// query layer to share.
func (c *Coordinator) Graphs() *graphcache.Cache {
	return c.graphs
}

// FullIndex re-indexes the entire tree under a single transaction. A call
// arriving while the worker is busy is coalesced: every concurrent caller
// receives the result of the next-scheduled full run.
func (c *Coordinator) FullIndex() (*IndexResult, error) {
	ch := make(chan runOutcome, 1)
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil, codeerr.New(codeerr.Closed, "coordinator is shut down")
	}
	c.pendingFull = true
	c.fullWaiters = append(c.fullWaiters, ch)
	c.ensureWorkerLocked()
	c.mu.Unlock()

	out := <-ch
	return out.result, out.err
}

// IncrementalIndex re-indexes the changed subset described by events,
// together with any watcher events already pending. It blocks until the
// run that covers its events completes.
func (c *Coordinator) IncrementalIndex(events []watcher.Event) (*IndexResult, error) {
	ch := make(chan runOutcome, 1)
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil, codeerr.New(codeerr.Closed, "coordinator is shut down")
	}
	c.pendingEvents = append(c.pendingEvents, events...)
	c.incWaiters = append(c.incWaiters, ch)
	c.ensureWorkerLocked()
	c.mu.Unlock()

	out := <-ch
	return out.result, out.err
}

// HandleWatcherEvent accepts one debounced-drain event. tsconfig changes
// invalidate the alias cache and schedule a full index; package.json
// changes refresh project boundaries asynchronously. Every event is also
// appended to the pending batch.
func (c *Coordinator) HandleWatcherEvent(ev watcher.Event) {
	switch filepath.Base(ev.FilePath) {
	case "tsconfig.json", "jsconfig.json":
		c.aliases.InvalidateOne(c.root)
		if _, err := c.aliases.Load(c.root); err != nil {
			slog.Warn("coordinator.alias_reload", "err", err)
		}
		c.mu.Lock()
		if !c.shutdown {
			c.pendingFull = true
			c.pendingEvents = append(c.pendingEvents, ev)
			c.armDebounceLocked()
		}
		c.mu.Unlock()
		return
	case "package.json":
		go c.refreshBoundaries()
	}

	c.mu.Lock()
	if !c.shutdown {
		c.pendingEvents = append(c.pendingEvents, ev)
		c.armDebounceLocked()
	}
	c.mu.Unlock()
}

// OnIndexed subscribes cb to run summaries. Dispatch is sequential after
// each run; a panicking callback is caught and logged, never propagated.
func (c *Coordinator) OnIndexed(cb func(*IndexResult)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, cb)
	c.mu.Unlock()
}

// Shutdown stops the debounce timer and waits for any in-flight run to
// finish. Pending events that never flushed are dropped.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.pendingEvents = nil
	for c.indexing {
		c.idle.Wait()
	}
	c.mu.Unlock()

	c.parseCache.Clear(func(_ string, v *tsparser.Result) { v.Close() })
}

func (c *Coordinator) armDebounceLocked() {
	if c.debounce == nil {
		c.debounce = time.AfterFunc(c.debounceDur, c.flushDebounce)
		return
	}
	c.debounce.Reset(c.debounceDur)
}

// flushDebounce runs on timer expiry. The flush is skipped while a run is
// in flight; the worker drains pending events itself on completion.
func (c *Coordinator) flushDebounce() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown || c.indexing {
		return
	}
	if !c.pendingFull && len(c.pendingEvents) == 0 {
		return
	}
	c.ensureWorkerLocked()
}

func (c *Coordinator) ensureWorkerLocked() {
	if c.indexing {
		return
	}
	c.indexing = true
	go c.runLoop()
}

// runLoop is the single logical worker: it drains a pending full index
// first, then pending incremental events, until nothing is queued.
func (c *Coordinator) runLoop() {
	for {
		c.mu.Lock()
		switch {
		case c.pendingFull:
			c.pendingFull = false
			waiters := c.fullWaiters
			c.fullWaiters = nil
			c.mu.Unlock()

			res, err := c.fullIndexRun()
			for _, w := range waiters {
				w <- runOutcome{result: res, err: err}
			}
			if err != nil {
				slog.Error("coordinator.full_index", "err", err)
			}
			c.notifyListeners(res)

		case len(c.pendingEvents) > 0 || len(c.incWaiters) > 0:
			events := c.pendingEvents
			c.pendingEvents = nil
			waiters := c.incWaiters
			c.incWaiters = nil
			c.mu.Unlock()

			res, err := c.incrementalRun(events)
			for _, w := range waiters {
				w <- runOutcome{result: res, err: err}
			}
			if err != nil {
				slog.Error("coordinator.incremental_index", "err", err)
			}
			c.notifyListeners(res)

		default:
			c.indexing = false
			c.idle.Broadcast()
			c.mu.Unlock()
			return
		}
	}
}

func (c *Coordinator) notifyListeners(res *IndexResult) {
	if res == nil {
		return
	}
	c.mu.Lock()
	listeners := append([]func(*IndexResult){}, c.listeners...)
	c.mu.Unlock()
	for _, cb := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("coordinator.listener_panic", "err", r)
				}
			}()
			cb(res)
		}()
	}
}

// refreshBoundaries re-discovers project boundaries; the refreshed list is
// adopted before the next run.
func (c *Coordinator) refreshBoundaries() {
	boundaries, err := discover.Discover(c.root, c.dataDir)
	if err != nil {
		slog.Warn("coordinator.rediscover", "err", err)
		return
	}
	c.mu.Lock()
	c.boundaries = boundaries
	c.mu.Unlock()
}

// currentBoundaries returns the adopted boundary list, discovering it on
// first use.
func (c *Coordinator) currentBoundaries() []discover.Boundary {
	c.mu.Lock()
	b := c.boundaries
	c.mu.Unlock()
	if b != nil {
		return b
	}
	discovered, err := discover.Discover(c.root, c.dataDir)
	if err != nil {
		slog.Warn("coordinator.discover", "err", err)
		return nil
	}
	c.mu.Lock()
	c.boundaries = discovered
	c.mu.Unlock()
	return discovered
}

func (c *Coordinator) setBoundaries(b []discover.Boundary) {
	c.mu.Lock()
	c.boundaries = b
	c.mu.Unlock()
}

// CachedParse returns the parse result the last run stored for a relative
// path, if still cached. Callers must not Close the returned result; the
// cache owns it. The semantic layer reads through this to avoid
// re-parsing files the index just visited.
func (c *Coordinator) CachedParse(rel string) (*tsparser.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexing || c.shutdown {
		return nil, false
	}
	return c.parseCache.Get(rel)
}

// cachePut replaces the parse cache entry for rel, closing any tree the
// update displaces.
func (c *Coordinator) cachePut(rel string, parsed *tsparser.Result) {
	if old, ok := c.parseCache.Get(rel); ok {
		c.parseCache.Delete(rel)
		old.Close()
	}
	c.parseCache.Set(rel, parsed, func(_ string, v *tsparser.Result) { v.Close() })
}

func (c *Coordinator) cacheDrop(rel string) {
	if old, ok := c.parseCache.Get(rel); ok {
		c.parseCache.Delete(rel)
		old.Close()
	}
}
