// Command ts-codebase-index maintains and queries a persistent symbol and
// relation index for a TypeScript/JavaScript monorepo.
//
// Usage:
//
//	ts-codebase-index [-root DIR] index            one-shot full index
//	ts-codebase-index [-root DIR] watch            index, then follow filesystem changes
//	ts-codebase-index [-root DIR] search QUERY     full-text symbol search
//	ts-codebase-index [-root DIR] stats            per-project totals
//	ts-codebase-index [-root DIR] cycles           dependency cycles
//	ts-codebase-index [-root DIR] deps FILE        direct dependencies of a file
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/DeusData/ts-codebase-index/internal/coordinator"
	"github.com/DeusData/ts-codebase-index/internal/graphcache"
	"github.com/DeusData/ts-codebase-index/internal/ownership"
	"github.com/DeusData/ts-codebase-index/internal/query"
	"github.com/DeusData/ts-codebase-index/internal/store"
	"github.com/DeusData/ts-codebase-index/internal/watcher"
)

var version = "dev"

const (
	dataDir           = ".tsindex"
	dbFile            = "index.db"
	heartbeatInterval = 30 * time.Second
)

func main() {
	root := flag.String("root", ".", "project root to index")
	verbose := flag.Bool("v", false, "debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("ts-codebase-index", version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	absRoot, err := filepath.Abs(*root)
	if err != nil {
		fatalf("resolve root: %v", err)
	}

	s, err := store.Open(absRoot, dataDir, dbFile)
	if err != nil {
		fatalf("open store: %v", err)
	}
	defer s.Close()

	switch args[0] {
	case "index":
		runIndex(absRoot, s, false)
	case "watch":
		runIndex(absRoot, s, true)
	case "search":
		if len(args) < 2 {
			fatalf("search requires a query")
		}
		runSearch(absRoot, s, args[1])
	case "stats":
		runStats(absRoot, s)
	case "cycles":
		runCycles(absRoot, s)
	case "deps":
		if len(args) < 2 {
			fatalf("deps requires a file path")
		}
		runDeps(absRoot, s, args[1])
	default:
		fatalf("unknown command %q", args[0])
	}
}

// runIndex acquires the writer lease, runs a full index, and optionally
// keeps following filesystem changes until interrupted.
func runIndex(root string, s *store.Store, watch bool) {
	lease := ownership.New(s, ownership.Options{PID: os.Getpid()})
	role, err := lease.Acquire()
	if err != nil {
		fatalf("acquire ownership: %v", err)
	}
	if role != ownership.RoleOwner {
		fatalf("another process owns the index; run queries instead")
	}
	defer func() {
		if err := lease.Release(); err != nil {
			slog.Warn("main.release", "err", err)
		}
	}()

	coord := coordinator.New(coordinator.Options{
		ProjectRoot: root,
		DataDir:     dataDir,
		Store:       s,
	})
	defer coord.Shutdown()

	result, err := coord.FullIndex()
	if err != nil {
		fatalf("full index: %v", err)
	}
	printResult(result)

	if !watch {
		return
	}

	w, err := watcher.New(root, dataDir, coord.HandleWatcherEvent)
	if err != nil {
		fatalf("start watcher: %v", err)
	}
	w.Start()
	defer w.Close()

	coord.OnIndexed(func(r *coordinator.IndexResult) {
		slog.Info("main.indexed",
			"files", r.IndexedFiles, "removed", r.RemovedFiles,
			"failed", len(r.FailedFiles), "elapsed_ms", r.DurationMs)
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-heartbeat.C:
			if err := lease.UpdateHeartbeat(); err != nil {
				slog.Warn("main.heartbeat", "err", err)
			}
		case <-stop:
			slog.Info("main.shutdown")
			return
		}
	}
}

func newQuery(root string, s *store.Store) *query.Service {
	return query.New(query.Options{
		Store:   s,
		Project: filepath.Base(root),
		Graphs:  graphcache.New(s),
	})
}

func runSearch(root string, s *store.Store, q string) {
	svc := newQuery(root, s)
	defer svc.Close()
	rows, err := svc.SearchAllSymbols(store.SearchSymbolParams{Query: q, Limit: 50})
	if err != nil {
		fatalf("search: %v", err)
	}
	for _, r := range rows {
		fmt.Printf("%-10s %-40s %s:%d\n", r.Kind, r.Name, r.FilePath, r.SpanStartLine)
	}
}

func runStats(root string, s *store.Store) {
	svc := newQuery(root, s)
	defer svc.Close()
	st, err := svc.GetStats()
	if err != nil {
		fatalf("stats: %v", err)
	}
	fmt.Printf("project: %s\nfiles: %d\nsymbols: %d\nrelations: %d\n",
		st.Project, st.Files, st.Symbols, st.Relations)
}

func runCycles(root string, s *store.Store) {
	svc := newQuery(root, s)
	defer svc.Close()
	cycles, err := svc.GetCyclePaths(100)
	if err != nil {
		fatalf("cycles: %v", err)
	}
	if len(cycles) == 0 {
		fmt.Println("no cycles")
		return
	}
	for _, c := range cycles {
		for i, n := range c {
			if i > 0 {
				fmt.Print(" -> ")
			}
			fmt.Print(n)
		}
		fmt.Println()
	}
}

func runDeps(root string, s *store.Store, file string) {
	svc := newQuery(root, s)
	defer svc.Close()
	rows, err := svc.GetDependencies(file)
	if err != nil {
		fatalf("deps: %v", err)
	}
	for _, r := range rows {
		fmt.Printf("%-16s %s\n", r.Type, r.DstFilePath)
	}
}

func printResult(r *coordinator.IndexResult) {
	fmt.Printf("indexed %d files (%d removed, %d failed), %d symbols, %d relations in %dms\n",
		r.IndexedFiles, r.RemovedFiles, len(r.FailedFiles),
		r.TotalSymbols, r.TotalRelations, r.DurationMs)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
