package coordinator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DeusData/ts-codebase-index/internal/store"
	"github.com/DeusData/ts-codebase-index/internal/watcher"
)

func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

func newTestCoordinator(t *testing.T) (*Coordinator, *store.Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	c := New(Options{ProjectRoot: root, DataDir: ".tsindex", Store: s})
	t.Cleanup(c.Shutdown)
	return c, s, root
}

func relationsOfType(t *testing.T, s *store.Store, relType string) []store.RelationRow {
	t.Helper()
	rows, err := s.GetAllByType([]string{relType})
	if err != nil {
		t.Fatalf("GetAllByType(%s): %v", relType, err)
	}
	return rows
}

func TestFullIndexLocalCall(t *testing.T) {
	c, s, root := newTestCoordinator(t)
	writeSource(t, root, "main.ts", `
function main() { helper(); }
function helper() {}
`)

	res, err := c.FullIndex()
	if err != nil {
		t.Fatalf("FullIndex: %v", err)
	}
	if res.IndexedFiles != 1 {
		t.Fatalf("expected 1 indexed file, got %d", res.IndexedFiles)
	}

	calls := relationsOfType(t, s, "calls")
	if len(calls) != 1 {
		t.Fatalf("expected 1 calls relation, got %+v", calls)
	}
	r := calls[0]
	if r.SrcSymbolName.String != "main" || r.DstFilePath != "main.ts" || r.DstSymbolName.String != "helper" {
		t.Fatalf("unexpected call relation: %+v", r)
	}
}

func TestFullIndexNamespaceHeritage(t *testing.T) {
	c, s, root := newTestCoordinator(t)
	writeSource(t, root, "m.ts", `export class Base {}`)
	writeSource(t, root, "a.ts", `
import * as ns from "./m";
class C extends ns.Base {}
`)

	if _, err := c.FullIndex(); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}

	ext := relationsOfType(t, s, "extends")
	if len(ext) != 1 {
		t.Fatalf("expected 1 extends relation, got %+v", ext)
	}
	r := ext[0]
	if r.DstFilePath != "m.ts" || r.DstSymbolName.String != "Base" {
		t.Fatalf("unexpected extends relation: %+v", r)
	}
	if !strings.Contains(r.MetaJSON, `"isNamespaceImport":true`) {
		t.Fatalf("expected isNamespaceImport metadata, got %s", r.MetaJSON)
	}
}

func TestFullIndexReExportChain(t *testing.T) {
	c, s, root := newTestCoordinator(t)
	writeSource(t, root, "a.ts", `export const x = 1;`)
	writeSource(t, root, "barrel.ts", `export { x } from "./a";`)

	if _, err := c.FullIndex(); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}

	reexports := relationsOfType(t, s, "re-exports")
	if len(reexports) != 1 {
		t.Fatalf("expected 1 re-exports relation, got %+v", reexports)
	}
	r := reexports[0]
	if r.SrcFilePath != "barrel.ts" || r.DstFilePath != "a.ts" {
		t.Fatalf("unexpected re-export: %+v", r)
	}
	if !strings.Contains(r.MetaJSON, `"local":"x"`) || !strings.Contains(r.MetaJSON, `"exported":"x"`) {
		t.Fatalf("expected specifiers metadata, got %s", r.MetaJSON)
	}

	syms, err := s.SearchSymbols(store.SearchSymbolParams{FilePath: "a.ts"}, true)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, sym := range syms {
		if sym.Name == "x" && sym.IsExported {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected exported symbol x in a.ts, got %+v", syms)
	}
}

func TestFullIndexIdempotent(t *testing.T) {
	c, s, root := newTestCoordinator(t)
	writeSource(t, root, "lib.ts", `
export function one() { return two(); }
export function two() { return 2; }
export class Box { value = 1; get() { return this.value; } }
`)

	first, err := c.FullIndex()
	if err != nil {
		t.Fatalf("FullIndex: %v", err)
	}
	second, err := c.FullIndex()
	if err != nil {
		t.Fatalf("FullIndex (2nd): %v", err)
	}

	if second.TotalSymbols != first.TotalSymbols || second.TotalRelations != first.TotalRelations {
		t.Fatalf("totals drifted: %+v vs %+v", first, second)
	}
	d := second.ChangedSymbols
	if len(d.Added) != 0 || len(d.Modified) != 0 || len(d.Removed) != 0 {
		t.Fatalf("expected empty diff on unchanged reindex, got %+v", d)
	}

	rows, err := s.GetFileSymbols(c.defaultProject, "lib.ts")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		t.Fatal("expected symbol rows for lib.ts")
	}
}

func TestRelationForeignKeysHold(t *testing.T) {
	c, s, root := newTestCoordinator(t)
	writeSource(t, root, "a.ts", `
import { readFile } from "react";
import { b } from "./b";
import { nope } from "./does-not-exist";
export function a() { b(); }
`)
	writeSource(t, root, "b.ts", `export function b() {}`)

	if _, err := c.FullIndex(); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}

	files, err := s.GetFilesMap()
	if err != nil {
		t.Fatal(err)
	}
	for _, relType := range []string{"imports", "calls", "re-exports", "type-references", "extends", "implements"} {
		for _, r := range relationsOfType(t, s, relType) {
			if strings.HasPrefix(r.DstFilePath, "..") {
				t.Fatalf("relation escapes root: %+v", r)
			}
			if _, ok := files[r.DstProject+"::"+r.DstFilePath]; !ok {
				t.Fatalf("relation dst has no file row: %+v", r)
			}
		}
	}
}

func TestIncrementalRenameRetargeting(t *testing.T) {
	c, s, root := newTestCoordinator(t)
	oldAbs := writeSource(t, root, "old.ts", `export function Foo() {}`)
	writeSource(t, root, "caller.ts", `
import { Foo } from "./old";
export function run() { Foo(); }
`)

	if _, err := c.FullIndex(); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}

	calls := relationsOfType(t, s, "calls")
	if len(calls) != 1 || calls[0].DstFilePath != "old.ts" {
		t.Fatalf("precondition failed: %+v", calls)
	}

	// Simulate a rename: same content under a new path.
	if err := os.Remove(oldAbs); err != nil {
		t.Fatal(err)
	}
	newAbs := writeSource(t, root, "new.ts", `export function Foo() {}`)

	res, err := c.IncrementalIndex([]watcher.Event{
		{Type: watcher.EventDelete, FilePath: oldAbs},
		{Type: watcher.EventCreate, FilePath: newAbs},
	})
	if err != nil {
		t.Fatalf("IncrementalIndex: %v", err)
	}
	if res.RemovedFiles != 1 || res.IndexedFiles != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	calls = relationsOfType(t, s, "calls")
	if len(calls) != 1 {
		t.Fatalf("expected 1 calls relation after rename, got %+v", calls)
	}
	if calls[0].DstFilePath != "new.ts" || calls[0].DstSymbolName.String != "Foo" {
		t.Fatalf("relation not retargeted: %+v", calls[0])
	}
}

func TestIncrementalDeleteCascades(t *testing.T) {
	c, s, root := newTestCoordinator(t)
	abs := writeSource(t, root, "gone.ts", `export function gone() {}`)

	if _, err := c.FullIndex(); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}
	if err := os.Remove(abs); err != nil {
		t.Fatal(err)
	}

	res, err := c.IncrementalIndex([]watcher.Event{{Type: watcher.EventDelete, FilePath: abs}})
	if err != nil {
		t.Fatalf("IncrementalIndex: %v", err)
	}
	if res.RemovedFiles != 1 {
		t.Fatalf("expected 1 removed file, got %+v", res)
	}

	rows, err := s.GetFileSymbols(c.defaultProject, "gone.ts")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no symbols after delete, got %+v", rows)
	}
	if f, _ := s.GetFile(c.defaultProject, "gone.ts"); f != nil {
		t.Fatalf("file row should be gone, got %+v", f)
	}
}

func TestIncrementalSymbolDiff(t *testing.T) {
	c, _, root := newTestCoordinator(t)
	abs := writeSource(t, root, "d.ts", `
export function keep() {}
export function change(a: number) {}
export function drop() {}
`)

	if _, err := c.FullIndex(); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}

	writeSource(t, root, "d.ts", `
export function keep() {}
export function change(a: number, b: number) {}
export function fresh() {}
`)

	res, err := c.IncrementalIndex([]watcher.Event{{Type: watcher.EventChange, FilePath: abs}})
	if err != nil {
		t.Fatalf("IncrementalIndex: %v", err)
	}

	d := res.ChangedSymbols
	if len(d.Added) != 1 || d.Added[0].Name != "fresh" {
		t.Fatalf("unexpected added: %+v", d.Added)
	}
	if len(d.Modified) != 1 || d.Modified[0].Name != "change" {
		t.Fatalf("unexpected modified: %+v", d.Modified)
	}
	if len(d.Removed) != 1 || d.Removed[0].Name != "drop" {
		t.Fatalf("unexpected removed: %+v", d.Removed)
	}
}

func TestWatcherEventsDebounceIntoRun(t *testing.T) {
	c, _, root := newTestCoordinator(t)
	abs := writeSource(t, root, "w.ts", `export const w = 1;`)

	done := make(chan *IndexResult, 1)
	c.OnIndexed(func(r *IndexResult) {
		select {
		case done <- r:
		default:
		}
	})

	c.HandleWatcherEvent(watcher.Event{Type: watcher.EventCreate, FilePath: abs})

	select {
	case r := <-done:
		if r.IndexedFiles != 1 {
			t.Fatalf("expected 1 indexed file, got %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("debounced run never fired")
	}
}

func TestConcurrentFullIndexCoalesces(t *testing.T) {
	c, _, root := newTestCoordinator(t)
	writeSource(t, root, "x.ts", `export const x = 1;`)

	type out struct {
		res *IndexResult
		err error
	}
	results := make(chan out, 3)
	for i := 0; i < 3; i++ {
		go func() {
			r, err := c.FullIndex()
			results <- out{r, err}
		}()
	}
	for i := 0; i < 3; i++ {
		o := <-results
		if o.err != nil {
			t.Fatalf("FullIndex: %v", o.err)
		}
		if o.res == nil || o.res.IndexedFiles != 1 {
			t.Fatalf("unexpected result: %+v", o.res)
		}
	}
}
