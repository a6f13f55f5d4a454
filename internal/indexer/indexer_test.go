package indexer

import (
	"strings"
	"testing"

	"github.com/DeusData/ts-codebase-index/internal/discover"
	"github.com/DeusData/ts-codebase-index/internal/extractor"
	"github.com/DeusData/ts-codebase-index/internal/pathutil"
	"github.com/DeusData/ts-codebase-index/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIndexFileSymbolsComputesSignatureAndFingerprint(t *testing.T) {
	s := openStore(t)
	if err := s.UpsertFile(store.FileRow{Project: "app", FilePath: "a.ts", ContentHash: "h"}); err != nil {
		t.Fatal(err)
	}

	result := &extractor.Result{Symbols: []extractor.Symbol{
		{Name: "run", Kind: extractor.KindFunction, Detail: extractor.Detail{
			IsAsync: true,
			Params:  []extractor.Param{{Name: "a"}, {Name: "b"}},
		}},
		{Name: "Config", Kind: extractor.KindType},
	}}
	if err := IndexFileSymbols(s, "app", "a.ts", "h", result); err != nil {
		t.Fatalf("IndexFileSymbols: %v", err)
	}

	rows, err := s.GetFileSymbols("app", "a.ts")
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]store.SymbolRow{}
	for _, r := range rows {
		byName[r.Name] = r
	}

	run := byName["run"]
	if !run.Signature.Valid || run.Signature.String != "params:2|async:1" {
		t.Fatalf("unexpected callable signature: %+v", run.Signature)
	}
	wantFp := pathutil.HashString("run|function|params:2|async:1")
	if run.Fingerprint != wantFp {
		t.Fatalf("fingerprint mismatch: got %s want %s", run.Fingerprint, wantFp)
	}

	cfg := byName["Config"]
	if cfg.Signature.Valid {
		t.Fatalf("types must have null signature, got %+v", cfg.Signature)
	}
	if cfg.Fingerprint != pathutil.HashString("Config|type|") {
		t.Fatalf("type fingerprint mismatch: %s", cfg.Fingerprint)
	}
}

func TestIndexFileRelationsFiltersOutOfRoot(t *testing.T) {
	s := openStore(t)
	for _, f := range []string{"a.ts", "b.ts"} {
		if err := s.UpsertFile(store.FileRow{Project: "app", FilePath: f, ContentHash: "h"}); err != nil {
			t.Fatal(err)
		}
	}

	result := &extractor.Result{Relations: []extractor.Relation{
		{Type: "imports", DstFile: "b.ts"},
		{Type: "imports", DstFile: "../outside.ts"},
	}}
	boundaries := []discover.Boundary{{Dir: ".", Name: "app"}}
	if err := IndexFileRelations(s, "app", "a.ts", result, boundaries); err != nil {
		t.Fatalf("IndexFileRelations: %v", err)
	}

	rows, err := s.GetByType("app", []string{"imports"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].DstFilePath != "b.ts" {
		t.Fatalf("out-of-root relation not filtered: %+v", rows)
	}
	for _, r := range rows {
		if strings.HasPrefix(r.DstFilePath, "..") {
			t.Fatalf("escaped root: %+v", r)
		}
	}
}

func TestIndexFileRelationsResolvesDstProject(t *testing.T) {
	s := openStore(t)
	if err := s.UpsertFile(store.FileRow{Project: "app", FilePath: "src/a.ts", ContentHash: "h"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFile(store.FileRow{Project: "lib", FilePath: "packages/lib/index.ts", ContentHash: "h"}); err != nil {
		t.Fatal(err)
	}

	result := &extractor.Result{Relations: []extractor.Relation{
		{Type: "imports", DstFile: "packages/lib/index.ts"},
	}}
	boundaries := []discover.Boundary{
		{Dir: "packages/lib", Name: "lib"},
		{Dir: ".", Name: "app"},
	}
	if err := IndexFileRelations(s, "app", "src/a.ts", result, boundaries); err != nil {
		t.Fatalf("IndexFileRelations: %v", err)
	}

	rows, err := s.GetByType("app", []string{"imports"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].DstProject != "lib" {
		t.Fatalf("dst project not resolved through boundaries: %+v", rows)
	}
}
