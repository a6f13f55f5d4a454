package query

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(Options{Store: s, Project: "app"}), s
}

func seedFile(t *testing.T, s *store.Store, path string) {
	t.Helper()
	if err := s.UpsertFile(store.FileRow{Project: "app", FilePath: path, ContentHash: "h", LineCount: 10, Size: 100}); err != nil {
		t.Fatal(err)
	}
}

func seedImport(t *testing.T, s *store.Store, src, dst string) {
	t.Helper()
	err := s.ReplaceFileRelations("app", src, []store.RelationRow{{
		Project: "app", Type: "imports", SrcFilePath: src,
		DstProject: "app", DstFilePath: dst, MetaJSON: "{}",
	}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestClosedHandleFailsFast(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Close()

	if _, err := svc.GetStats(); !codeerr.Is(err, codeerr.Closed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := svc.SearchSymbols(store.SearchSymbolParams{Query: "x"}); !codeerr.Is(err, codeerr.Closed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := svc.HasCycle(); !codeerr.Is(err, codeerr.Closed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func TestCycleEnumeration(t *testing.T) {
	svc, s := newTestService(t)
	for _, f := range []string{"a", "b", "c", "d"} {
		seedFile(t, s, f)
	}
	seedImport(t, s, "a", "b")
	seedImport(t, s, "b", "c")
	seedImport(t, s, "c", "a")
	seedImport(t, s, "d", "a")

	hasCycle, err := svc.HasCycle()
	if err != nil {
		t.Fatalf("HasCycle: %v", err)
	}
	if !hasCycle {
		t.Fatal("expected a cycle")
	}

	cycles, err := svc.GetCyclePaths(0)
	if err != nil {
		t.Fatalf("GetCyclePaths: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("expected exactly 1 cycle, got %+v", cycles)
	}
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if cycles[0][i] != n {
			t.Fatalf("expected canonical cycle %v, got %v", want, cycles[0])
		}
	}
}

func TestTransitiveAndAffected(t *testing.T) {
	svc, s := newTestService(t)
	for _, f := range []string{"app.ts", "lib.ts", "util.ts"} {
		seedFile(t, s, f)
	}
	seedImport(t, s, "app.ts", "lib.ts")
	seedImport(t, s, "lib.ts", "util.ts")

	deps, err := svc.GetTransitiveDependencies("app.ts")
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected lib.ts and util.ts, got %v", deps)
	}

	affected, err := svc.GetAffected([]string{"util.ts"})
	if err != nil {
		t.Fatal(err)
	}
	if len(affected) != 2 {
		t.Fatalf("expected app.ts and lib.ts affected, got %v", affected)
	}

	fan, err := svc.GetFanMetrics("lib.ts")
	if err != nil {
		t.Fatal(err)
	}
	if fan.FanIn != 1 || fan.FanOut != 1 {
		t.Fatalf("unexpected fan metrics: %+v", fan)
	}
}

func TestGetFileStats(t *testing.T) {
	svc, s := newTestService(t)
	seedFile(t, s, "a.ts")
	err := s.ReplaceFileSymbols("app", "a.ts", []store.SymbolRow{
		{Project: "app", FilePath: "a.ts", Name: "f", Kind: "function", Fingerprint: "fp", DetailJSON: "{}"},
	})
	if err != nil {
		t.Fatal(err)
	}

	stats, err := svc.GetFileStats("a.ts")
	if err != nil {
		t.Fatalf("GetFileStats: %v", err)
	}
	if stats.Symbols != 1 || stats.LineCount != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, err := svc.GetFileStats("missing.ts"); !codeerr.Is(err, codeerr.Search) {
		t.Fatalf("expected search error for missing file, got %v", err)
	}
}

type fakeSemantic struct {
	typ     string
	err     error
	panicky bool
}

func (f *fakeSemantic) ResolveType(project, file, name string) (string, error) {
	if f.panicky {
		panic("semantic exploded")
	}
	return f.typ, f.err
}

func TestGetFullSymbol(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	seedFile(t, s, "a.ts")
	detail := `{"params":[{"name":"x","type":"number"}],"returnType":"void","async":true,"modifiers":"oops-not-an-array"}`
	err = s.ReplaceFileSymbols("app", "a.ts", []store.SymbolRow{{
		Project: "app", FilePath: "a.ts", Name: "f", Kind: "function",
		Fingerprint: "fp", DetailJSON: detail,
		Signature: sql.NullString{String: "params:1|async:1", Valid: true},
	}})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("reconstitutes typed fields, ignores wrong types", func(t *testing.T) {
		svc := New(Options{Store: s, Project: "app"})
		sym, err := svc.GetFullSymbol("f", "a.ts")
		if err != nil {
			t.Fatalf("GetFullSymbol: %v", err)
		}
		if len(sym.Params) != 1 || sym.ReturnType != "void" || !sym.IsAsync {
			t.Fatalf("detail not reconstituted: %+v", sym)
		}
		if sym.Modifiers != nil {
			t.Fatalf("wrong-typed field should be ignored, got %v", sym.Modifiers)
		}
	})

	t.Run("semantic enrichment", func(t *testing.T) {
		svc := New(Options{Store: s, Project: "app", Semantic: &fakeSemantic{typ: "(x: number) => void"}})
		sym, err := svc.GetFullSymbol("f", "a.ts")
		if err != nil {
			t.Fatal(err)
		}
		if sym.ResolvedType != "(x: number) => void" {
			t.Fatalf("expected resolved type, got %q", sym.ResolvedType)
		}
	})

	t.Run("semantic failure is swallowed", func(t *testing.T) {
		svc := New(Options{Store: s, Project: "app", Semantic: &fakeSemantic{err: errors.New("boom")}})
		if _, err := svc.GetFullSymbol("f", "a.ts"); err != nil {
			t.Fatalf("semantic error must not fail the query: %v", err)
		}
		svc = New(Options{Store: s, Project: "app", Semantic: &fakeSemantic{panicky: true}})
		sym, err := svc.GetFullSymbol("f", "a.ts")
		if err != nil {
			t.Fatalf("semantic panic must not fail the query: %v", err)
		}
		if sym.ResolvedType != "" {
			t.Fatalf("expected empty resolved type after panic, got %q", sym.ResolvedType)
		}
	})

	t.Run("missing symbol", func(t *testing.T) {
		svc := New(Options{Store: s, Project: "app"})
		if _, err := svc.GetFullSymbol("nope", "a.ts"); !codeerr.Is(err, codeerr.Search) {
			t.Fatalf("expected search error, got %v", err)
		}
	})
}

func TestGetModuleInterface(t *testing.T) {
	svc, s := newTestService(t)
	seedFile(t, s, "m.ts")
	err := s.ReplaceFileSymbols("app", "m.ts", []store.SymbolRow{
		{Project: "app", FilePath: "m.ts", Name: "pub", Kind: "function", IsExported: true,
			Fingerprint: "fp1", DetailJSON: `{"returnType":"string","doc":{"description":"Public."}}`},
		{Project: "app", FilePath: "m.ts", Name: "priv", Kind: "function",
			Fingerprint: "fp2", DetailJSON: "{}"},
	})
	if err != nil {
		t.Fatal(err)
	}

	iface, err := svc.GetModuleInterface("m.ts")
	if err != nil {
		t.Fatalf("GetModuleInterface: %v", err)
	}
	if len(iface) != 1 || iface[0].Name != "pub" {
		t.Fatalf("expected only exported symbols, got %+v", iface)
	}
	if iface[0].ReturnType != "string" {
		t.Fatalf("detail not projected: %+v", iface[0])
	}
}

func TestParseRelationMetaDefensive(t *testing.T) {
	if m := ParseRelationMeta(`{"isNew":true}`); m == nil || m["isNew"] != true {
		t.Fatalf("expected parsed meta, got %v", m)
	}
	if m := ParseRelationMeta(`{not json`); m != nil {
		t.Fatalf("malformed meta should yield nil, got %v", m)
	}
	if m := ParseRelationMeta(""); m != nil {
		t.Fatalf("empty meta should yield nil, got %v", m)
	}
}
