package alias

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesJSONCWithCommentsAndTrailingCommas(t *testing.T) {
	root := t.TempDir()
	tsconfig := `{
		// base config
		"compilerOptions": {
			"baseUrl": "./src",
			"paths": {
				"@app/*": ["app/*"],
				"@lib": ["lib/index.ts"],
				"broken": 42,
			},
		},
	}`
	if err := os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(tsconfig), 0o644); err != nil {
		t.Fatalf("write tsconfig: %v", err)
	}

	r := New()
	cfg, err := r.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	wantBase := filepath.Join(root, "src")
	if cfg.BaseURL != wantBase {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, wantBase)
	}
	if len(cfg.Paths["@app/*"]) != 1 || cfg.Paths["@app/*"][0] != "app/*" {
		t.Fatalf("paths[@app/*] = %v", cfg.Paths["@app/*"])
	}
	if _, ok := cfg.Paths["broken"]; ok {
		t.Fatal("non-array-of-string target should have been skipped")
	}
}

func TestLoadReturnsNilWhenNeitherFieldUsable(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(`{"compilerOptions":{"strict":true}}`), 0o644); err != nil {
		t.Fatalf("write tsconfig: %v", err)
	}
	r := New()
	cfg, err := r.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config, got %+v", cfg)
	}
}

func TestLoadCachesUntilInvalidated(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "tsconfig.json")
	if err := os.WriteFile(path, []byte(`{"compilerOptions":{"baseUrl":"./src"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := New()
	first, err := r.Load(root)
	if err != nil || first == nil {
		t.Fatalf("Load: %v, %+v", err, first)
	}

	// Mutate on disk; cached value should still be served.
	if err := os.WriteFile(path, []byte(`{"compilerOptions":{"baseUrl":"./other"}}`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second, err := r.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if second.BaseURL != first.BaseURL {
		t.Fatalf("expected cached value, got fresh read")
	}

	r.InvalidateOne(root)
	third, err := r.Load(root)
	if err != nil {
		t.Fatalf("Load after invalidate: %v", err)
	}
	if third.BaseURL == first.BaseURL {
		t.Fatalf("expected fresh value after invalidate, still got %q", third.BaseURL)
	}
}
