package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestToRelativeNormalizesSeparators(t *testing.T) {
	root := filepath.FromSlash("/repo/root")
	abs := filepath.FromSlash("/repo/root/pkg/sub/file.ts")

	rel, err := ToRelative(root, abs)
	if err != nil {
		t.Fatalf("ToRelative: %v", err)
	}
	if rel != "pkg/sub/file.ts" {
		t.Fatalf("got %q", rel)
	}
}

func TestToAbsoluteRoundTrips(t *testing.T) {
	root := filepath.FromSlash("/repo/root")
	abs := filepath.FromSlash("/repo/root/pkg/sub/file.ts")

	rel, err := ToRelative(root, abs)
	if err != nil {
		t.Fatalf("ToRelative: %v", err)
	}
	if got := ToAbsolute(root, rel); got != abs {
		t.Fatalf("ToAbsolute(root, ToRelative(root, abs)) = %q, want %q", got, abs)
	}
}

func TestIsOutOfRoot(t *testing.T) {
	cases := map[string]bool{
		"pkg/file.ts":    false,
		"../outside.ts":  true,
		"..":             true,
		"..hidden":       false,
		"a/../../b":      false, // not normalized here, only checks literal prefix
	}
	for in, want := range cases {
		if got := IsOutOfRoot(in); got != want {
			t.Errorf("IsOutOfRoot(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHashStringDeterministic(t *testing.T) {
	for _, s := range []string{"", "hello", "こんにちは", "name|kind|signature"} {
		a := HashString(s)
		b := HashString(s)
		if a != b {
			t.Fatalf("HashString(%q) not deterministic: %q vs %q", s, a, b)
		}
		if len(a) != 16 {
			t.Fatalf("HashString(%q) = %q, want 16 hex chars", s, a)
		}
		for _, r := range a {
			if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
				t.Fatalf("HashString(%q) = %q, contains non-lowercase-hex rune %q", s, a, r)
			}
		}
	}
}

func TestHashFileMatchesHashString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.ts")
	content := "export const x = 1;\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	want := HashString(content)
	if got != want {
		t.Fatalf("HashFile = %q, want %q", got, want)
	}
}
