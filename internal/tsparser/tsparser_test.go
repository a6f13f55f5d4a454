package tsparser

import "testing"

func TestDialectForExtension(t *testing.T) {
	cases := map[string]Dialect{
		".ts":  TypeScript,
		".tsx": TSX,
		".js":  JavaScript,
		".mjs": JavaScript,
	}
	for ext, want := range cases {
		got, ok := DialectForExtension(ext)
		if !ok || got != want {
			t.Errorf("DialectForExtension(%q) = (%q, %v), want (%q, true)", ext, got, ok, want)
		}
	}
	if _, ok := DialectForExtension(".py"); ok {
		t.Errorf("DialectForExtension(.py) should not resolve")
	}
}

func TestParseReturnsCommentsAndTree(t *testing.T) {
	src := []byte(`/** doc */
function add(a: number, b: number): number {
  return a + b;
}
`)
	res, err := Parse(TypeScript, src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer res.Close()

	if res.Tree == nil || res.Tree.RootNode() == nil {
		t.Fatal("expected non-nil tree")
	}
	if len(res.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(res.Comments))
	}
	if res.Comments[0].Text != "/** doc */" {
		t.Fatalf("comment text = %q", res.Comments[0].Text)
	}
}

func TestParseUnsupportedDialect(t *testing.T) {
	if _, err := Parse("python", []byte("x = 1")); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}
