// Package tsparser is the side-effect-free parser adaptor: it turns source
// text into an AST plus a flat comment list, with one pooled tree-sitter
// parser per grammar.
package tsparser

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Dialect is the source dialect to parse.
type Dialect string

const (
	TypeScript Dialect = "typescript"
	TSX        Dialect = "tsx"
	JavaScript Dialect = "javascript"
)

// DialectForFile maps a file path to its parser dialect, treating the
// compound ".d.ts" extension as TypeScript.
func DialectForFile(path string) (Dialect, bool) {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".d.ts") {
		return TypeScript, true
	}
	return DialectForExtension(filepath.Ext(base))
}

// DialectForExtension maps a file extension to its parser dialect.
func DialectForExtension(ext string) (Dialect, bool) {
	switch ext {
	case ".ts", ".mts", ".cts", ".d.ts":
		return TypeScript, true
	case ".tsx":
		return TSX, true
	case ".js", ".mjs", ".cjs", ".jsx":
		return JavaScript, true
	default:
		return "", false
	}
}

var (
	initOnce  sync.Once
	languages map[Dialect]*tree_sitter.Language
	pools     map[Dialect]*sync.Pool
)

func initLanguages() {
	initOnce.Do(func() {
		languages = map[Dialect]*tree_sitter.Language{
			TypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			TSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			JavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		}
		pools = make(map[Dialect]*sync.Pool, len(languages))
		for d, lang := range languages {
			lang := lang
			pools[d] = &sync.Pool{
				New: func() any {
					p := tree_sitter.NewParser()
					if err := p.SetLanguage(lang); err != nil {
						panic(fmt.Sprintf("tsparser: set language: %v", err))
					}
					return p
				},
			}
		}
	})
}

// Comment is a single comment token captured from the AST.
type Comment struct {
	Text      string
	Start     tree_sitter.Point
	End       tree_sitter.Point
	StartByte uint
	EndByte   uint
}

// Result is the parser adaptor's output: the AST, its flat comment list,
// and the original source text. Side-effect-free.
type Result struct {
	Tree       *tree_sitter.Tree
	Comments   []Comment
	SourceText []byte
}

// Close releases the underlying tree-sitter tree. Callers must call this
// when finished with a Result that was not placed in the parse cache (the
// cache owns Close for entries it evicts).
func (r *Result) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// Parse parses source under the given dialect and returns the AST plus its
// comment list. Parser instances are pooled per dialect to avoid
// per-file allocation.
func Parse(dialect Dialect, source []byte) (*Result, error) {
	initLanguages()

	pool, ok := pools[dialect]
	if !ok {
		return nil, codeerr.New(codeerr.Parse, fmt.Sprintf("unsupported dialect %q", dialect))
	}

	p, _ := pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, codeerr.New(codeerr.Parse, fmt.Sprintf("no parser available for %q", dialect))
	}
	tree := p.Parse(source, nil)
	pool.Put(p)

	if tree == nil {
		return nil, codeerr.New(codeerr.Parse, fmt.Sprintf("parse failed for dialect %q", dialect))
	}

	comments := collectComments(tree.RootNode(), source)
	return &Result{Tree: tree, Comments: comments, SourceText: source}, nil
}

// collectComments walks the full tree (including non-named extras) looking
// for "comment" nodes, which tree-sitter-javascript/typescript emit as
// extras interspersed between statements.
func collectComments(root *tree_sitter.Node, source []byte) []Comment {
	var out []Comment
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "comment" {
			out = append(out, Comment{
				Text:      NodeText(n, source),
				Start:     n.StartPosition(),
				End:       n.EndPosition(),
				StartByte: n.StartByte(),
				EndByte:   n.EndByte(),
			})
			return false
		}
		return true
	})
	return out
}

// WalkFunc is called for each node during a depth-first traversal. Return
// false to skip the node's children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST depth-first, visiting every child (named and
// anonymous) so extras like comments are not skipped.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the verbatim source text spanned by node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
