package extractor

import (
	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// Extract parses source under dialect and runs the full pipeline:
// top-level symbol extraction, the per-file import map, and
// import/call/heritage relation extraction. resolver carries the
// importing file's directory and alias configuration; the
// coordinator supplies a known-files filter on resolver.Filter during
// two-pass writes.
func Extract(dialect tsparser.Dialect, currentFile string, source []byte, resolver *Resolver) (*Result, error) {
	parsed, err := tsparser.Parse(dialect, source)
	if err != nil {
		return nil, err
	}
	defer parsed.Close()
	return ExtractParsed(parsed, currentFile, resolver), nil
}

// ExtractParsed runs the pipeline over an already-parsed file. The caller
// retains ownership of parsed (and its Close), which lets the coordinator
// hand the same tree to the parse cache afterwards.
func ExtractParsed(parsed *tsparser.Result, currentFile string, resolver *Resolver) *Result {
	source := parsed.SourceText
	root := parsed.Tree.RootNode()
	imports := buildImportMap(root, source, resolver)

	var relations []Relation
	relations = append(relations, extractImportRelations(root, source, resolver)...)
	relations = append(relations, extractCallRelations(root, source, currentFile, imports)...)
	relations = append(relations, extractHeritageRelations(root, source, currentFile, imports)...)

	return &Result{
		Symbols:   extractSymbols(root, source),
		Relations: relations,
		Imports:   imports,
	}
}
