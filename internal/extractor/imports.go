package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// buildImportMap collects the per-file import map: every top-level import declaration
// contributes one ImportRef per local binding, keyed by local name (the
// alias when one is given, not the original exported name).
func buildImportMap(program *tree_sitter.Node, source []byte, resolver *Resolver) map[string]ImportRef {
	imports := make(map[string]ImportRef)
	if program == nil {
		return imports
	}
	for i := uint(0); i < program.NamedChildCount(); i++ {
		stmt := program.NamedChild(i)
		if stmt == nil || stmt.Kind() != "import_statement" {
			continue
		}
		addImportStatement(stmt, source, resolver, imports)
	}
	return imports
}

func addImportStatement(stmt *tree_sitter.Node, source []byte, resolver *Resolver, out map[string]ImportRef) {
	sourceNode := stmt.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	specifier := unquote(tsparser.NodeText(sourceNode, source))
	path, ok := resolver.Resolve(specifier)
	if !ok {
		return
	}

	clause := stmt.ChildByFieldName("import_clause")
	if clause == nil {
		for i := uint(0); i < stmt.NamedChildCount(); i++ {
			c := stmt.NamedChild(i)
			if c != nil && c.Kind() == "import_clause" {
				clause = c
				break
			}
		}
	}
	if clause == nil {
		return
	}

	for i := uint(0); i < clause.ChildCount(); i++ {
		inner := clause.Child(i)
		if inner == nil {
			continue
		}
		switch inner.Kind() {
		case "identifier":
			out[tsparser.NodeText(inner, source)] = ImportRef{Path: path, ImportedName: "default"}
		case "named_imports":
			for j := uint(0); j < inner.NamedChildCount(); j++ {
				spec := inner.NamedChild(j)
				if spec == nil || spec.Kind() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				original := tsparser.NodeText(nameNode, source)
				local := original
				if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
					local = tsparser.NodeText(aliasNode, source)
				}
				out[local] = ImportRef{Path: path, ImportedName: original}
			}
		case "namespace_import":
			local := namespaceImportLocal(inner, source)
			if local != "" {
				out[local] = ImportRef{Path: path, ImportedName: "*"}
			}
		}
	}
}

func namespaceImportLocal(node *tree_sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return tsparser.NodeText(nameNode, source)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c != nil && c.Kind() == "identifier" {
			return tsparser.NodeText(c, source)
		}
	}
	return ""
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
