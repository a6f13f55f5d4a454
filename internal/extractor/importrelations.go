package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// extractImportRelations covers statement-level imports: top-level
// import declarations, re-exports and export-alls, plus dynamic imports
// found anywhere in the file.
func extractImportRelations(program *tree_sitter.Node, source []byte, resolver *Resolver) []Relation {
	var out []Relation
	if program == nil {
		return out
	}
	for i := uint(0); i < program.NamedChildCount(); i++ {
		stmt := program.NamedChild(i)
		if stmt == nil {
			continue
		}
		switch stmt.Kind() {
		case "import_statement":
			out = append(out, importStatementRelations(stmt, source, resolver)...)
		case "export_statement":
			out = append(out, exportSourceRelations(stmt, source, resolver)...)
		}
	}
	out = append(out, dynamicImportRelations(program, source, resolver)...)
	return out
}

func isTypeOnlyImport(stmt *tree_sitter.Node) bool {
	for i := uint(0); i < stmt.ChildCount(); i++ {
		c := stmt.Child(i)
		if c == nil {
			continue
		}
		if c.Kind() == "import_clause" || c.Kind() == "string" || c.Kind() == "export_clause" {
			break
		}
		if c.Kind() == "type" {
			return true
		}
	}
	return false
}

func importStatementRelations(stmt *tree_sitter.Node, source []byte, resolver *Resolver) []Relation {
	sourceNode := stmt.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	specifier := unquote(tsparser.NodeText(sourceNode, source))
	path, ok := resolver.Resolve(specifier)
	if !ok {
		return nil
	}

	relType := "imports"
	if isTypeOnlyImport(stmt) {
		relType = "type-references"
	}

	var clause *tree_sitter.Node
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		c := stmt.NamedChild(i)
		if c != nil && c.Kind() == "import_clause" {
			clause = c
			break
		}
	}
	if clause == nil {
		// Side-effect import: `import "foo";`
		return []Relation{{Type: relType, DstFile: path}}
	}

	var out []Relation
	for i := uint(0); i < clause.ChildCount(); i++ {
		inner := clause.Child(i)
		if inner == nil {
			continue
		}
		switch inner.Kind() {
		case "identifier":
			out = append(out, Relation{
				Type:    relType,
				DstFile: path,
				Meta:    map[string]any{"dstSymbolName": "default"},
			})
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
				meta := map[string]any{"dstSymbolName": original}
				if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
					meta["srcSymbolName"] = tsparser.NodeText(aliasNode, source)
				}
				out = append(out, Relation{Type: relType, DstFile: path, Meta: meta})
			}
		case "namespace_import":
			out = append(out, Relation{
				Type:    relType,
				DstFile: path,
				Meta:    map[string]any{"dstSymbolName": "*"},
			})
		}
	}
	if len(out) == 0 {
		return []Relation{{Type: relType, DstFile: path}}
	}
	return out
}

func exportSourceRelations(stmt *tree_sitter.Node, source []byte, resolver *Resolver) []Relation {
	sourceNode := stmt.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	if stmt.ChildByFieldName("declaration") != nil {
		return nil
	}

	specifier := unquote(tsparser.NodeText(sourceNode, source))
	path, ok := resolver.Resolve(specifier)
	if !ok {
		return nil
	}

	relType := "re-exports"
	if isTypeOnlyImport(stmt) {
		relType = "type-references"
	}

	var clause *tree_sitter.Node
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		c := stmt.NamedChild(i)
		if c != nil && c.Kind() == "export_clause" {
			clause = c
			break
		}
	}
	if clause == nil {
		// `export * from "mod"` / `export * as ns from "mod"`.
		return []Relation{{Type: relType, DstFile: path, Meta: map[string]any{"isReExport": true}}}
	}

	type spec struct {
		Local    string `json:"local"`
		Exported string `json:"exported"`
	}
	var specifiers []spec
	for j := uint(0); j < clause.NamedChildCount(); j++ {
		s := clause.NamedChild(j)
		if s == nil || s.Kind() != "export_specifier" {
			continue
		}
		nameNode := s.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		local := tsparser.NodeText(nameNode, source)
		exported := local
		if aliasNode := s.ChildByFieldName("alias"); aliasNode != nil {
			exported = tsparser.NodeText(aliasNode, source)
		}
		specifiers = append(specifiers, spec{Local: local, Exported: exported})
	}

	specAny := make([]map[string]any, 0, len(specifiers))
	for _, s := range specifiers {
		specAny = append(specAny, map[string]any{"local": s.Local, "exported": s.Exported})
	}

	return []Relation{{
		Type:    relType,
		DstFile: path,
		Meta: map[string]any{
			"isReExport": true,
			"specifiers": specAny,
		},
	}}
}

func dynamicImportRelations(root *tree_sitter.Node, source []byte, resolver *Resolver) []Relation {
	var out []Relation
	tsparser.Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Kind() != "import" {
			return true
		}
		args := n.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() == 0 {
			return true
		}
		first := args.NamedChild(0)
		if first == nil || first.Kind() != "string" {
			return true
		}
		specifier := unquote(tsparser.NodeText(first, source))
		path, ok := resolver.Resolve(specifier)
		if !ok {
			return true
		}
		out = append(out, Relation{
			Type:    "imports",
			DstFile: path,
			Meta:    map[string]any{"isDynamic": true},
		})
		return true
	})
	return out
}
