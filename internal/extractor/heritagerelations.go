package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// extractHeritageRelations emits extends/implements relations for
// every top-level class/interface declaration.
func extractHeritageRelations(program *tree_sitter.Node, source []byte, currentFile string, imports map[string]ImportRef) []Relation {
	var out []Relation
	if program == nil {
		return out
	}
	for i := uint(0); i < program.NamedChildCount(); i++ {
		stmt := program.NamedChild(i)
		if stmt == nil {
			continue
		}
		decl, _, _ := exportedDecl(stmt)
		if decl == nil {
			continue
		}
		switch decl.Kind() {
		case "class_declaration", "class", "abstract_class_declaration":
			out = append(out, heritageRelationsForClass(decl, source, currentFile, imports)...)
		case "interface_declaration":
			out = append(out, heritageRelationsForInterface(decl, source, currentFile, imports)...)
		}
	}
	return out
}

func heritageRelationsForClass(node *tree_sitter.Node, source []byte, currentFile string, imports map[string]ImportRef) []Relation {
	var out []Relation
	for i := uint(0); i < node.ChildCount(); i++ {
		heritage := node.Child(i)
		if heritage == nil || heritage.Kind() != "class_heritage" {
			continue
		}
		for j := uint(0); j < heritage.ChildCount(); j++ {
			clause := heritage.Child(j)
			if clause == nil {
				continue
			}
			var relType string
			switch clause.Kind() {
			case "extends_clause":
				relType = "extends"
			case "implements_clause":
				relType = "implements"
			default:
				continue
			}
			for k := uint(0); k < clause.NamedChildCount(); k++ {
				target := clause.NamedChild(k)
				if target == nil {
					continue
				}
				if rel, ok := heritageRelation(target, source, relType, currentFile, imports); ok {
					out = append(out, rel)
				}
			}
		}
	}
	return out
}

func heritageRelationsForInterface(node *tree_sitter.Node, source []byte, currentFile string, imports map[string]ImportRef) []Relation {
	var out []Relation
	for i := uint(0); i < node.ChildCount(); i++ {
		clause := node.Child(i)
		if clause == nil || (clause.Kind() != "extends_clause" && clause.Kind() != "extends_type_clause") {
			continue
		}
		for k := uint(0); k < clause.NamedChildCount(); k++ {
			target := clause.NamedChild(k)
			if target == nil {
				continue
			}
			if rel, ok := heritageRelation(target, source, "extends", currentFile, imports); ok {
				out = append(out, rel)
			}
		}
	}
	return out
}

// heritageRelation mirrors the call-resolution rule with the
// variations heritage clauses require: a regular import always resolves
// to its source file regardless of member chain, and local targets are
// flagged explicitly instead of falling through silently.
func heritageRelation(target *tree_sitter.Node, source []byte, relType, currentFile string, imports map[string]ImportRef) (Relation, bool) {
	nameNode := target
	if target.Kind() == "generic_type" {
		if n := target.ChildByFieldName("name"); n != nil {
			nameNode = n
		}
	}
	qn, ok := qualifiedNameOf(nameNode, source)
	if !ok {
		return Relation{}, false
	}

	ref, isImport := imports[qn.Root]
	var dstFile, dstSymbol string
	meta := map[string]any{}
	switch {
	case isImport && ref.ImportedName == "*":
		dstFile = ref.Path
		dstSymbol = qn.Last()
		meta["isNamespaceImport"] = true
	case isImport:
		dstFile = ref.Path
		if qn.HasParts() {
			dstSymbol = qn.Full
		} else {
			dstSymbol = ref.ImportedName
		}
	default:
		dstFile = currentFile
		dstSymbol = qn.Full
		meta["isLocal"] = true
	}

	return Relation{Type: relType, DstFile: dstFile, DstSymbol: dstSymbol, Meta: meta}, true
}
