package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// extractSymbols walks top-level program statements only; it
// never recurses into function bodies looking for nested declarations.
func extractSymbols(program *tree_sitter.Node, source []byte) []Symbol {
	if program == nil {
		return nil
	}

	var out []Symbol
	for i := uint(0); i < program.NamedChildCount(); i++ {
		stmt := program.NamedChild(i)
		if stmt == nil {
			continue
		}
		out = append(out, extractTopLevelStatement(stmt, source)...)
	}
	return out
}

// exportedDecl unwraps an "export_statement" into its underlying
// declaration node, reporting whether it was a default export.
func exportedDecl(stmt *tree_sitter.Node) (decl *tree_sitter.Node, isExported, isDefault bool) {
	if stmt.Kind() != "export_statement" {
		return stmt, false, false
	}
	if d := stmt.ChildByFieldName("declaration"); d != nil {
		return d, true, false
	}
	if v := stmt.ChildByFieldName("value"); v != nil {
		return v, true, true
	}
	// export { ... } / export * from "..." carries no declaration of its
	// own; relation extraction handles these as re-exports.
	return nil, true, false
}

func extractTopLevelStatement(stmt *tree_sitter.Node, source []byte) []Symbol {
	decl, isExported, isDefault := exportedDecl(stmt)
	if decl == nil {
		return nil
	}

	doc := attachedDoc(stmt, source)

	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration":
		return oneOrNone(extractFunctionSymbol(decl, source, isExported, isDefault, doc))
	case "function_expression", "arrow_function":
		if !isDefault {
			return nil
		}
		return oneOrNone(extractFunctionSymbol(decl, source, isExported, isDefault, doc))
	case "class_declaration", "class", "abstract_class_declaration":
		return extractClassSymbols(decl, source, isExported, isDefault, doc)
	case "interface_declaration":
		return extractInterfaceSymbols(decl, source, isExported, doc)
	case "enum_declaration":
		return extractEnumSymbols(decl, source, isExported, doc)
	case "type_alias_declaration":
		return oneOrNone(extractTypeAliasSymbol(decl, source, isExported, doc))
	case "lexical_declaration", "variable_declaration":
		return extractVariableSymbols(decl, source, isExported, isDefault, doc)
	default:
		return nil
	}
}

func oneOrNone(s Symbol, ok bool) []Symbol {
	if !ok {
		return nil
	}
	return []Symbol{s}
}

func declName(node *tree_sitter.Node, source []byte, isDefault bool) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return tsparser.NodeText(nameNode, source)
	}
	if isDefault {
		return "default"
	}
	return "<anonymous>"
}

func hasModifier(node *tree_sitter.Node, keyword string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c != nil && c.Kind() == keyword {
			return true
		}
	}
	return false
}

func typeParameterNames(node *tree_sitter.Node, source []byte) []string {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		return nil
	}
	var names []string
	for i := uint(0); i < tp.NamedChildCount(); i++ {
		c := tp.NamedChild(i)
		if c == nil {
			continue
		}
		if nameNode := c.ChildByFieldName("name"); nameNode != nil {
			names = append(names, tsparser.NodeText(nameNode, source))
		} else {
			names = append(names, tsparser.NodeText(c, source))
		}
	}
	return names
}

func decoratorTexts(stmt *tree_sitter.Node, source []byte) []string {
	var out []string
	prev := stmt.PrevSibling()
	for prev != nil && prev.Kind() == "decorator" {
		out = append([]string{tsparser.NodeText(prev, source)}, out...)
		prev = prev.PrevSibling()
	}
	return out
}

func extractFunctionSymbol(node *tree_sitter.Node, source []byte, isExported, isDefault bool, doc *Doc) (Symbol, bool) {
	name := declName(node, source, isDefault)
	detail := Detail{
		Params:         normalizeParams(node.ChildByFieldName("parameters"), source),
		Modifiers:      modifiersOf(node, source),
		TypeParameters: typeParameterNames(node, source),
		IsAsync:        hasModifier(node, "async"),
		Doc:            doc,
	}
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		detail.ReturnType = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(rt, source), ":"))
	}
	return Symbol{
		Name:       name,
		Kind:       KindFunction,
		IsExported: isExported,
		Span:       spanOf(node),
		Detail:     detail,
	}, true
}

func modifiersOf(node *tree_sitter.Node, source []byte) []string {
	var mods []string
	for _, kw := range []string{"async", "static", "readonly", "public", "private", "protected", "abstract", "override", "declare"} {
		if hasModifier(node, kw) {
			mods = append(mods, kw)
		}
	}
	return mods
}

func extractVariableSymbols(node *tree_sitter.Node, source []byte, isExported, isDefault bool, doc *Doc) []Symbol {
	var out []Symbol
	isConst := hasModifier(node, "const")
	for i := uint(0); i < node.NamedChildCount(); i++ {
		decl := node.NamedChild(i)
		if decl == nil || decl.Kind() != "variable_declarator" {
			continue
		}
		out = append(out, variableDeclaratorSymbols(decl, source, isExported, isDefault, isConst, doc)...)
	}
	return out
}

func variableDeclaratorSymbols(decl *tree_sitter.Node, source []byte, isExported, isDefault, isConst bool, doc *Doc) []Symbol {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	value := decl.ChildByFieldName("value")

	switch nameNode.Kind() {
	case "object_pattern", "array_pattern":
		return destructuredSymbols(nameNode, source, isExported, doc)
	}

	name := tsparser.NodeText(nameNode, source)
	if value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression") {
		sym, ok := extractFunctionSymbol(value, source, isExported, false, doc)
		if !ok {
			return nil
		}
		sym.Name = name
		sym.Span = spanOf(decl)
		return []Symbol{sym}
	}

	detail := Detail{Doc: doc, IsConst: isConst}
	if typeNode := decl.ChildByFieldName("type"); typeNode != nil {
		detail.ReturnType = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(typeNode, source), ":"))
	}
	return []Symbol{{
		Name:       name,
		Kind:       KindVariable,
		IsExported: isExported,
		Span:       spanOf(decl),
		Detail:     detail,
	}}
}

// destructuredSymbols flattens `{a, b}` / `[a, b]` patterns into one
// variable symbol per bound identifier, skipping holes and rest elements.
func destructuredSymbols(pattern *tree_sitter.Node, source []byte, isExported bool, doc *Doc) []Symbol {
	var out []Symbol
	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		c := pattern.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "shorthand_property_identifier_pattern", "identifier":
			out = append(out, Symbol{
				Name:       tsparser.NodeText(c, source),
				Kind:       KindVariable,
				IsExported: isExported,
				Span:       spanOf(c),
				Detail:     Detail{Doc: doc},
			})
		case "pair_pattern":
			if v := c.ChildByFieldName("value"); v != nil && v.Kind() == "identifier" {
				out = append(out, Symbol{
					Name:       tsparser.NodeText(v, source),
					Kind:       KindVariable,
					IsExported: isExported,
					Span:       spanOf(v),
					Detail:     Detail{Doc: doc},
				})
			}
		case "rest_pattern", "assignment_pattern":
			// rest elements and default-valued elements without a further
			// nested pattern are intentionally skipped.
		}
	}
	return out
}

// extractInterfaceSymbols returns the interface symbol itself plus one
// flattened "Container.member" symbol per property/method signature.
func extractInterfaceSymbols(node *tree_sitter.Node, source []byte, isExported bool, doc *Doc) []Symbol {
	name := declName(node, source, false)
	body := node.ChildByFieldName("body")
	detail := Detail{
		Heritage:       heritageOf(node, source),
		TypeParameters: typeParameterNames(node, source),
		Members:        memberSignatures(body, source),
		Doc:            doc,
	}
	out := []Symbol{{
		Name:       name,
		Kind:       KindInterface,
		IsExported: isExported,
		Span:       spanOf(node),
		Detail:     detail,
	}}
	if body == nil {
		return out
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		if m == nil {
			continue
		}
		nameNode := m.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		kind := KindProperty
		memberDetail := Detail{}
		if m.Kind() == "method_signature" {
			kind = KindMethod
			memberDetail.SubKind = "method"
			memberDetail.Params = normalizeParams(m.ChildByFieldName("parameters"), source)
			if rt := m.ChildByFieldName("return_type"); rt != nil {
				memberDetail.ReturnType = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(rt, source), ":"))
			}
		} else if t := m.ChildByFieldName("type"); t != nil {
			memberDetail.ReturnType = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(t, source), ":"))
		}
		out = append(out, Symbol{
			Name:   name + "." + tsparser.NodeText(nameNode, source),
			Kind:   kind,
			Span:   spanOf(m),
			Detail: memberDetail,
		})
	}
	return out
}

// extractEnumSymbols returns the enum symbol itself plus one flattened
// "Container.member" property symbol per enum entry.
func extractEnumSymbols(node *tree_sitter.Node, source []byte, isExported bool, doc *Doc) []Symbol {
	name := declName(node, source, false)
	body := node.ChildByFieldName("body")
	var members []string
	out := []Symbol{{
		Name:       name,
		Kind:       KindEnum,
		IsExported: isExported,
		Span:       spanOf(node),
	}}
	if body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			m := body.NamedChild(i)
			if m == nil {
				continue
			}
			memberName := tsparser.NodeText(m, source)
			if nameNode := m.ChildByFieldName("name"); nameNode != nil {
				memberName = tsparser.NodeText(nameNode, source)
			}
			members = append(members, memberName)
			out = append(out, Symbol{
				Name: name + "." + memberName,
				Kind: KindProperty,
				Span: spanOf(m),
			})
		}
	}
	out[0].Detail = Detail{Members: members, IsConst: hasModifier(node, "const"), Doc: doc}
	return out
}

func extractTypeAliasSymbol(node *tree_sitter.Node, source []byte, isExported bool, doc *Doc) (Symbol, bool) {
	name := declName(node, source, false)
	return Symbol{
		Name:       name,
		Kind:       KindType,
		IsExported: isExported,
		Span:       spanOf(node),
		Detail:     Detail{TypeParameters: typeParameterNames(node, source), Doc: doc},
	}, true
}

func heritageOf(node *tree_sitter.Node, source []byte) []Heritage {
	var out []Heritage
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		var kind string
		switch c.Kind() {
		case "class_heritage":
			out = append(out, classHeritageOf(c, source)...)
			continue
		case "extends_clause", "extends_type_clause":
			kind = "extends"
		case "implements_clause":
			kind = "implements"
		default:
			continue
		}
		for j := uint(0); j < c.NamedChildCount(); j++ {
			t := c.NamedChild(j)
			if t == nil {
				continue
			}
			out = append(out, Heritage{Kind: kind, Name: tsparser.NodeText(t, source)})
		}
	}
	return out
}

func classHeritageOf(node *tree_sitter.Node, source []byte) []Heritage {
	var out []Heritage
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		var kind string
		switch c.Kind() {
		case "extends_clause":
			kind = "extends"
		case "implements_clause":
			kind = "implements"
		default:
			continue
		}
		for j := uint(0); j < c.NamedChildCount(); j++ {
			t := c.NamedChild(j)
			if t == nil {
				continue
			}
			out = append(out, Heritage{Kind: kind, Name: tsparser.NodeText(t, source)})
		}
	}
	return out
}

func memberSignatures(body *tree_sitter.Node, source []byte) []string {
	if body == nil {
		return nil
	}
	var out []string
	for i := uint(0); i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		if m == nil {
			continue
		}
		if nameNode := m.ChildByFieldName("name"); nameNode != nil {
			out = append(out, tsparser.NodeText(nameNode, source))
		}
	}
	return out
}
