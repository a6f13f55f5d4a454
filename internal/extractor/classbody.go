package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// extractClassSymbols returns the class symbol itself plus one flattened
// "Container.member" symbol per method/property in its body.
func extractClassSymbols(node *tree_sitter.Node, source []byte, isExported, isDefault bool, doc *Doc) []Symbol {
	name := declName(node, source, isDefault)
	body := node.ChildByFieldName("body")

	classSym := Symbol{
		Name:       name,
		Kind:       KindClass,
		IsExported: isExported,
		Span:       spanOf(node),
		Detail: Detail{
			Heritage:       heritageOf(node, source),
			Decorators:     decoratorTexts(node, source),
			TypeParameters: typeParameterNames(node, source),
			Modifiers:      modifiersOf(node, source),
			Members:        memberSignatures(body, source),
			Doc:            doc,
		},
	}

	out := []Symbol{classSym}
	if body == nil {
		return out
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		if member == nil {
			continue
		}
		switch member.Kind() {
		case "method_definition":
			if sym, ok := extractMethodSymbol(member, name, source); ok {
				out = append(out, sym)
			}
		case "public_field_definition", "property_definition":
			if sym, ok := extractPropertySymbol(member, name, source); ok {
				out = append(out, sym)
			}
		}
	}
	return out
}

func extractMethodSymbol(node *tree_sitter.Node, containerName string, source []byte) (Symbol, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Symbol{}, false
	}
	memberName := tsparser.NodeText(nameNode, source)

	subKind := "method"
	switch {
	case memberName == "constructor":
		subKind = "constructor"
	case hasModifier(node, "get"):
		subKind = "getter"
	case hasModifier(node, "set"):
		subKind = "setter"
	}

	detail := Detail{
		Params:         normalizeParams(node.ChildByFieldName("parameters"), source),
		Modifiers:      modifiersOf(node, source),
		TypeParameters: typeParameterNames(node, source),
		Decorators:     decoratorTexts(node, source),
		IsAsync:        hasModifier(node, "async"),
		SubKind:        subKind,
	}
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		detail.ReturnType = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(rt, source), ":"))
	}

	return Symbol{
		Name:       containerName + "." + memberName,
		Kind:       KindMethod,
		IsExported: false,
		Span:       spanOf(node),
		Detail:     detail,
	}, true
}

func extractPropertySymbol(node *tree_sitter.Node, containerName string, source []byte) (Symbol, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Symbol{}, false
	}
	memberName := tsparser.NodeText(nameNode, source)

	detail := Detail{
		Modifiers:  modifiersOf(node, source),
		Decorators: decoratorTexts(node, source),
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		detail.ReturnType = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(typeNode, source), ":"))
	}

	return Symbol{
		Name:       containerName + "." + memberName,
		Kind:       KindProperty,
		IsExported: false,
		Span:       spanOf(node),
		Detail:     detail,
	}, true
}
