package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// normalizeParams walks a function/method's "parameters" node and produces
// one normalized Param per entry, applying the parameter normalization
// rules: rest parameters get a "..." name prefix, assignment patterns and
// "?" markers both set isOptional.
func normalizeParams(paramsNode *tree_sitter.Node, source []byte) []Param {
	if paramsNode == nil {
		return nil
	}

	var params []Param
	for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
		child := paramsNode.NamedChild(i)
		if child == nil {
			continue
		}
		if p, ok := normalizeOneParam(child, source); ok {
			params = append(params, p)
		}
	}
	return params
}

func normalizeOneParam(node *tree_sitter.Node, source []byte) (Param, bool) {
	switch node.Kind() {
	case "required_parameter", "optional_parameter":
		return normalizeWrappedParam(node, source)
	case "rest_parameter", "rest_pattern":
		return normalizeRestParam(node, source)
	case "assignment_pattern":
		return normalizeAssignmentParam(node, source)
	case "identifier", "object_pattern", "array_pattern", "this":
		return Param{Name: tsparser.NodeText(node, source)}, true
	case "decorator":
		return Param{}, false
	default:
		return Param{Name: tsparser.NodeText(node, source)}, true
	}
}

func normalizeWrappedParam(node *tree_sitter.Node, source []byte) (Param, bool) {
	pattern := node.ChildByFieldName("pattern")
	if pattern == nil {
		return Param{}, false
	}

	var p Param
	switch pattern.Kind() {
	case "rest_pattern":
		rest, ok := normalizeRestParam(pattern, source)
		if !ok {
			return Param{}, false
		}
		p = rest
	case "assignment_pattern":
		ap, ok := normalizeAssignmentParam(pattern, source)
		if !ok {
			return Param{}, false
		}
		p = ap
	default:
		p = Param{Name: tsparser.NodeText(pattern, source)}
	}

	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		p.Type = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(typeNode, source), ":"))
	}
	if value := node.ChildByFieldName("value"); value != nil {
		p.IsOptional = true
		p.DefaultValue = tsparser.NodeText(value, source)
	}
	if node.Kind() == "optional_parameter" {
		p.IsOptional = true
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c != nil && c.Kind() == "decorator" {
			p.Decorators = append(p.Decorators, tsparser.NodeText(c, source))
		}
	}

	return p, true
}

func normalizeRestParam(node *tree_sitter.Node, source []byte) (Param, bool) {
	inner := node.NamedChild(0)
	if inner == nil {
		return Param{}, false
	}
	name := tsparser.NodeText(inner, source)
	p := Param{Name: "..." + name}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		p.Type = strings.TrimSpace(strings.TrimPrefix(tsparser.NodeText(typeNode, source), ":"))
	}
	return p, true
}

func normalizeAssignmentParam(node *tree_sitter.Node, source []byte) (Param, bool) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		return Param{}, false
	}
	return Param{
		Name:         tsparser.NodeText(left, source),
		IsOptional:   true,
		DefaultValue: tsparser.NodeText(right, source),
	}, true
}
