package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/qualname"
	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// qualifiedNameOf walks the longest identifier/member_expression chain
// rooted at node and returns its qualified name, e.g. "ns.foo.bar" for
// `ns.foo.bar` or just "foo" for a bare identifier. Returns ok=false for
// any other expression shape (computed member access, call results, ...).
func qualifiedNameOf(node *tree_sitter.Node, source []byte) (qualname.Name, bool) {
	var parts []string
	cur := node
	for cur != nil {
		switch cur.Kind() {
		case "identifier", "property_identifier", "type_identifier", "this":
			parts = append(parts, tsparser.NodeText(cur, source))
			reverse(parts)
			return qualname.Of(parts[0], parts[1:]...), true
		case "member_expression":
			prop := cur.ChildByFieldName("property")
			if prop == nil {
				return qualname.Name{}, false
			}
			parts = append(parts, tsparser.NodeText(prop, source))
			cur = cur.ChildByFieldName("object")
		case "nested_type_identifier":
			name := cur.ChildByFieldName("name")
			if name == nil {
				return qualname.Name{}, false
			}
			parts = append(parts, tsparser.NodeText(name, source))
			cur = cur.ChildByFieldName("module")
		default:
			return qualname.Name{}, false
		}
	}
	return qualname.Name{}, false
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
