package extractor

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// spanOf converts a node's tree-sitter points (0-based row, 0-based
// column) into a Span with 1-based lines and 0-based columns.
func spanOf(node *tree_sitter.Node) Span {
	start := node.StartPosition()
	end := node.EndPosition()
	return Span{
		Start: Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}
