package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// attachedDoc returns the /** ... */ block immediately preceding node, or
// nil if none is attached. "Immediately preceding" means node's previous
// sibling is a comment node and no blank line separates them; a blank
// line breaks the doc-comment/declaration link the way JSDoc tooling
// treats it.
func attachedDoc(node *tree_sitter.Node, source []byte) *Doc {
	if node == nil {
		return nil
	}
	prev := node.PrevSibling()
	if prev == nil || prev.Kind() != "comment" {
		return nil
	}
	text := tsparser.NodeText(prev, source)
	if !strings.HasPrefix(text, "/**") {
		return nil
	}
	gap := string(source[prev.EndByte():node.StartByte()])
	if strings.Count(gap, "\n") > 1 {
		return nil
	}
	return parseDocComment(text)
}

// parseDocComment strips JSDoc block delimiters and per-line "*" prefixes,
// splitting the body into a leading description and any "@tag ..." lines.
func parseDocComment(text string) *Doc {
	body := strings.TrimSuffix(strings.TrimPrefix(text, "/**"), "*/")
	lines := strings.Split(body, "\n")

	var desc []string
	var tags []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			tags = append(tags, line)
			continue
		}
		if len(tags) == 0 {
			desc = append(desc, line)
		}
	}

	doc := &Doc{Description: strings.Join(desc, " "), Tags: tags}
	if doc.Description == "" && len(doc.Tags) == 0 {
		return nil
	}
	return doc
}
