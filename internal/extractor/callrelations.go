package extractor

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/ts-codebase-index/internal/qualname"
)

// callWalker tracks the function and class stacks for caller attribution
// while it walks the whole tree (unlike symbol extraction, which is
// top-level only).
type callWalker struct {
	source      []byte
	currentFile string
	imports     map[string]ImportRef
	funcStack   []string
	classStack  []string
	out         []Relation
}

// extractCallRelations emits one calls relation per call/new expression.
func extractCallRelations(root *tree_sitter.Node, source []byte, currentFile string, imports map[string]ImportRef) []Relation {
	w := &callWalker{source: source, currentFile: currentFile, imports: imports}
	w.walk(root)
	return w.out
}

func (w *callWalker) topFunc() string {
	if len(w.funcStack) == 0 {
		return ""
	}
	return w.funcStack[len(w.funcStack)-1]
}

func (w *callWalker) topClass() string {
	if len(w.classStack) == 0 {
		return ""
	}
	return w.classStack[len(w.classStack)-1]
}

func (w *callWalker) pushFunc(name string) { w.funcStack = append(w.funcStack, name) }
func (w *callWalker) popFunc()             { w.funcStack = w.funcStack[:len(w.funcStack)-1] }

func (w *callWalker) pushClass(name string) { w.classStack = append(w.classStack, name) }
func (w *callWalker) popClass()             { w.classStack = w.classStack[:len(w.classStack)-1] }

func (w *callWalker) walk(node *tree_sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "class_declaration", "class", "abstract_class_declaration":
		name := declName(node, w.source, false)
		w.pushClass(name)
		w.walkChildren(node)
		w.popClass()
		return

	case "method_definition":
		nameNode := node.ChildByFieldName("name")
		methodName := "<anonymous>"
		if nameNode != nil {
			methodName = string(w.source[nameNode.StartByte():nameNode.EndByte()])
		}
		full := methodName
		if cls := w.topClass(); cls != "" {
			full = cls + "." + methodName
		}
		w.pushFunc(full)
		w.walkChildren(node)
		w.popFunc()
		return

	case "function_declaration", "generator_function_declaration":
		name := declName(node, w.source, false)
		w.pushFunc(name)
		w.walkChildren(node)
		w.popFunc()
		return

	case "variable_declarator":
		nameNode := node.ChildByFieldName("name")
		value := node.ChildByFieldName("value")
		if nameNode != nil && value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression") {
			name := string(w.source[nameNode.StartByte():nameNode.EndByte()])
			w.pushFunc(name)
			w.walkChildren(node)
			w.popFunc()
			return
		}

	case "function_expression", "arrow_function":
		// Reaching here directly (not via variable_declarator/method_definition
		// above) means an anonymous function passed inline, e.g. a callback.
		var name string
		if parent := w.topFunc(); parent != "" {
			name = fmt.Sprintf("%s.<anonymous>", parent)
		} else {
			name = "<anonymous>"
		}
		w.pushFunc(name)
		w.walkChildren(node)
		w.popFunc()
		return

	case "call_expression", "new_expression":
		w.emitCall(node)
	}

	w.walkChildren(node)
}

func (w *callWalker) walkChildren(node *tree_sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

func (w *callWalker) emitCall(node *tree_sitter.Node) {
	callee := node.ChildByFieldName("function")
	if node.Kind() == "new_expression" {
		callee = node.ChildByFieldName("constructor")
	}
	if callee == nil {
		return
	}
	qn, ok := qualifiedNameOf(callee, w.source)
	if !ok {
		return
	}

	dstFile, dstSymbol, ok := resolveQualifiedTarget(qn, w.currentFile, w.imports)
	if !ok {
		return
	}

	meta := map[string]any{}
	if node.Kind() == "new_expression" {
		meta["isNew"] = true
	}
	srcSymbol := w.topFunc()
	if srcSymbol == "" {
		meta["scope"] = "module"
	}

	w.out = append(w.out, Relation{
		Type:      "calls",
		SrcSymbol: srcSymbol,
		DstFile:   dstFile,
		DstSymbol: dstSymbol,
		Meta:      meta,
	})
}

// resolveQualifiedTarget applies the four-way destination resolution
// rule for call expressions: import, local, namespace, local-member.
func resolveQualifiedTarget(qn qualname.Name, currentFile string, imports map[string]ImportRef) (dstFile, dstSymbol string, ok bool) {
	ref, isImport := imports[qn.Root]
	switch {
	case !qn.HasParts() && isImport:
		return ref.Path, ref.ImportedName, true
	case !qn.HasParts():
		return currentFile, qn.Root, true
	case isImport && ref.ImportedName == "*":
		return ref.Path, qn.Last(), true
	default:
		return currentFile, qn.Full, true
	}
}
