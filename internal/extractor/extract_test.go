package extractor

import (
	"testing"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

func mustExtract(t *testing.T, src string) *Result {
	t.Helper()
	r, err := Extract(tsparser.TypeScript, "src/a.ts", []byte(src), &Resolver{FileDir: "src"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return r
}

func findSymbol(r *Result, name string) (Symbol, bool) {
	for _, s := range r.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

func TestExtractFunctionDeclaration(t *testing.T) {
	r := mustExtract(t, `
/** Adds two numbers. */
export async function add(a: number, b = 1, ...rest: number[]): number {
  return a + b;
}
`)
	sym, ok := findSymbol(r, "add")
	if !ok {
		t.Fatalf("symbol add not found, got %+v", r.Symbols)
	}
	if sym.Kind != KindFunction || !sym.IsExported {
		t.Fatalf("unexpected symbol %+v", sym)
	}
	if !sym.Detail.IsAsync {
		t.Fatalf("expected async flag set")
	}
	if sym.Detail.Doc == nil || sym.Detail.Doc.Description != "Adds two numbers." {
		t.Fatalf("expected attached doc, got %+v", sym.Detail.Doc)
	}
	if len(sym.Detail.Params) != 3 {
		t.Fatalf("expected 3 params, got %+v", sym.Detail.Params)
	}
	if sym.Detail.Params[1].DefaultValue != "1" || !sym.Detail.Params[1].IsOptional {
		t.Fatalf("param b not normalized: %+v", sym.Detail.Params[1])
	}
	if sym.Detail.Params[2].Name != "...rest" {
		t.Fatalf("rest param not normalized: %+v", sym.Detail.Params[2])
	}
}

func TestExtractClassWithHeritageAndMembers(t *testing.T) {
	r := mustExtract(t, `
export class Dog extends Animal implements Pet {
  private name: string;
  constructor(name: string) { this.name = name; }
  bark(): void {}
}
`)
	class, ok := findSymbol(r, "Dog")
	if !ok {
		t.Fatalf("class Dog not found")
	}
	if len(class.Detail.Heritage) != 2 {
		t.Fatalf("expected 2 heritage entries, got %+v", class.Detail.Heritage)
	}

	if _, ok := findSymbol(r, "Dog.bark"); !ok {
		t.Fatalf("expected flattened method Dog.bark, symbols=%+v", r.Symbols)
	}
	if _, ok := findSymbol(r, "Dog.constructor"); !ok {
		t.Fatalf("expected flattened constructor Dog.constructor")
	}
	if _, ok := findSymbol(r, "Dog.name"); !ok {
		t.Fatalf("expected flattened property Dog.name")
	}

	var sawExtends, sawImplements bool
	for _, rel := range r.Relations {
		if rel.Type == "extends" && rel.DstSymbol == "Animal" {
			sawExtends = true
		}
		if rel.Type == "implements" && rel.DstSymbol == "Pet" {
			sawImplements = true
		}
	}
	if !sawExtends || !sawImplements {
		t.Fatalf("missing heritage relations: %+v", r.Relations)
	}
}

func TestExtractVariableDestructuring(t *testing.T) {
	r := mustExtract(t, `const { a, b: renamed, ...rest } = obj;`)
	if _, ok := findSymbol(r, "a"); !ok {
		t.Fatalf("expected destructured symbol a")
	}
	if _, ok := findSymbol(r, "renamed"); !ok {
		t.Fatalf("expected destructured symbol renamed")
	}
	if _, ok := findSymbol(r, "rest"); ok {
		t.Fatalf("rest element should be skipped")
	}
}

func TestExtractArrowFunctionUpgradesToFunction(t *testing.T) {
	r := mustExtract(t, `export const double = (x: number) => x * 2;`)
	sym, ok := findSymbol(r, "double")
	if !ok || sym.Kind != KindFunction {
		t.Fatalf("expected double to be upgraded to function, got %+v", sym)
	}
}

func TestExtractImportMapAndRelation(t *testing.T) {
	r := mustExtract(t, `
import Default, { helper as h } from "./util";
import * as ns from "./ns";

export function run() {
  h();
  ns.go();
}
`)
	ref, ok := r.Imports["h"]
	if !ok || ref.ImportedName != "helper" || ref.Path != "src/util.ts" {
		t.Fatalf("unexpected import map entry for h: %+v", r.Imports)
	}
	nsRef, ok := r.Imports["ns"]
	if !ok || nsRef.ImportedName != "*" {
		t.Fatalf("unexpected import map entry for ns: %+v", r.Imports)
	}

	var sawImportCall, sawNamespaceCall bool
	for _, rel := range r.Relations {
		if rel.Type == "calls" && rel.DstFile == "src/util.ts" && rel.DstSymbol == "helper" {
			sawImportCall = true
		}
		if rel.Type == "calls" && rel.DstFile == "src/ns.ts" && rel.DstSymbol == "go" {
			sawNamespaceCall = true
		}
	}
	if !sawImportCall {
		t.Fatalf("expected call relation resolved via import map: %+v", r.Relations)
	}
	if !sawNamespaceCall {
		t.Fatalf("expected call relation resolved via namespace import: %+v", r.Relations)
	}
}

func TestExtractSideEffectImportRelation(t *testing.T) {
	r := mustExtract(t, `import "./polyfill";`)
	found := false
	for _, rel := range r.Relations {
		if rel.Type == "imports" && rel.DstFile == "src/polyfill.ts" && rel.SrcSymbol == "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected side-effect import relation: %+v", r.Relations)
	}
}

func TestExtractLocalCallRelation(t *testing.T) {
	r := mustExtract(t, `
function helper() {}
function run() {
  helper();
}
`)
	found := false
	for _, rel := range r.Relations {
		if rel.Type == "calls" && rel.SrcSymbol == "run" && rel.DstFile == "src/a.ts" && rel.DstSymbol == "helper" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected local call relation: %+v", r.Relations)
	}
}

func TestExtractEnumAndInterface(t *testing.T) {
	r := mustExtract(t, `
export const enum Color { Red, Green, Blue }
export interface Shape {
  area(): number;
}
`)
	enumSym, ok := findSymbol(r, "Color")
	if !ok || enumSym.Kind != KindEnum || !enumSym.Detail.IsConst {
		t.Fatalf("unexpected enum symbol: %+v", enumSym)
	}
	if len(enumSym.Detail.Members) != 3 {
		t.Fatalf("expected 3 enum members, got %+v", enumSym.Detail.Members)
	}

	ifaceSym, ok := findSymbol(r, "Shape")
	if !ok || ifaceSym.Kind != KindInterface {
		t.Fatalf("unexpected interface symbol: %+v", ifaceSym)
	}
}
