// Package extractor turns a parsed TypeScript/JavaScript AST into the
// symbol and relation records the indexer persists: top-level symbol
// extraction, the per-file import map, and call/heritage/import relation
// extraction with qualified-name resolution.
package extractor

// Position is a 1-based line, 0-based column source location.
type Position struct {
	Line   int
	Column int
}

// Span is a symbol's or node's source extent.
type Span struct {
	Start Position
	End   Position
}

// Kind enumerates the symbol kinds the extractor produces.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindVariable  Kind = "variable"
	KindType      Kind = "type"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindProperty  Kind = "property"
)

// Param is a single normalized function/method parameter.
type Param struct {
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	IsOptional   bool     `json:"isOptional,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty"`
	Decorators   []string `json:"decorators,omitempty"`
}

// Heritage is a single extends/implements clause target.
type Heritage struct {
	Kind string `json:"kind"` // "extends" | "implements"
	Name string `json:"name"`
}

// Doc is a parsed /** ... */ block: a leading description and any @tag
// lines.
type Doc struct {
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Detail carries the optional, kind-dependent payload a Symbol encodes
// into its detail_json column.
type Detail struct {
	Params         []Param    `json:"params,omitempty"`
	ReturnType     string     `json:"returnType,omitempty"`
	Modifiers      []string   `json:"modifiers,omitempty"`
	Heritage       []Heritage `json:"heritage,omitempty"`
	Decorators     []string   `json:"decorators,omitempty"`
	Members        []string   `json:"members,omitempty"`
	TypeParameters []string   `json:"typeParameters,omitempty"`
	Doc            *Doc       `json:"doc,omitempty"`
	IsAsync        bool       `json:"async,omitempty"`
	SubKind        string     `json:"subKind,omitempty"` // constructor | getter | setter | method
	IsConst        bool       `json:"const,omitempty"`   // enum modifier
}

// Symbol is one extracted symbol, before fingerprinting/flattening by the
// indexer.
type Symbol struct {
	Name       string // qualified name; "Container.member" for flattened members
	Kind       Kind
	IsExported bool
	Span       Span
	Detail     Detail
}

// ImportRef is one local-identifier binding in a file's import map.
type ImportRef struct {
	Path         string // resolved candidate path, project-relative
	ImportedName string // original exported name, "default", or "*"
}

// Relation is one extracted relation, before project resolution by the
// indexer.
type Relation struct {
	Type      string // imports | type-references | re-exports | calls | extends | implements
	SrcSymbol string // "" means module-scope (null)
	DstFile   string // raw resolved candidate; indexer turns this into dstProject/dstFile
	DstSymbol string
	Meta      map[string]any
}

// Result is the extractor's full output for one file.
type Result struct {
	Symbols   []Symbol
	Relations []Relation
	Imports   map[string]ImportRef
}
