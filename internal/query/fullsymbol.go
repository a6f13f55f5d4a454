package query

import (
	"encoding/json"
	"log/slog"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/extractor"
	"github.com/DeusData/ts-codebase-index/internal/store"
)

// FullSymbol is GetFullSymbol's reconstituted view of one symbol row.
type FullSymbol struct {
	Project        string
	FilePath       string
	Name           string
	Kind           string
	IsExported     bool
	Signature      string
	Fingerprint    string
	Span           extractor.Span
	Params         []extractor.Param
	ReturnType     string
	Modifiers      []string
	Heritage       []extractor.Heritage
	Decorators     []string
	Members        []string
	TypeParameters []string
	Doc            *extractor.Doc
	IsAsync        bool
	ResolvedType   string // semantic-layer enrichment, best effort
}

// GetFullSymbol returns the exact (name, file) match with its detail
// payload reconstituted. Wrong-typed detail fields are ignored silently;
// a failing semantic layer only costs the resolvedType.
func (s *Service) GetFullSymbol(name, file string) (*FullSymbol, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	row, err := s.store.GetFullSymbol(s.project, name, file)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "get full symbol", err)
	}
	if row == nil {
		return nil, codeerr.New(codeerr.Search, "symbol not found: "+name)
	}

	out := &FullSymbol{
		Project:     row.Project,
		FilePath:    row.FilePath,
		Name:        row.Name,
		Kind:        row.Kind,
		IsExported:  row.IsExported,
		Fingerprint: row.Fingerprint,
		Span: extractor.Span{
			Start: extractor.Position{Line: row.SpanStartLine, Column: row.SpanStartCol},
			End:   extractor.Position{Line: row.SpanEndLine, Column: row.SpanEndCol},
		},
	}
	if row.Signature.Valid {
		out.Signature = row.Signature.String
	}
	decodeDetail(row, out)

	if s.semantic != nil {
		out.ResolvedType = s.resolveType(row)
	}
	return out, nil
}

// decodeDetail reconstitutes detail_json field by field so one wrong-typed
// field never discards the rest.
func decodeDetail(row *store.SymbolRow, out *FullSymbol) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(row.DetailJSON), &raw); err != nil {
		slog.Warn("query.malformed_detail", "symbol", row.Name, "err", err)
		return
	}
	tryDecode(raw, "params", &out.Params)
	tryDecode(raw, "returnType", &out.ReturnType)
	tryDecode(raw, "modifiers", &out.Modifiers)
	tryDecode(raw, "heritage", &out.Heritage)
	tryDecode(raw, "decorators", &out.Decorators)
	tryDecode(raw, "members", &out.Members)
	tryDecode(raw, "typeParameters", &out.TypeParameters)
	tryDecode(raw, "doc", &out.Doc)
	tryDecode(raw, "async", &out.IsAsync)
}

func tryDecode[T any](raw map[string]json.RawMessage, key string, dst *T) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return
	}
	*dst = v
}

// resolveType guards the semantic layer: an error or panic there yields an
// empty resolved type, never a failed query.
func (s *Service) resolveType(row *store.SymbolRow) (resolved string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("query.semantic_panic", "symbol", row.Name, "err", r)
			resolved = ""
		}
	}()
	t, err := s.semantic.ResolveType(row.Project, row.FilePath, row.Name)
	if err != nil {
		slog.Debug("query.semantic", "symbol", row.Name, "err", err)
		return ""
	}
	return t
}

// InterfaceSymbol is one exported symbol in a module's public surface.
type InterfaceSymbol struct {
	Name       string
	Kind       string
	Signature  string
	Params     []extractor.Param
	ReturnType string
	Doc        *extractor.Doc
}

// GetModuleInterface projects a file's exported symbols with their
// parameters, return types, and doc blocks when present.
func (s *Service) GetModuleInterface(file string) ([]InterfaceSymbol, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	rows, err := s.store.SearchSymbols(store.SearchSymbolParams{
		Project:      s.project,
		FilePath:     file,
		ExportedOnly: true,
	}, false)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "module interface", err)
	}

	out := make([]InterfaceSymbol, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		full := &FullSymbol{}
		decodeDetail(row, full)
		sym := InterfaceSymbol{
			Name:       row.Name,
			Kind:       row.Kind,
			Params:     full.Params,
			ReturnType: full.ReturnType,
			Doc:        full.Doc,
		}
		if row.Signature.Valid {
			sym.Signature = row.Signature.String
		}
		out = append(out, sym)
	}
	return out, nil
}
