// Package indexer is the per-file writer: it turns one extractor.Result
// into the symbol and relation rows the store persists.
package indexer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DeusData/ts-codebase-index/internal/discover"
	"github.com/DeusData/ts-codebase-index/internal/extractor"
	"github.com/DeusData/ts-codebase-index/internal/pathutil"
	"github.com/DeusData/ts-codebase-index/internal/store"
)

// IndexFileSymbols invokes no extraction itself; it turns an already-run
// extractor.Result into replaceable symbol rows: computing each row's
// signature, fingerprint, and detail JSON blob, then calling
// ReplaceFileSymbols.
func IndexFileSymbols(s *store.Store, project, relPath, contentHash string, result *extractor.Result) error {
	rows := make([]store.SymbolRow, 0, len(result.Symbols))
	for _, sym := range result.Symbols {
		rows = append(rows, symbolRow(project, relPath, contentHash, sym))
	}
	return s.ReplaceFileSymbols(project, relPath, rows)
}

func symbolRow(project, relPath, contentHash string, sym extractor.Symbol) store.SymbolRow {
	signature := callableSignature(sym)
	fingerprint := pathutil.HashString(sym.Name + "|" + string(sym.Kind) + "|" + signature.String)

	detailJSON, err := json.Marshal(sym.Detail)
	if err != nil {
		detailJSON = []byte("{}")
	}

	return store.SymbolRow{
		Project:       project,
		FilePath:      relPath,
		Name:          sym.Name,
		Kind:          string(sym.Kind),
		IsExported:    sym.IsExported,
		Fingerprint:   fingerprint,
		Signature:     signature,
		DetailJSON:    string(detailJSON),
		SpanStartLine: sym.Span.Start.Line,
		SpanStartCol:  sym.Span.Start.Column,
		SpanEndLine:   sym.Span.End.Line,
		SpanEndCol:    sym.Span.End.Column,
		ContentHash:   contentHash,
	}
}

func callableSignature(sym extractor.Symbol) sql.NullString {
	if sym.Kind != extractor.KindFunction && sym.Kind != extractor.KindMethod {
		return sql.NullString{}
	}
	async := 0
	if sym.Detail.IsAsync {
		async = 1
	}
	return sql.NullString{
		String: fmt.Sprintf("params:%d|async:%d", len(sym.Detail.Params), async),
		Valid:  true,
	}
}

// IndexFileRelations filters relation rows that escaped the project root,
// resolves each destination's owning project via boundaries, and calls
// ReplaceFileRelations.
func IndexFileRelations(s *store.Store, project, relPath string, result *extractor.Result, boundaries []discover.Boundary) error {
	rows := make([]store.RelationRow, 0, len(result.Relations))
	for _, rel := range result.Relations {
		if rel.DstFile != "" && strings.HasPrefix(rel.DstFile, "..") {
			continue
		}

		metaJSON, err := json.Marshal(rel.Meta)
		if err != nil {
			metaJSON = []byte("{}")
		}

		dstProject := project
		if rel.DstFile != "" {
			dstProject = discover.ResolveFileProject(rel.DstFile, boundaries, project)
		}

		rows = append(rows, store.RelationRow{
			Project:       project,
			Type:          rel.Type,
			SrcFilePath:   relPath,
			SrcSymbolName: nullableString(rel.SrcSymbol),
			DstProject:    dstProject,
			DstFilePath:   rel.DstFile,
			DstSymbolName: nullableString(rel.DstSymbol),
			MetaJSON:      string(metaJSON),
		})
	}
	return s.ReplaceFileRelations(project, relPath, rows)
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
