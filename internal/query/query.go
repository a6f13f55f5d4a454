// Package query is the read-only projection layer over the store: symbol
// and relation search, file statistics, module interfaces, and the graph
// analyses, all behind a closed-handle guard.
package query

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/graph"
	"github.com/DeusData/ts-codebase-index/internal/graphcache"
	"github.com/DeusData/ts-codebase-index/internal/store"
)

// Semantic optionally enriches GetFullSymbol with a resolved type. Any
// error (or panic) from the implementation is swallowed; enrichment is
// best-effort.
type Semantic interface {
	ResolveType(project, filePath, name string) (string, error)
}

// Service answers read-only queries. Every public operation fails fast
// with the closed error kind once Close has been called.
type Service struct {
	store    *store.Store
	project  string
	graphs   *graphcache.Cache
	semantic Semantic
	closed   atomic.Bool
}

// Options configures a Service.
type Options struct {
	Store    *store.Store
	Project  string // default project for project-scoped operations
	Graphs   *graphcache.Cache
	Semantic Semantic // nil disables resolved-type enrichment
}

// New creates a Service. Graphs may be shared with a coordinator so index
// runs invalidate the same cache queries rebuild from.
func New(opts Options) *Service {
	if opts.Graphs == nil {
		opts.Graphs = graphcache.New(opts.Store)
	}
	return &Service{
		store:    opts.Store,
		project:  opts.Project,
		graphs:   opts.Graphs,
		semantic: opts.Semantic,
	}
}

// Close marks the handle closed; subsequent calls fail fast.
func (s *Service) Close() {
	s.closed.Store(true)
}

func (s *Service) guard() error {
	if s.closed.Load() {
		return codeerr.New(codeerr.Closed, "query handle is closed")
	}
	return nil
}

// Stats are per-project totals.
type Stats struct {
	Project   string
	Files     int
	Symbols   int
	Relations int
}

// GetStats returns totals for the service's project.
func (s *Service) GetStats() (*Stats, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	files, err := s.store.GetAllFiles(s.project)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "get files", err)
	}
	symbols, err := s.store.CountSymbols(s.project)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "count symbols", err)
	}
	relations, err := s.store.CountRelations(s.project)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "count relations", err)
	}
	return &Stats{Project: s.project, Files: len(files), Symbols: symbols, Relations: relations}, nil
}

// SearchSymbols searches symbols within the service's project.
func (s *Service) SearchSymbols(p store.SearchSymbolParams) ([]store.SymbolRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	p.Project = s.project
	rows, err := s.store.SearchSymbols(p, false)
	return rows, codeerr.Wrap(codeerr.Search, "search symbols", err)
}

// SearchAllSymbols searches symbols across every project.
func (s *Service) SearchAllSymbols(p store.SearchSymbolParams) ([]store.SymbolRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	rows, err := s.store.SearchSymbols(p, true)
	return rows, codeerr.Wrap(codeerr.Search, "search all symbols", err)
}

// SearchRelations searches relations within the service's project.
func (s *Service) SearchRelations(p store.SearchRelationParams) ([]store.RelationRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	p.Project = s.project
	rows, err := s.store.SearchRelations(p, false)
	return rows, codeerr.Wrap(codeerr.Search, "search relations", err)
}

// SearchAllRelations searches relations across every project.
func (s *Service) SearchAllRelations(p store.SearchRelationParams) ([]store.RelationRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	rows, err := s.store.SearchRelations(p, true)
	return rows, codeerr.Wrap(codeerr.Search, "search all relations", err)
}

// GetSymbolsByFile returns every symbol recorded for one file.
func (s *Service) GetSymbolsByFile(file string) ([]store.SymbolRow, error) {
	return s.SearchSymbols(store.SearchSymbolParams{FilePath: file})
}

// GetInternalRelations returns relations whose source and destination are
// both file.
func (s *Service) GetInternalRelations(file string) ([]store.RelationRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	rows, err := s.store.GetInternalRelations(s.project, file)
	return rows, codeerr.Wrap(codeerr.Search, "internal relations", err)
}

// FileStats aggregates per-file counts.
type FileStats struct {
	FilePath  string
	Symbols   int
	Relations int
	LineCount int
	Size      int64
}

// GetFileStats returns aggregate counts for one file; a missing file is an
// error.
func (s *Service) GetFileStats(file string) (*FileStats, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	row, err := s.store.GetFile(s.project, file)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "get file", err)
	}
	if row == nil {
		return nil, codeerr.New(codeerr.Search, "file not found: "+file)
	}
	symbols, err := s.store.CountFileSymbols(s.project, file)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "count file symbols", err)
	}
	relations, err := s.store.CountFileRelations(s.project, file)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Search, "count file relations", err)
	}
	return &FileStats{
		FilePath:  file,
		Symbols:   symbols,
		Relations: relations,
		LineCount: row.LineCount,
		Size:      row.Size,
	}, nil
}

// GetDependencies returns direct dependency relations originating at file.
func (s *Service) GetDependencies(file string) ([]store.RelationRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	var out []store.RelationRow
	for _, t := range []string{"imports", "type-references", "re-exports"} {
		rows, err := s.store.SearchRelations(store.SearchRelationParams{
			Project: s.project, Type: t, SrcFilePath: file,
		}, false)
		if err != nil {
			return nil, codeerr.Wrap(codeerr.Search, "dependencies", err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// GetDependents returns direct dependency relations targeting file.
func (s *Service) GetDependents(file string) ([]store.RelationRow, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	var out []store.RelationRow
	for _, t := range []string{"imports", "type-references", "re-exports"} {
		rows, err := s.store.SearchRelations(store.SearchRelationParams{
			Project: s.project, Type: t, DstFilePath: file,
		}, false)
		if err != nil {
			return nil, codeerr.Wrap(codeerr.Search, "dependents", err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// GetAffected returns every file transitively depending on any of files.
func (s *Service) GetAffected(files []string) ([]string, error) {
	g, err := s.projectGraph()
	if err != nil {
		return nil, err
	}
	return g.GetAffectedByChange(files), nil
}

// GetTransitiveDependencies returns everything file reaches through the
// dependency graph.
func (s *Service) GetTransitiveDependencies(file string) ([]string, error) {
	g, err := s.projectGraph()
	if err != nil {
		return nil, err
	}
	return g.GetTransitiveDependencies(file), nil
}

// HasCycle reports whether the project's dependency graph has any cycle.
func (s *Service) HasCycle() (bool, error) {
	g, err := s.projectGraph()
	if err != nil {
		return false, err
	}
	return g.HasCycle(), nil
}

// GetCyclePaths enumerates elementary circuits, capped at maxCycles when
// positive.
func (s *Service) GetCyclePaths(maxCycles int) ([][]string, error) {
	g, err := s.projectGraph()
	if err != nil {
		return nil, err
	}
	return g.GetCyclePaths(graph.CyclePathsOptions{MaxCycles: maxCycles}), nil
}

// GetImportGraph returns the full adjacency snapshot.
func (s *Service) GetImportGraph() (map[string][]string, error) {
	g, err := s.projectGraph()
	if err != nil {
		return nil, err
	}
	return g.GetAdjacencyList(), nil
}

// GetFanMetrics returns direct fan-in/fan-out counts for file.
func (s *Service) GetFanMetrics(file string) (graph.FanMetrics, error) {
	g, err := s.projectGraph()
	if err != nil {
		return graph.FanMetrics{}, err
	}
	return g.GetFanMetrics(file), nil
}

func (s *Service) projectGraph() (*graph.Graph, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.graphs.ForProject(s.project)
}

// ParseRelationMeta is the defensive reader the relation metadata dialect
// requires: malformed JSON logs and yields nil.
func ParseRelationMeta(metaJSON string) map[string]any {
	if metaJSON == "" {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		slog.Warn("query.malformed_meta", "err", err)
		return nil
	}
	return meta
}
