package coordinator

import (
	"log/slog"
	"path"
	"time"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/discover"
	"github.com/DeusData/ts-codebase-index/internal/extractor"
	"github.com/DeusData/ts-codebase-index/internal/indexer"
	"github.com/DeusData/ts-codebase-index/internal/store"
	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// fullIndexRun re-indexes the entire tree under one write transaction.
//
// The relations table's foreign key forbids a relation referencing a file
// row that does not exist yet, so the write is split in two passes: Pass 1
// upserts every file row, then a known-files snapshot (which sees those
// upserts) drives the resolver filter for Pass 2's symbol and relation
// writes. Removed files are deleted up front, cascading their rows.
func (c *Coordinator) fullIndexRun() (*IndexResult, error) {
	start := time.Now()
	slog.Info("coordinator.full_index.start", "root", c.root)

	boundaries, err := discover.Discover(c.root, c.dataDir)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Index, "discover boundaries", err)
	}
	c.setBoundaries(boundaries)

	sources, err := discover.SourceFiles(c.root, c.dataDir)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Index, "scan source files", err)
	}

	pre, failed := c.preRead(sources, boundaries)
	aliasCfg := c.relativeAliasConfig()

	result := &IndexResult{FailedFiles: failed}
	parsedFiles := make(map[string]*tsparser.Result)
	before := make(map[string][]store.SymbolRow)
	after := make(map[string][]store.SymbolRow)

	txErr := c.store.WithTransaction(func(tx *store.Store) error {
		existing, err := tx.GetFilesMap()
		if err != nil {
			return err
		}

		scanned := make(map[string]struct{}, len(pre))
		for _, p := range pre {
			scanned[p.Project+"::"+p.Rel] = struct{}{}
		}

		// Removed files first: delete symbols and source-side relations,
		// then the file row, which cascades dst-side rows.
		for key, f := range existing {
			if _, ok := scanned[key]; ok {
				continue
			}
			if err := tx.DeleteFileSymbols(f.Project, f.FilePath); err != nil {
				return err
			}
			if err := tx.DeleteFileRelations(f.Project, f.FilePath); err != nil {
				return err
			}
			if err := tx.DeleteFile(f.Project, f.FilePath); err != nil {
				return err
			}
			result.RemovedFiles++
			result.DeletedFiles = append(result.DeletedFiles, f.FilePath)
		}

		for _, p := range pre {
			rows, err := tx.GetFileSymbols(p.Project, p.Rel)
			if err != nil {
				return err
			}
			before[p.Rel] = rows
		}

		// Pass 1: every changed file row, so Pass 2's relations can
		// reference any of them.
		for _, p := range pre {
			if err := tx.UpsertFile(c.fileRow(p)); err != nil {
				return err
			}
		}

		known, err := tx.GetFilesMap()
		if err != nil {
			return err
		}
		filter := knownFilesFilter(known, boundaries, c.defaultProject)

		// Pass 2: parse, extract, and write symbols plus relations.
		for _, p := range pre {
			parsed, err := tsparser.Parse(p.Dialect, p.Data)
			if err != nil {
				slog.Warn("coordinator.parse", "file", p.Rel, "err", err)
				result.FailedFiles = append(result.FailedFiles, p.Rel)
				continue
			}
			res := extractor.ExtractParsed(parsed, p.Rel, &extractor.Resolver{
				FileDir: path.Dir(p.Rel),
				Alias:   aliasCfg,
				Filter:  filter,
			})
			if err := indexer.IndexFileSymbols(tx, p.Project, p.Rel, p.Hash, res); err != nil {
				parsed.Close()
				return err
			}
			if err := indexer.IndexFileRelations(tx, p.Project, p.Rel, res, boundaries); err != nil {
				parsed.Close()
				return err
			}
			if old, ok := parsedFiles[p.Rel]; ok {
				old.Close()
			}
			parsedFiles[p.Rel] = parsed
			result.IndexedFiles++
			result.ChangedFiles = append(result.ChangedFiles, p.Rel)
		}

		for _, p := range pre {
			rows, err := tx.GetFileSymbols(p.Project, p.Rel)
			if err != nil {
				return err
			}
			after[p.Rel] = rows
		}
		return nil
	})
	if txErr != nil {
		for _, parsed := range parsedFiles {
			parsed.Close()
		}
		return nil, codeerr.Wrap(codeerr.Store, "full index transaction", txErr)
	}

	// Outside the transaction: refresh caches atomically for this run.
	for rel, parsed := range parsedFiles {
		c.cachePut(rel, parsed)
	}
	for _, rel := range result.DeletedFiles {
		c.cacheDrop(rel)
	}
	c.graphs.Invalidate()

	result.ChangedSymbols = diffSymbols(before, after)
	if n, err := c.store.CountAllSymbols(); err == nil {
		result.TotalSymbols = n
	}
	if n, err := c.store.CountAllRelations(); err == nil {
		result.TotalRelations = n
	}
	result.DurationMs = time.Since(start).Milliseconds()

	slog.Info("coordinator.full_index.done",
		"files", result.IndexedFiles, "removed", result.RemovedFiles,
		"symbols", result.TotalSymbols, "relations", result.TotalRelations,
		"elapsed", time.Since(start))
	return result, nil
}
