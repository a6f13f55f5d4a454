package coordinator

import (
	"database/sql"
	"log/slog"
	"path"
	"time"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/discover"
	"github.com/DeusData/ts-codebase-index/internal/extractor"
	"github.com/DeusData/ts-codebase-index/internal/indexer"
	"github.com/DeusData/ts-codebase-index/internal/pathutil"
	"github.com/DeusData/ts-codebase-index/internal/store"
	"github.com/DeusData/ts-codebase-index/internal/tsparser"
	"github.com/DeusData/ts-codebase-index/internal/watcher"
)

// deletedSymbol is the identity a removed symbol leaves behind for
// fingerprint-based retargeting.
type deletedSymbol struct {
	Project     string
	FilePath    string
	Name        string
	Kind        string
	Fingerprint string
}

// incrementalRun re-indexes the changed subset. There is no outer
// transaction; deletions, per-file writes, and retargeting share one inner
// transaction so a crash never leaves a half-applied batch.
func (c *Coordinator) incrementalRun(events []watcher.Event) (*IndexResult, error) {
	start := time.Now()
	boundaries := c.currentBoundaries()

	changedSet := make(map[string]struct{})
	deletedSet := make(map[string]struct{})
	for _, ev := range events {
		rel, err := pathutil.ToRelative(c.root, ev.FilePath)
		if err != nil || pathutil.IsOutOfRoot(rel) {
			continue
		}
		if _, ok := tsparser.DialectForFile(rel); !ok {
			continue
		}
		switch ev.Type {
		case watcher.EventCreate, watcher.EventChange:
			delete(deletedSet, rel)
			changedSet[rel] = struct{}{}
		case watcher.EventDelete:
			delete(changedSet, rel)
			deletedSet[rel] = struct{}{}
		}
	}

	changed := sortedStrings(changedSet)
	deleted := sortedStrings(deletedSet)

	result := &IndexResult{DeletedFiles: deleted}
	if len(changed) == 0 && len(deleted) == 0 {
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}
	slog.Info("coordinator.incremental.start", "changed", len(changed), "deleted", len(deleted))

	sources := make([]discover.SourceFile, 0, len(changed))
	for _, rel := range changed {
		sources = append(sources, discover.SourceFile{
			Path:    pathutil.ToAbsolute(c.root, rel),
			RelPath: rel,
		})
	}
	pre, failed := c.preRead(sources, boundaries)
	result.FailedFiles = failed

	aliasCfg := c.relativeAliasConfig()

	var deletedSymbols []deletedSymbol
	before := make(map[string][]store.SymbolRow)
	after := make(map[string][]store.SymbolRow)
	parsedFiles := make(map[string]*tsparser.Result)

	txErr := c.store.WithTransaction(func(tx *store.Store) error {
		// Deleted symbols' identities, captured before the rows go away.
		for _, rel := range deleted {
			project := discover.ResolveFileProject(rel, boundaries, c.defaultProject)
			rows, err := tx.GetFileSymbols(project, rel)
			if err != nil {
				return err
			}
			for _, r := range rows {
				deletedSymbols = append(deletedSymbols, deletedSymbol{
					Project:     project,
					FilePath:    rel,
					Name:        r.Name,
					Kind:        r.Kind,
					Fingerprint: r.Fingerprint,
				})
			}
		}

		// Before-state snapshot of every changed file.
		for _, p := range pre {
			rows, err := tx.GetFileSymbols(p.Project, p.Rel)
			if err != nil {
				return err
			}
			before[p.Rel] = rows
		}

		// Deletions start the cascade sequence: symbols and source-side
		// relations go now, but the file row itself is kept until after
		// retargeting. Dropping it earlier would cascade away the very
		// dst-side relations a rename is supposed to carry over.
		for _, rel := range deleted {
			project := discover.ResolveFileProject(rel, boundaries, c.defaultProject)
			if err := tx.DeleteFileSymbols(project, rel); err != nil {
				return err
			}
			if err := tx.DeleteFileRelations(project, rel); err != nil {
				return err
			}
			result.RemovedFiles++
		}

		// File rows for every changed file, then the known-files snapshot
		// that keeps Pass 2 relation destinations FK-safe. Deleted files
		// are masked out so the resolver never targets them.
		for _, p := range pre {
			if err := tx.UpsertFile(c.fileRow(p)); err != nil {
				return err
			}
		}
		known, err := tx.GetFilesMap()
		if err != nil {
			return err
		}
		for _, rel := range deleted {
			project := discover.ResolveFileProject(rel, boundaries, c.defaultProject)
			delete(known, project+"::"+rel)
		}
		filter := knownFilesFilter(known, boundaries, c.defaultProject)

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

		// Fingerprint retargeting: a deleted symbol that reappears in
		// exactly one other file drags its stale relations along.
		if err := retargetDeleted(tx, deletedSymbols); err != nil {
			return err
		}

		// Now the deleted file rows can go; the cascade removes only
		// relations that genuinely dangle.
		for _, rel := range deleted {
			project := discover.ResolveFileProject(rel, boundaries, c.defaultProject)
			if err := tx.DeleteFile(project, rel); err != nil {
				return err
			}
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
		return nil, codeerr.Wrap(codeerr.Store, "incremental transaction", txErr)
	}

	for rel, parsed := range parsedFiles {
		c.cachePut(rel, parsed)
	}
	for _, rel := range deleted {
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

	slog.Info("coordinator.incremental.done",
		"indexed", result.IndexedFiles, "removed", result.RemovedFiles,
		"failed", len(result.FailedFiles), "elapsed", time.Since(start))
	return result, nil
}

// retargetDeleted repoints relations from each deleted symbol to its
// unique fingerprint match in another file, when exactly one exists.
func retargetDeleted(tx *store.Store, deletedSymbols []deletedSymbol) error {
	for _, ds := range deletedSymbols {
		if ds.Fingerprint == "" {
			continue
		}
		matches, err := tx.GetByFingerprint(ds.Project, ds.Fingerprint)
		if err != nil {
			return err
		}
		if len(matches) != 1 || matches[0].FilePath == ds.FilePath {
			continue
		}
		m := matches[0]
		err = tx.RetargetRelations(ds.Project, ds.FilePath,
			sql.NullString{String: ds.Name, Valid: true},
			m.FilePath,
			sql.NullString{String: m.Name, Valid: true})
		if err != nil {
			return err
		}
		slog.Debug("coordinator.retarget",
			"symbol", ds.Name, "from", ds.FilePath, "to", m.FilePath)
	}
	return nil
}
