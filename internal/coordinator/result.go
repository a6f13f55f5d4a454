package coordinator

import (
	"github.com/DeusData/ts-codebase-index/internal/store"
)

// SymbolChange identifies one symbol in a run's diff.
type SymbolChange struct {
	FilePath string
	Name     string
	Kind     string
}

// SymbolDiff is the before/after comparison a run reports for its changed
// files: added (after only), modified (both, fingerprint differs), removed
// (before only).
type SymbolDiff struct {
	Added    []SymbolChange
	Modified []SymbolChange
	Removed  []SymbolChange
}

// IndexResult summarizes one full or incremental run.
type IndexResult struct {
	IndexedFiles   int
	RemovedFiles   int
	TotalSymbols   int
	TotalRelations int
	DurationMs     int64
	ChangedFiles   []string
	DeletedFiles   []string
	FailedFiles    []string
	ChangedSymbols SymbolDiff
}

// diffSymbols computes the per-file symbol diff between two snapshots,
// keyed by symbol name within each file.
func diffSymbols(before, after map[string][]store.SymbolRow) SymbolDiff {
	var diff SymbolDiff
	for file, afterRows := range after {
		beforeByName := make(map[string]store.SymbolRow)
		for _, r := range before[file] {
			beforeByName[r.Name] = r
		}
		for _, r := range afterRows {
			prev, existed := beforeByName[r.Name]
			switch {
			case !existed:
				diff.Added = append(diff.Added, SymbolChange{FilePath: file, Name: r.Name, Kind: r.Kind})
			case prev.Fingerprint != r.Fingerprint:
				diff.Modified = append(diff.Modified, SymbolChange{FilePath: file, Name: r.Name, Kind: r.Kind})
			}
			delete(beforeByName, r.Name)
		}
		for _, r := range beforeByName {
			diff.Removed = append(diff.Removed, SymbolChange{FilePath: file, Name: r.Name, Kind: r.Kind})
		}
	}
	for file, beforeRows := range before {
		if _, seen := after[file]; seen {
			continue
		}
		for _, r := range beforeRows {
			diff.Removed = append(diff.Removed, SymbolChange{FilePath: file, Name: r.Name, Kind: r.Kind})
		}
	}
	return diff
}
