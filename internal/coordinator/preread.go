package coordinator

import (
	"bytes"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeusData/ts-codebase-index/internal/alias"
	"github.com/DeusData/ts-codebase-index/internal/discover"
	"github.com/DeusData/ts-codebase-index/internal/pathutil"
	"github.com/DeusData/ts-codebase-index/internal/store"
	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// preReadFile is one changed file's content and metadata, captured before
// the write transaction opens so no I/O happens inside it.
type preReadFile struct {
	Abs       string
	Rel       string
	Project   string
	Dialect   tsparser.Dialect
	Data      []byte
	Hash      string
	MtimeMs   int64
	Size      int64
	LineCount int
}

// preRead reads and hashes files concurrently over I/O. Failures are
// logged and reported back as failed relative paths; successes keep their
// input order so runs process files deterministically.
func (c *Coordinator) preRead(files []discover.SourceFile, boundaries []discover.Boundary) ([]preReadFile, []string) {
	type slot struct {
		file *preReadFile
		fail string
	}
	slots := make([]slot, len(files))

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			dialect, ok := tsparser.DialectForFile(f.Path)
			if !ok {
				return nil
			}
			data, err := os.ReadFile(f.Path)
			if err != nil {
				slog.Warn("coordinator.pre_read", "file", f.RelPath, "err", err)
				slots[i].fail = f.RelPath
				return nil
			}
			info, err := os.Stat(f.Path)
			if err != nil {
				slog.Warn("coordinator.pre_read.stat", "file", f.RelPath, "err", err)
				slots[i].fail = f.RelPath
				return nil
			}
			pr := &preReadFile{
				Abs:       f.Path,
				Rel:       f.RelPath,
				Project:   discover.ResolveFileProject(f.RelPath, boundaries, c.defaultProject),
				Dialect:   dialect,
				Data:      data,
				Hash:      pathutil.HashString(string(data)),
				MtimeMs:   info.ModTime().UnixMilli(),
				Size:      info.Size(),
				LineCount: lineCount(data),
			}
			slots[i].file = pr
			return nil
		})
	}
	_ = g.Wait()

	var out []preReadFile
	var failed []string
	for _, s := range slots {
		if s.file != nil {
			out = append(out, *s.file)
		} else if s.fail != "" {
			failed = append(failed, s.fail)
		}
	}
	return out, failed
}

func lineCount(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

func (c *Coordinator) fileRow(p preReadFile) store.FileRow {
	return store.FileRow{
		Project:     p.Project,
		FilePath:    p.Rel,
		MtimeMs:     p.MtimeMs,
		Size:        p.Size,
		ContentHash: p.Hash,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		LineCount:   p.LineCount,
	}
}

// relativeAliasConfig rebases an alias Config's baseUrl from absolute to
// project-relative, the form the pure resolver expects.
func (c *Coordinator) relativeAliasConfig() *alias.Config {
	cfg, err := c.aliases.Load(c.root)
	if err != nil {
		slog.Warn("coordinator.alias_load", "err", err)
		return nil
	}
	if cfg == nil {
		return nil
	}
	rebased := &alias.Config{BaseURL: "", Paths: cfg.Paths}
	if cfg.BaseURL != "" {
		rel, err := pathutil.ToRelative(c.root, cfg.BaseURL)
		if err != nil {
			slog.Warn("coordinator.alias_baseurl", "err", err)
			return nil
		}
		if rel == "." {
			rel = ""
		}
		rebased.BaseURL = rel
	}
	return rebased
}

// knownFilesFilter returns the resolver filter that picks the first
// candidate present in the current file-row snapshot, the invariant that
// keeps relation foreign keys satisfied during two-pass writes.
func knownFilesFilter(known map[string]store.FileRow, boundaries []discover.Boundary, fallback string) func([]string) (string, bool) {
	return func(candidates []string) (string, bool) {
		for _, cand := range candidates {
			project := discover.ResolveFileProject(cand, boundaries, fallback)
			if _, ok := known[project+"::"+cand]; ok {
				return cand, true
			}
		}
		return "", false
	}
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
