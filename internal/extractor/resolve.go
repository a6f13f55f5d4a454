package extractor

import (
	"path"
	"strings"

	"github.com/DeusData/ts-codebase-index/internal/alias"
)

// Resolver turns a raw import specifier into a candidate destination path.
// Pure: it never touches the filesystem. FileDir is the importing file's
// directory, project-relative and slash-separated. BaseURL, when Alias is
// set, must already be project-relative for the same reason.
type Resolver struct {
	FileDir string
	Alias   *alias.Config
	// Filter picks among ordered candidates; nil means "take the first".
	// The coordinator injects a known-files filter here during two-pass writes.
	Filter func(candidates []string) (string, bool)
}

// Resolve tries relative specifiers first, then alias pattern
// matching, otherwise unresolved.
func (r *Resolver) Resolve(specifier string) (string, bool) {
	var candidates []string
	switch {
	case strings.HasPrefix(specifier, "."):
		candidates = relativeCandidates(r.FileDir, specifier)
	case r.Alias != nil:
		candidates = aliasCandidates(r.Alias, specifier)
	}
	if len(candidates) == 0 {
		return "", false
	}
	if r.Filter != nil {
		return r.Filter(candidates)
	}
	return candidates[0], true
}

func relativeCandidates(fileDir, specifier string) []string {
	joined := path.Join(fileDir, specifier)
	return expandExtensionCandidates(joined)
}

func aliasCandidates(cfg *alias.Config, specifier string) []string {
	for pattern, targets := range cfg.Paths {
		star := strings.IndexByte(pattern, '*')
		if star < 0 {
			if specifier != pattern {
				continue
			}
			for _, target := range targets {
				base := path.Join(cfg.BaseURL, target)
				if cands := expandExtensionCandidates(base); len(cands) > 0 {
					return cands
				}
			}
			continue
		}

		prefix, suffix := pattern[:star], pattern[star+1:]
		if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
			continue
		}
		if len(specifier) < len(prefix)+len(suffix) {
			continue
		}
		capture := specifier[len(prefix) : len(specifier)-len(suffix)]

		for _, target := range targets {
			resolved := strings.Replace(target, "*", capture, 1)
			base := path.Join(cfg.BaseURL, resolved)
			if cands := expandExtensionCandidates(base); len(cands) > 0 {
				return cands
			}
		}
	}
	return nil
}

// expandExtensionCandidates applies the extension substitution rules
// to a single resolved base path (no ".", ".." left to join).
func expandExtensionCandidates(base string) []string {
	switch {
	case strings.HasSuffix(base, ".js"):
		return []string{strings.TrimSuffix(base, ".js") + ".ts"}
	case strings.HasSuffix(base, ".mjs"):
		return []string{strings.TrimSuffix(base, ".mjs") + ".mts"}
	case strings.HasSuffix(base, ".cjs"):
		return []string{strings.TrimSuffix(base, ".cjs") + ".cts"}
	case path.Ext(base) != "":
		return []string{base}
	default:
		return []string{
			base + ".ts",
			base + ".d.ts",
			base + "/index.ts",
			base + "/index.d.ts",
			base + ".mts",
			base + "/index.mts",
			base + ".cts",
			base + "/index.cts",
		}
	}
}
