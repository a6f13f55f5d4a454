// Package discover walks a TypeScript/JavaScript monorepo for package
// manifests and resolves arbitrary file paths to the project that owns
// them.
package discover

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ignoreDirs are directory names never descended into while discovering
// package manifests.
var ignoreDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
}

// Boundary identifies a sub-tree of the monorepo as a named project.
type Boundary struct {
	Dir  string // root-relative, "/"-separated; "." for the repo root
	Name string
}

// manifest is the subset of package.json fields discovery needs.
type manifest struct {
	Name string `json:"name"`
}

// Discover walks projectRoot for package.json manifests (excluding
// node_modules, .git, dataDir, and dist) and returns project boundaries
// sorted by directory length descending, so the most specific match wins
// when resolving a file to its project.
func Discover(projectRoot, dataDir string) ([]Boundary, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	extraIgnore := map[string]bool{}
	if dataDir != "" {
		extraIgnore[dataDir] = true
	}

	var boundaries []Boundary

	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if info.IsDir() {
			name := info.Name()
			if ignoreDirs[name] || extraIgnore[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() != "package.json" {
			return nil
		}

		dir := filepath.Dir(path)
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		name := projectNameFromManifest(path, dir, rel)
		boundaries = append(boundaries, Boundary{Dir: rel, Name: name})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.SliceStable(boundaries, func(i, j int) bool {
		return len(boundaries[i].Dir) > len(boundaries[j].Dir)
	})
	return boundaries, nil
}

// projectNameFromManifest reads package.json's "name" field, falling back
// to the directory's basename (or the repo root's own basename for ".").
func projectNameFromManifest(manifestPath, dir, relDir string) string {
	data, err := os.ReadFile(manifestPath)
	if err == nil {
		var m manifest
		if json.Unmarshal(data, &m) == nil && strings.TrimSpace(m.Name) != "" {
			return m.Name
		}
	}
	if relDir == "." {
		return filepath.Base(dir)
	}
	return filepath.Base(dir)
}

// ResolveFileProject returns the project that owns a root-relative path,
// using the first boundary whose directory matches or prefixes it. Because
// boundaries are sorted longest-dir-first, the deepest enclosing boundary
// wins. Falls back to the "." boundary if present, else the given fallback.
func ResolveFileProject(relPath string, boundaries []Boundary, fallback string) string {
	relPath = filepath.ToSlash(relPath)
	var dotFallback string
	haveDot := false
	for _, b := range boundaries {
		if b.Dir == relPath || strings.HasPrefix(relPath, b.Dir+"/") {
			return b.Name
		}
		if b.Dir == "." {
			dotFallback = b.Name
			haveDot = true
		}
	}
	if haveDot {
		return dotFallback
	}
	return fallback
}
