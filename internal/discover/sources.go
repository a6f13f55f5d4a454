package discover

import (
	"os"
	"path/filepath"

	"github.com/DeusData/ts-codebase-index/internal/tsparser"
)

// SourceFile is a discovered TypeScript/JavaScript source file.
type SourceFile struct {
	Path    string // absolute path
	RelPath string // root-relative, "/"-separated
}

// SourceFiles walks projectRoot and returns every file whose extension has
// a parser dialect, skipping the same directories Discover skips. Order is
// the walk order (lexical per directory).
func SourceFiles(projectRoot, dataDir string) ([]SourceFile, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	extraIgnore := map[string]bool{}
	if dataDir != "" {
		extraIgnore[dataDir] = true
	}

	var files []SourceFile
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
		if _, ok := tsparser.DialectForFile(path); !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, SourceFile{Path: path, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}
