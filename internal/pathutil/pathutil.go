// Package pathutil provides project-root-relative path normalization and
// content fingerprinting. Every function here is pure: identical input
// always yields identical output.
package pathutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// ToRelative returns abs relative to root, with backslashes normalized to
// forward slashes so paths are stable across platforms.
func ToRelative(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ToAbsolute resolves a root-relative, forward-slash path back to an
// absolute, platform-native path.
func ToAbsolute(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

// IsOutOfRoot reports whether a relative path escapes the project root,
// i.e. is ".." or starts with "../".
func IsOutOfRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, "../")
}

// HashString returns a deterministic, lowercase 16-character hex digest of s.
func HashString(s string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(s))
}

// HashFile streams path's contents through the same 64-bit hash HashString
// uses and returns a 16-character hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
