// Package alias loads and caches per-project path-alias configuration from
// tsconfig.json / jsconfig.json, tolerating JSONC (comments, trailing
// commas) the way editors and bundlers do.
package alias

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/jsonc"
)

// Config is the resolved alias configuration for one project root.
type Config struct {
	BaseURL string              // resolved absolute path, "" if unset
	Paths   map[string][]string // pattern -> targets, as declared
}

type tsconfigFile struct {
	CompilerOptions struct {
		BaseURL string           `json:"baseUrl"`
		Paths   map[string]any `json:"paths"`
	} `json:"compilerOptions"`
}

// Resolver loads and caches Config per project root.
type Resolver struct {
	mu    sync.Mutex
	cache map[string]*Config
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{cache: make(map[string]*Config)}
}

// Load returns the cached Config for root, loading and caching it on first
// use. Only the first file found is read: tsconfig.json, or jsconfig.json
// when tsconfig.json is absent. Returns (nil, nil) when neither exists or
// the file read declares no usable baseUrl or paths map.
func (r *Resolver) Load(root string) (*Config, error) {
	r.mu.Lock()
	if cfg, ok := r.cache[root]; ok {
		r.mu.Unlock()
		return cfg, nil
	}
	r.mu.Unlock()

	cfg, err := loadFromDisk(root)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[root] = cfg
	r.mu.Unlock()
	return cfg, nil
}

// InvalidateOne clears the cached Config for a single project root, forcing
// the next Load to re-read tsconfig.json/jsconfig.json.
func (r *Resolver) InvalidateOne(root string) {
	r.mu.Lock()
	delete(r.cache, root)
	r.mu.Unlock()
}

// InvalidateAll clears every cached Config.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]*Config)
	r.mu.Unlock()
}

func loadFromDisk(root string) (*Config, error) {
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return parseConfig(root, data)
	}
	return nil, nil
}

func parseConfig(root string, raw []byte) (*Config, error) {
	clean := jsonc.ToJSON(raw)

	var tc tsconfigFile
	if err := json.Unmarshal(clean, &tc); err != nil {
		return nil, err
	}

	cfg := &Config{Paths: make(map[string][]string)}
	if tc.CompilerOptions.BaseURL != "" {
		cfg.BaseURL = filepath.Join(root, filepath.FromSlash(tc.CompilerOptions.BaseURL))
	}
	for pattern, rawTargets := range tc.CompilerOptions.Paths {
		arr, ok := rawTargets.([]any)
		if !ok {
			continue
		}
		var targets []string
		for _, t := range arr {
			if s, ok := t.(string); ok {
				targets = append(targets, s)
			}
		}
		if len(targets) > 0 {
			cfg.Paths[pattern] = targets
		}
	}

	if cfg.BaseURL == "" && len(cfg.Paths) == 0 {
		return nil, nil
	}
	return cfg, nil
}
