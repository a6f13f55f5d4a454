// Package graphcache owns the per-project dependency graph instances the
// query layer reuses between index runs. Graphs are built lazily from
// relation rows of type imports/type-references/re-exports and dropped
// wholesale when the coordinator invalidates at the end of a run.
package graphcache

import (
	"sync"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/graph"
	"github.com/DeusData/ts-codebase-index/internal/store"
)

// dependencyTypes are the relation types that contribute graph edges.
var dependencyTypes = []string{"imports", "type-references", "re-exports"}

// crossProjectKey caches the all-projects graph separately from any single
// project's graph.
const crossProjectKey = "\x00cross-project"

// Cache lazily builds and memoizes dependency graphs per project.
type Cache struct {
	mu     sync.Mutex
	store  *store.Store
	graphs map[string]*graph.Graph
}

// New creates an empty Cache reading from s.
func New(s *store.Store) *Cache {
	return &Cache{store: s, graphs: make(map[string]*graph.Graph)}
}

// ForProject returns the dependency graph of a single project, building it
// from relation rows on first use. Nodes are root-relative file paths.
func (c *Cache) ForProject(project string) (*graph.Graph, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.graphs[project]; ok {
		return g, nil
	}
	rows, err := c.store.GetByType(project, dependencyTypes)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Store, "load relations for graph", err)
	}
	g := graph.Build(edges(rows, false))
	c.graphs[project] = g
	return g, nil
}

// CrossProject returns the graph spanning every project, with nodes keyed
// "project::filePath".
func (c *Cache) CrossProject() (*graph.Graph, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.graphs[crossProjectKey]; ok {
		return g, nil
	}
	rows, err := c.store.GetAllByType(dependencyTypes)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.Store, "load relations for cross-project graph", err)
	}
	g := graph.Build(edges(rows, true))
	c.graphs[crossProjectKey] = g
	return g, nil
}

// Invalidate drops every cached graph; the next query rebuilds from the
// store. Called by the coordinator at the end of each index run.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.graphs = make(map[string]*graph.Graph)
	c.mu.Unlock()
}

func edges(rows []store.RelationRow, crossProject bool) []graph.Edge {
	out := make([]graph.Edge, 0, len(rows))
	for _, r := range rows {
		from, to := r.SrcFilePath, r.DstFilePath
		if crossProject {
			from = r.Project + "::" + r.SrcFilePath
			to = r.DstProject + "::" + r.DstFilePath
		}
		out = append(out, graph.Edge{From: from, To: to})
	}
	return out
}
