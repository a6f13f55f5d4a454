// Package graph builds the in-memory dependency graph from relation rows
// of type imports/type-references/re-exports and answers transitive
// dependency, cycle, and fan-metric queries over it.
package graph

import "sort"

// Node identifies a file within a dependency graph, "project::filePath".
type Node = string

// Graph is the adjacency structure built once per (project |
// cross-project) key and cached until the next index run invalidates it.
type Graph struct {
	adj  map[Node]map[Node]struct{}
	radj map[Node]map[Node]struct{}
}

// Edge is a single directed dependency edge (From depends on To).
type Edge struct {
	From Node
	To   Node
}

// Build constructs a Graph from a flat edge list. Every node named by
// either side of an edge appears as a key in adj, even destination-only
// nodes (which get an empty outgoing set).
func Build(edges []Edge) *Graph {
	g := &Graph{
		adj:  make(map[Node]map[Node]struct{}),
		radj: make(map[Node]map[Node]struct{}),
	}
	ensure := func(m map[Node]map[Node]struct{}, n Node) {
		if _, ok := m[n]; !ok {
			m[n] = make(map[Node]struct{})
		}
	}
	for _, e := range edges {
		ensure(g.adj, e.From)
		ensure(g.adj, e.To)
		ensure(g.radj, e.From)
		ensure(g.radj, e.To)
		g.adj[e.From][e.To] = struct{}{}
		g.radj[e.To][e.From] = struct{}{}
	}
	return g
}

// GetDependencies returns the direct out-neighbors of n, sorted.
func (g *Graph) GetDependencies(n Node) []Node {
	return sortedKeys(g.adj[n])
}

// GetDependents returns the direct in-neighbors of n, sorted.
func (g *Graph) GetDependents(n Node) []Node {
	return sortedKeys(g.radj[n])
}

// GetTransitiveDependencies returns every node reachable from n by
// following outgoing edges (BFS), excluding n itself unless it is
// reachable again via a cycle.
func (g *Graph) GetTransitiveDependencies(n Node) []Node {
	return bfs(g.adj, n)
}

// GetTransitiveDependents returns every node that can reach n by
// following outgoing edges (BFS on the reverse graph).
func (g *Graph) GetTransitiveDependents(n Node) []Node {
	return bfs(g.radj, n)
}

// GetAffectedByChange returns the union of GetTransitiveDependents across
// every input file, deduplicated.
func (g *Graph) GetAffectedByChange(files []Node) []Node {
	seen := make(map[Node]struct{})
	for _, f := range files {
		for _, d := range g.GetTransitiveDependents(f) {
			seen[d] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// GetAdjacencyList returns a full snapshot copy of the adjacency map, as a
// list-valued map, safe for callers to mutate.
func (g *Graph) GetAdjacencyList() map[Node][]Node {
	out := make(map[Node][]Node, len(g.adj))
	for n, set := range g.adj {
		out[n] = sortedKeys(set)
	}
	return out
}

// FanMetrics is the fan-in/fan-out pair for a single node.
type FanMetrics struct {
	FanIn  int
	FanOut int
}

// GetFanMetrics returns direct fan-in (dependents) and fan-out
// (dependencies) counts for n.
func (g *Graph) GetFanMetrics(n Node) FanMetrics {
	return FanMetrics{FanIn: len(g.radj[n]), FanOut: len(g.adj[n])}
}

func bfs(adj map[Node]map[Node]struct{}, start Node) []Node {
	visited := make(map[Node]struct{})
	queue := []Node{start}
	var out []Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range adj[cur] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[Node]struct{}) []Node {
	out := make([]Node, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HasCycle reports whether the graph has any cycle, including self-loops,
// via a recursive depth-first search that colors the nodes on the current
// path gray. Returns true on the first back-edge found. The recursion
// depth grows with the longest dependency chain.
func (g *Graph) HasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[Node]int, len(g.adj))
	nodes := sortedKeys(nodeSet(g.adj))

	var visit func(Node) bool
	visit = func(n Node) bool {
		color[n] = gray
		neighbors := sortedKeys(g.adj[n])
		for _, next := range neighbors {
			switch color[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}

	for _, n := range nodes {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}

func nodeSet(adj map[Node]map[Node]struct{}) map[Node]struct{} {
	out := make(map[Node]struct{}, len(adj))
	for n := range adj {
		out[n] = struct{}{}
	}
	return out
}

// CyclePathsOptions bounds GetCyclePaths' output.
type CyclePathsOptions struct {
	MaxCycles int // 0 means unlimited
}

// GetCyclePaths enumerates every elementary circuit of the graph once, via
// Tarjan SCC decomposition followed by Johnson's elementary-circuit search
// inside each non-trivial SCC. Single-node SCCs with a self-loop emit
// [node]. Each circuit is canonicalized (trailing duplicate stripped,
// rotated so the lexicographically smallest node leads) and deduplicated.
// For acyclic graphs this returns an empty slice.
func (g *Graph) GetCyclePaths(opts CyclePathsOptions) [][]Node {
	sccs := tarjanSCCs(g.adj)
	seen := make(map[string]struct{})
	var out [][]Node

	appendCycle := func(cycle []Node) bool {
		canon := canonicalize(cycle)
		key := joinCycle(canon)
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		out = append(out, canon)
		return opts.MaxCycles > 0 && len(out) >= opts.MaxCycles
	}

	for _, scc := range sccs {
		if len(scc) == 1 {
			n := scc[0]
			if _, self := g.adj[n][n]; self {
				if appendCycle([]Node{n}) {
					return out
				}
			}
			continue
		}
		sub := subgraph(g.adj, scc)
		for _, cycle := range johnsonCircuits(sub) {
			if appendCycle(cycle) {
				return out
			}
		}
	}
	return out
}

func canonicalize(cycle []Node) []Node {
	c := append([]Node(nil), cycle...)
	if len(c) > 1 && c[0] == c[len(c)-1] {
		c = c[:len(c)-1]
	}
	minIdx := 0
	for i, n := range c {
		if n < c[minIdx] {
			minIdx = i
		}
	}
	out := make([]Node, len(c))
	for i := range c {
		out[i] = c[(minIdx+i)%len(c)]
	}
	return out
}

func joinCycle(cycle []Node) string {
	out := ""
	for i, n := range cycle {
		if i > 0 {
			out += "\x00"
		}
		out += n
	}
	return out
}

func subgraph(adj map[Node]map[Node]struct{}, nodes []Node) map[Node]map[Node]struct{} {
	set := make(map[Node]struct{}, len(nodes))
	for _, n := range nodes {
		set[n] = struct{}{}
	}
	out := make(map[Node]map[Node]struct{}, len(nodes))
	for _, n := range nodes {
		out[n] = make(map[Node]struct{})
		for next := range adj[n] {
			if _, ok := set[next]; ok {
				out[n][next] = struct{}{}
			}
		}
	}
	return out
}
