package graph

// johnsonCircuits enumerates every elementary circuit in adj (expected to
// already be restricted to a single strongly connected component) using
// Johnson's algorithm: a least-vertex-first DFS with a blocked set and a
// blocked-node dependency map that unblocks ancestors once a circuit
// closes through them.
func johnsonCircuits(adj map[Node]map[Node]struct{}) [][]Node {
	nodes := sortedKeys(nodeSet(adj))

	var circuits [][]Node
	blocked := make(map[Node]bool)
	blockMap := make(map[Node]map[Node]struct{})
	var path []Node

	unblock := func(n Node) {
		var rec func(Node)
		rec = func(u Node) {
			blocked[u] = false
			for w := range blockMap[u] {
				delete(blockMap[u], w)
				if blocked[w] {
					rec(w)
				}
			}
		}
		rec(n)
	}

	for i, start := range nodes {
		// Restrict the search to the subgraph induced by nodes[i:], the
		// least-vertex-first convention that guarantees each circuit is
		// discovered exactly once (rooted at its smallest member).
		sub := subgraph(adj, nodes[i:])

		for n := range blocked {
			delete(blocked, n)
		}
		for n := range blockMap {
			delete(blockMap, n)
		}

		var circuit func(v Node) bool
		circuit = func(v Node) bool {
			found := false
			path = append(path, v)
			blocked[v] = true

			for w := range sub[v] {
				if w == start {
					out := make([]Node, len(path)+1)
					copy(out, path)
					out[len(path)] = start
					circuits = append(circuits, out)
					found = true
				} else if !blocked[w] {
					if circuit(w) {
						found = true
					}
				}
			}

			if found {
				unblock(v)
			} else {
				for w := range sub[v] {
					if blockMap[w] == nil {
						blockMap[w] = make(map[Node]struct{})
					}
					blockMap[w][v] = struct{}{}
				}
			}

			path = path[:len(path)-1]
			return found
		}

		circuit(start)
	}

	return circuits
}
