package graph

import "sort"

// tarjanSCCs returns the strongly connected components of adj via Tarjan's
// algorithm, implemented with an explicit work stack (bounded recursion
// depth per the component's 4.9 design note on depth-first AST walks
// applying equally to graph walks).
func tarjanSCCs(adj map[Node]map[Node]struct{}) [][]Node {
	nodes := sortedKeys(nodeSet(adj))

	index := make(map[Node]int)
	lowlink := make(map[Node]int)
	onStack := make(map[Node]bool)
	var stack []Node
	counter := 0
	var sccs [][]Node

	type frame struct {
		node     Node
		children []Node
		ci       int
	}

	var strongconnect func(v Node)
	strongconnect = func(start Node) {
		var work []*frame
		push := func(n Node) {
			index[n] = counter
			lowlink[n] = counter
			counter++
			stack = append(stack, n)
			onStack[n] = true
			work = append(work, &frame{node: n, children: sortedKeys(adj[n])})
		}
		push(start)

		for len(work) > 0 {
			f := work[len(work)-1]
			if f.ci < len(f.children) {
				w := f.children[f.ci]
				f.ci++
				if _, visited := index[w]; !visited {
					push(w)
					continue
				} else if onStack[w] {
					if index[w] < lowlink[f.node] {
						lowlink[f.node] = index[w]
					}
				}
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1]
				if lowlink[f.node] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[f.node]
				}
			}

			if lowlink[f.node] == index[f.node] {
				var scc []Node
				for {
					n := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[n] = false
					scc = append(scc, n)
					if n == f.node {
						break
					}
				}
				sort.Strings(scc)
				sccs = append(sccs, scc)
			}
		}
	}

	for _, n := range nodes {
		if _, visited := index[n]; !visited {
			strongconnect(n)
		}
	}
	return sccs
}
