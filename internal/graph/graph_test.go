package graph

import "testing"

func TestDirectDependenciesAndDependents(t *testing.T) {
	g := Build([]Edge{{"a", "b"}, {"a", "c"}, {"b", "c"}})

	if got := g.GetDependencies("a"); len(got) != 2 {
		t.Fatalf("expected 2 dependencies, got %v", got)
	}
	if got := g.GetDependents("c"); len(got) != 2 {
		t.Fatalf("expected 2 dependents, got %v", got)
	}
	if got := g.GetDependencies("c"); len(got) != 0 {
		t.Fatalf("expected leaf node to have no dependencies, got %v", got)
	}
}

func TestTransitiveClosure(t *testing.T) {
	g := Build([]Edge{{"a", "b"}, {"b", "c"}, {"c", "d"}})
	got := g.GetTransitiveDependencies("a")
	want := map[string]bool{"b": true, "c": true, "d": true}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, n := range got {
		if !want[n] {
			t.Fatalf("unexpected node %q in transitive dependencies", n)
		}
	}
}

func TestGetAffectedByChange(t *testing.T) {
	g := Build([]Edge{{"a", "shared"}, {"b", "shared"}, {"c", "other"}})
	got := g.GetAffectedByChange([]Node{"shared"})
	want := map[string]bool{"a": true, "b": true}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestHasCycleAcyclic(t *testing.T) {
	g := Build([]Edge{{"a", "b"}, {"b", "c"}})
	if g.HasCycle() {
		t.Fatal("expected no cycle")
	}
	if paths := g.GetCyclePaths(CyclePathsOptions{}); len(paths) != 0 {
		t.Fatalf("expected no cycle paths, got %v", paths)
	}
}

func TestHasCycleSelfLoop(t *testing.T) {
	g := Build([]Edge{{"a", "a"}})
	if !g.HasCycle() {
		t.Fatal("expected self-loop to be detected as a cycle")
	}
	paths := g.GetCyclePaths(CyclePathsOptions{})
	if len(paths) != 1 || len(paths[0]) != 1 || paths[0][0] != "a" {
		t.Fatalf("expected [[a]], got %v", paths)
	}
}

func TestGetCyclePathsThreeNode(t *testing.T) {
	g := Build([]Edge{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	if !g.HasCycle() {
		t.Fatal("expected cycle to be detected")
	}
	paths := g.GetCyclePaths(CyclePathsOptions{})
	if len(paths) != 1 {
		t.Fatalf("expected exactly one elementary circuit, got %v", paths)
	}
	got := paths[0]
	if len(got) != 3 || got[0] != "a" {
		t.Fatalf("expected [a b c] rotated so a leads, got %v", got)
	}
}

func TestGetCyclePathsDedupesAcrossRotations(t *testing.T) {
	g := Build([]Edge{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"a", "b"}})
	paths := g.GetCyclePaths(CyclePathsOptions{})
	if len(paths) != 1 {
		t.Fatalf("expected one canonical circuit regardless of rotation, got %v", paths)
	}
}

func TestGetCyclePathsMultipleDisjointCycles(t *testing.T) {
	g := Build([]Edge{
		{"a", "b"}, {"b", "a"},
		{"x", "y"}, {"y", "z"}, {"z", "x"},
	})
	paths := g.GetCyclePaths(CyclePathsOptions{})
	if len(paths) != 2 {
		t.Fatalf("expected 2 elementary circuits, got %v", paths)
	}
}

func TestGetCyclePathsMaxCycles(t *testing.T) {
	g := Build([]Edge{
		{"a", "b"}, {"b", "a"},
		{"x", "y"}, {"y", "z"}, {"z", "x"},
	})
	paths := g.GetCyclePaths(CyclePathsOptions{MaxCycles: 1})
	if len(paths) != 1 {
		t.Fatalf("expected capped output of 1 circuit, got %d", len(paths))
	}
}

func TestFanMetrics(t *testing.T) {
	g := Build([]Edge{{"a", "c"}, {"b", "c"}, {"c", "d"}})
	m := g.GetFanMetrics("c")
	if m.FanIn != 2 || m.FanOut != 1 {
		t.Fatalf("expected fan-in=2 fan-out=1, got %+v", m)
	}
}

func TestGetAdjacencyListIncludesDestinationOnlyNodes(t *testing.T) {
	g := Build([]Edge{{"a", "b"}})
	list := g.GetAdjacencyList()
	if _, ok := list["b"]; !ok {
		t.Fatal("expected destination-only node b to appear in adjacency list")
	}
	if len(list["b"]) != 0 {
		t.Fatalf("expected b to have no outgoing edges, got %v", list["b"])
	}
}
