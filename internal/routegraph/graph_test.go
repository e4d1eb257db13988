package routegraph

import (
	"testing"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

func smallGraph(t *testing.T) *Graph {
	t.Helper()
	nodes := []Node{
		{ID: "a", X: 0, Y: 0, DisplayName: "A"},
		{ID: "b", X: 100, Y: 0, DisplayName: "B"},
		{ID: "c", X: 200, Y: 0, DisplayName: "C"},
		{ID: "d", X: 100, Y: 100, DisplayName: "D"},
	}
	edges := [][2]string{{"a", "b"}, {"b", "c"}, {"b", "d"}}
	aliases := map[string]string{"target-room": "c", "d-room": "d"}

	g, err := NewGraph(nodes, edges, aliases)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestNewGraphFailsOnDanglingEdge(t *testing.T) {
	nodes := []Node{{ID: "a", X: 0, Y: 0}}
	_, err := NewGraph(nodes, [][2]string{{"a", "nope"}}, nil)
	if err == nil {
		t.Fatal("expected error for dangling edge endpoint")
	}
}

func TestNewGraphFailsOnUnknownAliasTarget(t *testing.T) {
	nodes := []Node{{ID: "a", X: 0, Y: 0}}
	_, err := NewGraph(nodes, nil, map[string]string{"x": "nope"})
	if err == nil {
		t.Fatal("expected error for alias targeting unknown node")
	}
}

func TestResolveAliasCaseInsensitive(t *testing.T) {
	g := smallGraph(t)
	if id, ok := g.ResolveAlias("  Target-Room  "); !ok || id != "c" {
		t.Fatalf("expected alias to resolve to c, got %q ok=%v", id, ok)
	}
}

func TestClosestNode(t *testing.T) {
	g := smallGraph(t)
	id, ok := g.ClosestNode(model.Point{X: 95, Y: 5})
	if !ok || id != "b" {
		t.Fatalf("expected closest node b, got %q ok=%v", id, ok)
	}
}

func TestShortestPathEndpointsAndHops(t *testing.T) {
	g := smallGraph(t)
	path, ok := g.shortestPath("a", "c")
	if !ok {
		t.Fatal("expected path to exist")
	}
	if path[0] != "a" || path[len(path)-1] != "c" {
		t.Fatalf("expected path to start at a and end at c, got %v", path)
	}
	if len(path) != 3 {
		t.Fatalf("expected path a->b->c, got %v", path)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "isolated"}}
	g, err := NewGraph(nodes, nil, nil)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	if _, ok := g.shortestPath("a", "isolated"); ok {
		t.Fatal("expected no path between disconnected nodes")
	}
}
