package routegraph

import (
	"fmt"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

// PathPlanner resolves a destination alias and plans a shortest path
// from a caller's current position (spec.md §4.8).
type PathPlanner struct {
	graph *Graph
}

// NewPathPlanner wraps a built Graph.
func NewPathPlanner(g *Graph) *PathPlanner {
	return &PathPlanner{graph: g}
}

// Plan resolves target to a node, finds the graph node closest to
// from, and runs Dijkstra between them. It returns the waypoint
// polyline in pixel coordinates (including both endpoints). An error
// means the destination could not be resolved or no path exists; the
// caller treats this as NoRoute and still serves the location result.
func (p *PathPlanner) Plan(from model.Point, target string) ([]model.Point, error) {
	destID, ok := p.graph.ResolveAlias(target)
	if !ok {
		return nil, fmt.Errorf("routegraph: unknown destination %q", target)
	}

	startID, ok := p.graph.ClosestNode(from)
	if !ok {
		return nil, fmt.Errorf("routegraph: graph has no nodes")
	}

	nodeIDs, ok := p.graph.shortestPath(startID, destID)
	if !ok {
		return nil, fmt.Errorf("routegraph: no path to %q", target)
	}

	path := make([]model.Point, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		n, _ := p.graph.Node(id)
		path = append(path, model.Point{X: n.X, Y: n.Y})
	}
	return path, nil
}
