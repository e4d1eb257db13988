// Package routegraph builds the static waypoint graph (spec.md §4.8)
// and runs shortest-path queries against it.
package routegraph

import (
	"fmt"
	"math"
	"strings"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

// Node is a graph vertex: a corridor waypoint, room door, stair, WC, or
// other named landmark.
type Node struct {
	ID          string
	X, Y        float64
	DisplayName string
}

type edge struct {
	to     string
	weight float64
}

// Graph is the process-wide, read-only-after-init waypoint graph.
type Graph struct {
	nodes    map[string]Node
	adjacent map[string][]edge
	aliases  map[string]string // roomAlias -> nodeId, lower-cased keys
}

// NewGraph builds a Graph from a node list, an undirected edge list
// (pairs of node IDs), and a roomAlias -> nodeId map. It fails fast on
// a dangling edge endpoint or an alias pointing at an unknown node.
func NewGraph(nodes []Node, edges [][2]string, aliases map[string]string) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[string]Node, len(nodes)),
		adjacent: make(map[string][]edge, len(nodes)),
		aliases:  make(map[string]string, len(aliases)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("routegraph: node with empty id")
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("routegraph: duplicate node id %q", n.ID)
		}
		g.nodes[n.ID] = n
	}

	for _, e := range edges {
		a, b := e[0], e[1]
		na, ok := g.nodes[a]
		if !ok {
			return nil, fmt.Errorf("routegraph: edge references unknown node %q", a)
		}
		nb, ok := g.nodes[b]
		if !ok {
			return nil, fmt.Errorf("routegraph: edge references unknown node %q", b)
		}
		w := math.Hypot(na.X-nb.X, na.Y-nb.Y)
		g.adjacent[a] = append(g.adjacent[a], edge{to: b, weight: w})
		g.adjacent[b] = append(g.adjacent[b], edge{to: a, weight: w})
	}

	for alias, nodeID := range aliases {
		if _, ok := g.nodes[nodeID]; !ok {
			return nil, fmt.Errorf("routegraph: alias %q targets unknown node %q", alias, nodeID)
		}
		g.aliases[normalizeAlias(alias)] = nodeID
	}

	return g, nil
}

// ResolveAlias maps a destination alias (room code, Turkish/English
// label, or special name such as "entrance"/"wc"/"merdiven") to a node
// ID. Resolution order (spec.md §4.8 step 2): the roomAlias map;
// failing that, a direct node-ID match; failing that, a case-
// insensitive substring match against a node's display name.
func (g *Graph) ResolveAlias(alias string) (string, bool) {
	key := normalizeAlias(alias)
	if key == "" {
		return "", false
	}
	if id, ok := g.aliases[key]; ok {
		return id, ok
	}
	if _, ok := g.nodes[alias]; ok {
		return alias, true
	}
	for id, n := range g.nodes {
		if n.DisplayName != "" && strings.Contains(strings.ToLower(n.DisplayName), key) {
			return id, true
		}
	}
	return "", false
}

// ClosestNode returns the graph node nearest p in Euclidean distance.
func (g *Graph) ClosestNode(p model.Point) (string, bool) {
	best := ""
	bestDist := math.Inf(1)
	for id, n := range g.nodes {
		d := math.Hypot(n.X-p.X, n.Y-p.Y)
		if d < bestDist {
			bestDist = d
			best = id
		}
	}
	return best, best != ""
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func normalizeAlias(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
