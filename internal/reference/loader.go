// Package reference loads the beacon and waypoint-graph reference data
// that seeds the MapRegistry and RouteGraph (spec.md §1, "Beacon & room
// reference-data loading" — specified only by the lookup interface the
// core consumes). This package is the concrete loader behind that
// interface: it reads JSON fixtures describing the building survey.
package reference

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/routegraph"
)

// BeaconRecord is one row of the beacon survey file.
type BeaconRecord struct {
	MAC  string  `json:"mac"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Room string  `json:"room"`
}

// BeaconFile is the on-disk shape of the beacon reference file.
type BeaconFile struct {
	Beacons      []BeaconRecord `json:"beacons"`
	Destinations []string       `json:"destinations"`
}

// GraphNodeRecord is one waypoint-graph vertex.
type GraphNodeRecord struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	DisplayName string  `json:"displayName"`
}

// GraphFile is the on-disk shape of the waypoint-graph reference file.
type GraphFile struct {
	Nodes   []GraphNodeRecord `json:"nodes"`
	Edges   [][2]string       `json:"edges"`
	Aliases map[string]string `json:"aliases"`
}

// LoadBeaconRegistry reads a beacon survey file and builds an immutable
// MapRegistry. It fails fast on malformed JSON or duplicate/blank MACs
// (mapregistry.New's own fail-fast contract).
func LoadBeaconRegistry(path string) (*mapregistry.Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reference: read beacon file: %w", err)
	}

	var file BeaconFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("reference: decode beacon file: %w", err)
	}

	entries := make([]mapregistry.BeaconEntry, 0, len(file.Beacons))
	for _, b := range file.Beacons {
		entries = append(entries, mapregistry.BeaconEntry{
			MAC:  b.MAC,
			X:    b.X,
			Y:    b.Y,
			Room: b.Room,
		})
	}

	registry, err := mapregistry.New(entries, file.Destinations)
	if err != nil {
		return nil, fmt.Errorf("reference: build registry: %w", err)
	}
	return registry, nil
}

// LoadRouteGraph reads a waypoint-graph file and builds an immutable
// Graph. It fails fast on a dangling edge endpoint or an alias
// targeting an unknown node (routegraph.NewGraph's own contract).
func LoadRouteGraph(path string) (*routegraph.Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reference: read graph file: %w", err)
	}

	var file GraphFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("reference: decode graph file: %w", err)
	}

	nodes := make([]routegraph.Node, 0, len(file.Nodes))
	for _, n := range file.Nodes {
		nodes = append(nodes, routegraph.Node{
			ID:          n.ID,
			X:           n.X,
			Y:           n.Y,
			DisplayName: n.DisplayName,
		})
	}

	graph, err := routegraph.NewGraph(nodes, file.Edges, file.Aliases)
	if err != nil {
		return nil, fmt.Errorf("reference: build graph: %w", err)
	}
	return graph, nil
}
