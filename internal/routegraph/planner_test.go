package routegraph

import (
	"math"
	"testing"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

func dist(a, b model.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestPlanStrictlyDecreasesRemainingDistance(t *testing.T) {
	g := smallGraph(t)
	p := NewPathPlanner(g)

	path, err := p.Plan(model.Point{X: 0, Y: 0}, "target-room")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(path) < 2 {
		t.Fatalf("expected at least 2 waypoints, got %v", path)
	}

	target := path[len(path)-1]
	prevDist := dist(path[0], target)
	for _, p := range path[1:] {
		d := dist(p, target)
		if d >= prevDist {
			t.Fatalf("remaining distance to target did not decrease: %v -> %v", prevDist, d)
		}
		prevDist = d
	}
}

func TestPlanUnknownDestination(t *testing.T) {
	g := smallGraph(t)
	p := NewPathPlanner(g)
	if _, err := p.Plan(model.Point{X: 0, Y: 0}, "nowhere"); err == nil {
		t.Fatal("expected error for unknown destination")
	}
}
