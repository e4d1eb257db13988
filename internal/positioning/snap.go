package positioning

import (
	"math"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

// SnapToRouteThresholdPx is the maximum perpendicular distance (~3.3m)
// at which a position is still considered on-route.
const SnapToRouteThresholdPx = 60.0

// SnapToRoute projects p onto the closest segment of the polyline W.
// If the closest projection is within SnapToRouteThresholdPx it
// replaces p; otherwise p is returned unchanged (off-route).
func SnapToRoute(p model.Point, route []model.Point) model.Point {
	if len(route) < 2 {
		return p
	}

	best := p
	bestDist := math.Inf(1)
	found := false

	for i := 0; i < len(route)-1; i++ {
		a, b := route[i], route[i+1]
		proj := projectOntoSegment(p, a, b)
		d := dist(p, proj)
		if d < bestDist {
			bestDist = d
			best = proj
			found = true
		}
	}

	if !found || bestDist > SnapToRouteThresholdPx {
		return p
	}
	return best
}

func projectOntoSegment(p, a, b model.Point) model.Point {
	seg := b.Sub(a)
	lenSq := seg.X*seg.X + seg.Y*seg.Y
	if lenSq == 0 {
		return a
	}
	t := (p.Sub(a).X*seg.X + p.Sub(a).Y*seg.Y) / lenSq
	t = clamp(t, 0, 1)
	return a.Add(seg.Scale(t))
}
