package positioning

import (
	"math"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

// Corridor geometry, pixel space (spec.md §4.5).
const (
	mainMinX, mainMaxX = 200.0, 1650.0
	mainMinY, mainMaxY = 180.0, 270.0

	leftMinX, leftMaxX = 200.0, 290.0
	leftMinY, leftMaxY = 270.0, 700.0

	corridorMargin = 100.0
	softStrength   = 0.7

	mainCenterY = 225.0
	leftCenterX = 245.0
)

type corridor int

const (
	corridorMain corridor = iota
	corridorLeft
)

// ApplySoftCorridorConstraint pulls off-corridor points back into the
// walkable main/left rectangles. Points already inside either corridor
// are returned unchanged; the main/left junction lies wholly inside the
// two rectangles, so junction points are returned unchanged as well.
func ApplySoftCorridorConstraint(p model.Point) model.Point {
	if insideRect(p, mainMinX, mainMaxX, mainMinY, mainMaxY) || insideRect(p, leftMinX, leftMaxX, leftMinY, leftMaxY) {
		return p
	}

	if insideRect(p, leftMinX, leftMaxX, mainMinY, 300) {
		return model.Point{
			X: clamp(p.X, mainMinX, mainMaxX),
			Y: clamp(p.Y, mainMinY, mainMaxY),
		}
	}

	c := chooseCorridor(p)
	return softPull(p, c)
}

func chooseCorridor(p model.Point) corridor {
	inMainMargin := insideRect(p, mainMinX-corridorMargin, mainMaxX+corridorMargin, mainMinY-corridorMargin, mainMaxY+corridorMargin)
	inLeftMargin := insideRect(p, leftMinX-corridorMargin, leftMaxX+corridorMargin, leftMinY-corridorMargin, leftMaxY+corridorMargin)

	switch {
	case p.Y < mainMaxY:
		return corridorMain
	case inMainMargin && !inLeftMargin:
		return corridorMain
	case inLeftMargin:
		return corridorLeft
	default:
		mainClamped := model.Point{X: clamp(p.X, mainMinX, mainMaxX), Y: clamp(p.Y, mainMinY, mainMaxY)}
		leftClamped := model.Point{X: clamp(p.X, leftMinX, leftMaxX), Y: clamp(p.Y, leftMinY, leftMaxY)}
		if dist(p, mainClamped) <= dist(p, leftClamped) {
			return corridorMain
		}
		return corridorLeft
	}
}

// softPull clamps hard along the corridor's length axis and applies a
// soft pull plus a center-line bias along the perpendicular axis.
func softPull(p model.Point, c corridor) model.Point {
	switch c {
	case corridorMain:
		x := clamp(p.X, mainMinX, mainMaxX)
		y := softAxis(p.Y, mainMinY, mainMaxY)
		y = pullToward(y, mainCenterY, 0.2)
		return model.Point{X: x, Y: y}
	default:
		y := clamp(p.Y, leftMinY, leftMaxY)
		x := softAxis(p.X, leftMinX, leftMaxX)
		x = pullToward(x, leftCenterX, 0.2)
		return model.Point{X: x, Y: y}
	}
}

// softAxis pulls an out-of-range value back inside [min,max]: the
// further it overflowed, the further inside the boundary it lands,
// by a margin of (1-SOFT_CONSTRAINT_STRENGTH) times the original
// overflow, capped at the opposite boundary so it always ends up
// inside (or exactly on the boundary).
func softAxis(v, min, max float64) float64 {
	switch {
	case v < min:
		delta := min - v
		return math.Min(min+delta*(1-softStrength), max)
	case v > max:
		delta := v - max
		return math.Max(max-delta*(1-softStrength), min)
	default:
		return v
	}
}

func pullToward(v, center, frac float64) float64 {
	return v + (center-v)*frac
}

func insideRect(p model.Point, minX, maxX, minY, maxY float64) bool {
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func dist(a, b model.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
