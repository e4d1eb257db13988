package positioning

import (
	"testing"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

func TestApplySoftCorridorConstraintInsideUnchanged(t *testing.T) {
	p := model.Point{X: 500, Y: 225}
	got := ApplySoftCorridorConstraint(p)
	if got != p {
		t.Fatalf("expected point inside main corridor unchanged, got %v", got)
	}
}

func TestApplySoftCorridorConstraintNeverStrictlyOutside(t *testing.T) {
	points := []model.Point{
		{X: 800, Y: 400},
		{X: -50, Y: 250},
		{X: 2000, Y: 225},
		{X: 245, Y: 900},
		{X: 245, Y: -100},
	}
	for _, p := range points {
		got := ApplySoftCorridorConstraint(p)
		insideMain := got.X >= mainMinX-1e-9 && got.X <= mainMaxX+1e-9 && got.Y >= mainMinY-1e-9 && got.Y <= mainMaxY+1e-9
		insideLeft := got.X >= leftMinX-1e-9 && got.X <= leftMaxX+1e-9 && got.Y >= leftMinY-1e-9 && got.Y <= leftMaxY+1e-9
		if !insideMain && !insideLeft {
			t.Fatalf("constrained point %v (from %v) lies outside both corridors", got, p)
		}
	}
}

func TestApplySoftCorridorConstraintPullScenario(t *testing.T) {
	// spec.md scenario 4: raw (800, 400) pulled toward main, y in [225,270).
	got := ApplySoftCorridorConstraint(model.Point{X: 800, Y: 400})
	if got.X != 800 {
		t.Fatalf("expected x unchanged at 800, got %v", got.X)
	}
	if got.Y < mainCenterY || got.Y >= mainMaxY {
		t.Fatalf("expected y in [%v,%v), got %v", mainCenterY, mainMaxY, got.Y)
	}
}

func TestApplySoftCorridorConstraintJunctionPointInsideLeftUnchanged(t *testing.T) {
	// (250, 290) is in the junction band but also inside the Left
	// rectangle, so the inside test returns it unchanged.
	got := ApplySoftCorridorConstraint(model.Point{X: 250, Y: 290})
	if got.X != 250 {
		t.Fatalf("expected x unchanged in junction, got %v", got.X)
	}
	if got.Y != 290 {
		t.Fatalf("expected y unchanged inside left corridor (290), got %v", got.Y)
	}
}
