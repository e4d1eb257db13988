package positioning

import (
	"math"

	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/model"
	"github.com/beaconmesh/indoor-positioning-server/internal/ranging"
)

// resolved pairs a raw reading with its resolved beacon.
type resolved struct {
	reading model.RssiReading
	beacon  model.Beacon
}

func resolveReadings(registry *mapregistry.Registry, readings []model.RssiReading) []resolved {
	out := make([]resolved, 0, len(readings))
	for _, r := range readings {
		b, ok := registry.Lookup(r.BeaconID)
		if !ok {
			continue
		}
		out = append(out, resolved{reading: r, beacon: b})
	}
	return out
}

// Proximity returns the location of the strongest resolvable beacon.
func Proximity(registry *mapregistry.Registry, readings []model.RssiReading) model.PositioningResult {
	resolvedReadings := resolveReadings(registry, readings)
	if len(resolvedReadings) == 0 {
		return model.PositioningResult{Error: "no resolvable beacon"}
	}

	strongest := resolvedReadings[0]
	for _, r := range resolvedReadings[1:] {
		if r.reading.RSSI > strongest.reading.RSSI {
			strongest = r
		}
	}

	return model.PositioningResult{
		Location:           model.Point{X: strongest.beacon.X, Y: strongest.beacon.Y},
		Mode:               model.ModeProximity,
		Confidence:         1.0,
		NearestBeaconID:    strongest.beacon.ID,
		NearestRoom:        registry.NearestRoom(strongest.beacon.ID),
		EstimatedDistanceM: ranging.DistanceM(strongest.reading.RSSI),
	}
}

// WeightedProximity returns an RSSI-weighted centroid of every
// resolvable reading, pulled through the corridor constraint.
func WeightedProximity(registry *mapregistry.Registry, readings []model.RssiReading) model.PositioningResult {
	resolvedReadings := resolveReadings(registry, readings)
	if len(resolvedReadings) == 0 {
		return model.PositioningResult{Error: "no resolvable beacon"}
	}

	var sumW, sumX, sumY float64
	strongest := resolvedReadings[0]
	for _, r := range resolvedReadings {
		w := math.Pow(10, (float64(r.reading.RSSI)+100)/20)
		sumW += w
		sumX += w * r.beacon.X
		sumY += w * r.beacon.Y
		if r.reading.RSSI > strongest.reading.RSSI {
			strongest = r
		}
	}

	centroid := model.Point{X: sumX / sumW, Y: sumY / sumW}
	constrained := ApplySoftCorridorConstraint(centroid)

	return model.PositioningResult{
		Location:           constrained,
		Mode:               model.ModeWeighted,
		Confidence:         1.0,
		NearestBeaconID:    strongest.beacon.ID,
		NearestRoom:        registry.NearestRoom(strongest.beacon.ID),
		EstimatedDistanceM: ranging.DistanceM(strongest.reading.RSSI),
	}
}
