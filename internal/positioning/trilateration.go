package positioning

import (
	"math"
	"sort"

	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/model"
	"github.com/beaconmesh/indoor-positioning-server/internal/ranging"
)

// PixelsPerMeter relates the metre-based RangingModel output to the
// pixel coordinate space everything else operates in.
const PixelsPerMeter = 18.0

const (
	maxSolverBeacons = 6
	maxIterations    = 50
	stepStopPx       = 0.5
	initialLearnRate = 0.5
)

// Trilaterate runs an RSSI-weighted nonlinear least-squares solve
// seeded by a weighted centroid, over up to maxSolverBeacons of the
// closest resolvable readings.
func Trilaterate(registry *mapregistry.Registry, readings []model.RssiReading) model.PositioningResult {
	ranged := rangeAndFilter(registry, readings)
	if len(ranged) < 3 {
		return model.PositioningResult{Error: "fewer than 3 resolvable readings"}
	}

	sort.Slice(ranged, func(i, j int) bool { return ranged[i].DistanceM < ranged[j].DistanceM })

	used := ranged
	if len(used) > maxSolverBeacons {
		used = used[:maxSolverBeacons]
	}

	seed := weightedSeed(used)
	solved := solve(seed, used)
	constrained := ApplySoftCorridorConstraint(solved)

	strongestRSSI := used[0].RSSI
	for _, r := range used {
		if r.RSSI > strongestRSSI {
			strongestRSSI = r.RSSI
		}
	}

	confidence := confidenceScore(len(used), strongestRSSI, used)

	strongest := used[0]
	for _, r := range used {
		if r.RSSI > strongest.RSSI {
			strongest = r
		}
	}

	return model.PositioningResult{
		Location:           constrained,
		Mode:               model.ModeTrilateration,
		Confidence:         confidence,
		NearestBeaconID:    strongest.Beacon.ID,
		NearestRoom:        registry.NearestRoom(strongest.Beacon.ID),
		EstimatedDistanceM: ranging.DistanceM(strongest.RSSI),
	}
}

func rangeAndFilter(registry *mapregistry.Registry, readings []model.RssiReading) []model.RangedReading {
	out := make([]model.RangedReading, 0, len(readings))
	for _, r := range readings {
		if r.RSSI < ranging.MinValidRSSI {
			continue
		}
		b, ok := registry.Lookup(r.BeaconID)
		if !ok {
			continue
		}
		out = append(out, model.RangedReading{
			Beacon:    b,
			RSSI:      r.RSSI,
			DistanceM: ranging.DistanceM(r.RSSI),
		})
	}
	return out
}

func weightedSeed(readings []model.RangedReading) model.Point {
	var sumW, sumX, sumY float64
	for _, r := range readings {
		d := math.Max(r.DistanceM, 0.5)
		w := math.Pow(10, (float64(r.RSSI)+100)/30) / (d * d)
		sumW += w
		sumX += w * r.Beacon.X
		sumY += w * r.Beacon.Y
	}
	if sumW == 0 {
		return model.Point{}
	}
	return model.Point{X: sumX / sumW, Y: sumY / sumW}
}

// solve runs the adaptive-learning-rate gradient descent described in
// spec.md §4.4 step 3.
func solve(seed model.Point, readings []model.RangedReading) model.Point {
	p := seed
	eta := initialLearnRate
	prevRSS := math.Inf(1)

	for iter := 0; iter < maxIterations; iter++ {
		var gx, gy, sumW, rss float64

		for _, r := range readings {
			rho := r.DistanceM * PixelsPerMeter
			dx := p.X - r.Beacon.X
			dy := p.Y - r.Beacon.Y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < 1 {
				dist = 1
			}
			e := dist - rho
			w := math.Pow(10, (float64(r.RSSI)+90)/25)

			gx += w * e * (dx / dist)
			gy += w * e * (dy / dist)
			sumW += w
			rss += e * e
		}

		if sumW == 0 {
			break
		}
		gx /= sumW
		gy /= sumW

		switch {
		case rss > prevRSS:
			eta *= 0.5
		case rss < prevRSS*0.9:
			eta = math.Min(eta*1.1, 1.0)
		}
		prevRSS = rss

		step := model.Point{X: eta * gx, Y: eta * gy}
		p = model.Point{X: p.X - step.X, Y: p.Y - step.Y}

		if math.Hypot(step.X, step.Y) < stepStopPx {
			break
		}
	}

	return p
}

func confidenceScore(n int, strongestRSSI int, readings []model.RangedReading) float64 {
	beaconFactor := math.Min(float64(n)/5, 1)
	signalFactor := clamp((float64(strongestRSSI)+100)/50, 0, 1)

	minX, maxX := readings[0].Beacon.X, readings[0].Beacon.X
	minY, maxY := readings[0].Beacon.Y, readings[0].Beacon.Y
	for _, r := range readings {
		minX = math.Min(minX, r.Beacon.X)
		maxX = math.Max(maxX, r.Beacon.X)
		minY = math.Min(minY, r.Beacon.Y)
		maxY = math.Max(maxY, r.Beacon.Y)
	}
	diagonal := math.Hypot(maxX-minX, maxY-minY)
	spreadFactor := math.Min(diagonal/200, 1)

	return 0.3*beaconFactor + 0.4*signalFactor + 0.3*spreadFactor
}
