package positioning

import (
	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

// Shared smoothing constants (spec.md §4.6).
const (
	MaxSpeedPxPerSec        = 90.0
	MovementSpeedThreshold  = 15.0
	JitterBufferSize        = 2
	minDtSeconds            = 0.05

	alphaMovingNormal = 0.50
	alphaStaticNormal = 0.15
	minMoveNormal     = 6.0

	alphaMovingNav = 0.75
	alphaStaticNav = 0.35
	minMoveNav     = 4.0
)

type smoothingParams struct {
	alphaMoving float64
	alphaStatic float64
	minMove     float64
}

func paramsFor(navigationMode bool) smoothingParams {
	if navigationMode {
		return smoothingParams{alphaMoving: alphaMovingNav, alphaStatic: alphaStaticNav, minMove: minMoveNav}
	}
	return smoothingParams{alphaMoving: alphaMovingNormal, alphaStatic: alphaStaticNormal, minMove: minMoveNormal}
}

// Orchestrator dispatches to the estimator matching the requested
// mode and applies per-session smoothing, speed clamping, jitter
// buffering, and snap-to-route.
type Orchestrator struct {
	registry *mapregistry.Registry
}

// NewOrchestrator constructs an Orchestrator bound to a MapRegistry.
func NewOrchestrator(registry *mapregistry.Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// CalculateLocation is the orchestrator's public contract (spec.md
// §4.6). state is owned exclusively by the caller's session and must
// not be shared across goroutines; nowMs is the caller-supplied clock
// reading so the pipeline stays deterministic under test.
//
// The second return value is the smoothed location before snap-to-route
// is applied; SessionCoordinator feeds this to PathPlanner so the
// planner always sees fresh coordinates rather than a position already
// pulled onto the route being replaced (spec.md §4.9).
func (o *Orchestrator) CalculateLocation(state *model.SessionState, readings []model.RssiReading, mode model.Mode, navigationFlag bool, nowMs int64) (model.PositioningResult, model.Point) {
	if len(readings) == 0 {
		return model.PositioningResult{Error: "no readings provided"}, model.Point{}
	}

	resolvedCount := 0
	for _, r := range readings {
		if _, ok := o.registry.Lookup(r.BeaconID); ok {
			resolvedCount++
		}
	}
	if resolvedCount == 0 {
		return model.PositioningResult{Error: "no reading resolved to a known beacon"}, model.Point{}
	}

	if mode == model.ModeTrilateration && len(readings) < 3 {
		return model.PositioningResult{Error: "trilateration requires at least 3 readings"}, model.Point{}
	}

	raw := o.estimate(readings, mode)
	if !raw.Valid() {
		return raw, model.Point{}
	}

	navigationMode := navigationFlag || len(state.ActiveRoute) > 0
	smoothed := o.smooth(state, raw.Location, navigationMode, nowMs)

	final := smoothed
	if len(state.ActiveRoute) >= 2 {
		final = SnapToRoute(smoothed, state.ActiveRoute)
	}

	raw.Location = final
	return raw, smoothed
}

func (o *Orchestrator) estimate(readings []model.RssiReading, mode model.Mode) model.PositioningResult {
	switch mode {
	case model.ModeProximity:
		return Proximity(o.registry, readings)
	case model.ModeWeighted:
		return WeightedProximity(o.registry, readings)
	case model.ModeTrilateration:
		res := Trilaterate(o.registry, readings)
		if isValidTrilateration(res) {
			return res
		}
		return WeightedProximity(o.registry, readings)
	default: // HYBRID
		switch n := len(readings); {
		case n == 1:
			return Proximity(o.registry, readings)
		case n == 2:
			return WeightedProximity(o.registry, readings)
		default:
			res := Trilaterate(o.registry, readings)
			if isValidTrilateration(res) && res.Confidence > 0.5 {
				return res
			}
			return WeightedProximity(o.registry, readings)
		}
	}
}

func isValidTrilateration(r model.PositioningResult) bool {
	return r.Valid() && r.Confidence > 0.3
}

// smooth runs steps 1-7 of spec.md §4.6's smoothing pipeline and
// mutates state in place (the caller owns state exclusively).
func (o *Orchestrator) smooth(state *model.SessionState, raw model.Point, navigationMode bool, nowMs int64) model.Point {
	if state.LastLocation == nil {
		loc := raw
		state.LastLocation = &loc
		state.LastUpdateMs = nowMs
		state.JitterBuffer = []model.Point{raw}
		return raw
	}

	params := paramsFor(navigationMode)
	last := *state.LastLocation

	dtMs := nowMs - state.LastUpdateMs
	dtSec := float64(dtMs) / 1000.0
	if dtSec < minDtSeconds {
		dtSec = minDtSeconds
	}

	delta := dist(raw, last)
	speed := delta / dtSec

	if delta < params.minMove {
		if navigationMode {
			return last
		}
		return jitterMean(state.JitterBuffer, last)
	}

	clampedRaw := raw
	if speed > MaxSpeedPxPerSec && delta > 0 {
		scale := (MaxSpeedPxPerSec * dtSec) / delta
		step := raw.Sub(last).Scale(scale)
		clampedRaw = last.Add(step)
	}

	alpha := params.alphaStatic
	if speed > MovementSpeedThreshold {
		alpha = params.alphaMoving
	}
	smoothed := model.Point{
		X: alpha*clampedRaw.X + (1-alpha)*last.X,
		Y: alpha*clampedRaw.Y + (1-alpha)*last.Y,
	}

	var final model.Point
	if navigationMode {
		final = smoothed
		state.JitterBuffer = nil
	} else {
		state.JitterBuffer = pushJitter(state.JitterBuffer, smoothed)
		final = jitterMean(state.JitterBuffer, smoothed)
	}

	state.LastLocation = &final
	state.LastUpdateMs = nowMs
	return final
}

func pushJitter(buf []model.Point, p model.Point) []model.Point {
	buf = append(buf, p)
	if len(buf) > JitterBufferSize {
		buf = buf[len(buf)-JitterBufferSize:]
	}
	return buf
}

func jitterMean(buf []model.Point, fallback model.Point) model.Point {
	if len(buf) == 0 {
		return fallback
	}
	var sumX, sumY float64
	for _, p := range buf {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(buf))
	return model.Point{X: sumX / n, Y: sumY / n}
}
