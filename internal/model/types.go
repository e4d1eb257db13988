// Package model holds the data types shared across the positioning
// pipeline: beacons, readings, points, results, sessions, location
// logs, and the route waypoint shape. The inbound and outbound message
// envelopes live in internal/session.
package model

// Mode selects which estimator produces a PositioningResult.
type Mode string

const (
	ModeProximity     Mode = "PROXIMITY"
	ModeWeighted      Mode = "WEIGHTED"
	ModeTrilateration Mode = "TRILATERATION"
	ModeHybrid        Mode = "HYBRID"
)

// ParseMode validates a wire-provided mode string against the enum.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeProximity, ModeWeighted, ModeTrilateration, ModeHybrid:
		return Mode(s), true
	default:
		return "", false
	}
}

// Beacon is an immutable record of a stationary radio transmitter.
type Beacon struct {
	ID string
	X  float64
	Y  float64
}

// RssiReading is a single transient, request-scoped observation.
type RssiReading struct {
	BeaconID string
	RSSI     int
}

// RangedReading pairs a resolved beacon with an estimated distance.
type RangedReading struct {
	Beacon    Beacon
	RSSI      int
	DistanceM float64
}

// Point is a 2-D coordinate in map pixels.
type Point struct {
	X float64
	Y float64
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// Add returns p + o.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Scale returns p scaled by k.
func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

// PositioningResult is the outcome of an estimator, before or after
// smoothing depending on the caller.
type PositioningResult struct {
	Location           Point
	Mode               Mode
	Confidence         float64
	NearestBeaconID    string
	NearestRoom        string
	EstimatedDistanceM float64
	Error              string
}

// Valid reports whether the result carries a usable location. spec.md
// additionally requires confidence > 0.3 for trilateration results;
// callers that need that stricter check apply it themselves since it
// is mode-specific, not a property of the result alone.
func (r PositioningResult) Valid() bool {
	return r.Error == "" && r.Confidence > 0
}

// SessionState is the per-session mutable state owned exclusively by
// the SessionCoordinator entry for that session.
type SessionState struct {
	SessionID    string
	LastLocation *Point
	LastUpdateMs int64
	JitterBuffer []Point
	ActiveRoute  []Point
	RouteSetAtMs int64
	ActiveTarget string
}

// LocationLog is an append-only record for the external history sink.
type LocationLog struct {
	SessionID         string
	X                 float64
	Y                 float64
	ZoneName          string
	TargetDestination string
	TimestampMs       int64
}

// RoutePoint is the wire shape of a single path waypoint.
type RoutePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
