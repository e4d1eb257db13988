// Package mapregistry holds the static beacon and room lookup tables
// built once at process init and read freely afterward.
package mapregistry

import (
	"fmt"
	"strings"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

const unknownRoom = "unknown"

// BeaconEntry is one row of reference data supplied at init.
type BeaconEntry struct {
	MAC  string
	X    float64
	Y    float64
	Room string
}

// Registry is the immutable, process-wide beacon and room lookup.
// Built once via New and never mutated afterward, so it is safe to
// share by reference across every session and request.
type Registry struct {
	beacons      map[string]model.Beacon
	beaconToRoom map[string]string
	destinations map[string]struct{}
}

// New builds a Registry from reference entries and a destination
// alias set. It fails fast on a duplicate MAC (after normalization),
// per the rule that divergent beacon tables must never be merged
// silently.
func New(entries []BeaconEntry, destinationAliases []string) (*Registry, error) {
	r := &Registry{
		beacons:      make(map[string]model.Beacon, len(entries)),
		beaconToRoom: make(map[string]string, len(entries)),
		destinations: make(map[string]struct{}, len(destinationAliases)),
	}

	for _, e := range entries {
		mac := normalize(e.MAC)
		if mac == "" {
			return nil, fmt.Errorf("mapregistry: empty beacon mac")
		}
		if _, exists := r.beacons[mac]; exists {
			return nil, fmt.Errorf("mapregistry: duplicate beacon mac %q", mac)
		}
		r.beacons[mac] = model.Beacon{ID: mac, X: e.X, Y: e.Y}
		if e.Room != "" {
			r.beaconToRoom[mac] = e.Room
		}
	}

	for _, alias := range destinationAliases {
		r.destinations[strings.ToLower(strings.TrimSpace(alias))] = struct{}{}
	}

	return r, nil
}

// Lookup resolves a client-supplied MAC to its Beacon, trying the
// normalized form and its byte-reversed colon groups before giving up
// (mobile SDKs emit MACs in either byte order).
func (r *Registry) Lookup(mac string) (model.Beacon, bool) {
	norm := normalize(mac)
	if b, ok := r.beacons[norm]; ok {
		return b, true
	}
	if b, ok := r.beacons[reverseGroups(norm)]; ok {
		return b, true
	}
	return model.Beacon{}, false
}

// NearestRoom returns the room label mapped to mac, or "unknown".
func (r *Registry) NearestRoom(mac string) string {
	norm := normalize(mac)
	if room, ok := r.beaconToRoom[norm]; ok {
		return room
	}
	if room, ok := r.beaconToRoom[reverseGroups(norm)]; ok {
		return room
	}
	return unknownRoom
}

// IsDestination reports whether alias (case-insensitively) names a
// known destination.
func (r *Registry) IsDestination(alias string) bool {
	_, ok := r.destinations[strings.ToLower(strings.TrimSpace(alias))]
	return ok
}

// Beacons returns a snapshot slice of every registered beacon, for
// administrative inspection.
func (r *Registry) Beacons() []model.Beacon {
	out := make([]model.Beacon, 0, len(r.beacons))
	for _, b := range r.beacons {
		out = append(out, b)
	}
	return out
}

func normalize(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}

// reverseGroups reverses the byte-wise order of a well-formed
// colon-separated MAC ("AA:BB:CC:DD:EE:FF" -> "FF:EE:DD:CC:BB:AA").
// Malformed input (wrong group count) is returned unchanged so a
// failed lookup falls through cleanly rather than panicking.
func reverseGroups(mac string) string {
	groups := strings.Split(mac, ":")
	if len(groups) != 6 {
		return mac
	}
	reversed := make([]string, len(groups))
	for i, g := range groups {
		reversed[len(groups)-1-i] = g
	}
	return strings.Join(reversed, ":")
}
