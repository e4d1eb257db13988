package positioning

import (
	"testing"

	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

func newTestRegistry(t *testing.T) *mapregistry.Registry {
	t.Helper()
	entries := []mapregistry.BeaconEntry{
		{MAC: "AA:AA:AA:AA:AA:01", X: 232, Y: 185, Room: "101"},
		{MAC: "AA:AA:AA:AA:AA:02", X: 329, Y: 262, Room: "102"},
		{MAC: "AA:AA:AA:AA:AA:03", X: 400, Y: 200, Room: "101"},
		{MAC: "AA:AA:AA:AA:AA:04", X: 600, Y: 200, Room: "102"},
		{MAC: "AA:AA:AA:AA:AA:05", X: 500, Y: 260, Room: "103"},
	}
	registry, err := mapregistry.New(entries, []string{"101"})
	if err != nil {
		t.Fatalf("mapregistry.New: %v", err)
	}
	return registry
}

func TestCalculateLocationEmptyReadingsIsInsufficientInput(t *testing.T) {
	o := NewOrchestrator(newTestRegistry(t))
	state := &model.SessionState{}
	result, _ := o.CalculateLocation(state, nil, model.ModeHybrid, false, 1000)
	if result.Error == "" {
		t.Fatal("expected error for empty readings")
	}
	if state.LastLocation != nil {
		t.Fatal("state must be untouched on InsufficientInput")
	}
}

func TestCalculateLocationUnresolvableBeacons(t *testing.T) {
	o := NewOrchestrator(newTestRegistry(t))
	state := &model.SessionState{}
	readings := []model.RssiReading{{BeaconID: "FF:FF:FF:FF:FF:FF", RSSI: -60}}
	result, _ := o.CalculateLocation(state, readings, model.ModeHybrid, false, 1000)
	if result.Error == "" {
		t.Fatal("expected error for unresolvable beacons")
	}
}

func TestCalculateLocationFirstRequestPassesThrough(t *testing.T) {
	o := NewOrchestrator(newTestRegistry(t))
	state := &model.SessionState{}
	readings := []model.RssiReading{{BeaconID: "AA:AA:AA:AA:AA:01", RSSI: -55}}
	result, _ := o.CalculateLocation(state, readings, model.ModeProximity, false, 1000)
	if result.Error != "" {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if state.LastLocation == nil {
		t.Fatal("expected state to be seeded after first request")
	}
}

func TestCalculateLocationSpeedNeverExceedsMax(t *testing.T) {
	o := NewOrchestrator(newTestRegistry(t))
	state := &model.SessionState{}
	readings := []model.RssiReading{{BeaconID: "AA:AA:AA:AA:AA:01", RSSI: -55}}

	first, _ := o.CalculateLocation(state, readings, model.ModeProximity, false, 1000)
	far := []model.RssiReading{{BeaconID: "AA:AA:AA:AA:AA:04", RSSI: -55}}
	second, _ := o.CalculateLocation(state, far, model.ModeProximity, false, 1050)

	speed := dist(first.Location, second.Location) / 0.05
	if speed > MaxSpeedPxPerSec+1e-6 {
		t.Fatalf("speed %v exceeds MaxSpeedPxPerSec %v", speed, MaxSpeedPxPerSec)
	}
}

func TestCalculateLocationTrilaterationModeRequiresThreeReadings(t *testing.T) {
	o := NewOrchestrator(newTestRegistry(t))
	state := &model.SessionState{}
	readings := []model.RssiReading{
		{BeaconID: "AA:AA:AA:AA:AA:01", RSSI: -55},
		{BeaconID: "AA:AA:AA:AA:AA:02", RSSI: -60},
	}
	result, _ := o.CalculateLocation(state, readings, model.ModeTrilateration, false, 1000)
	if result.Error == "" {
		t.Fatal("expected InsufficientInput for trilateration with <3 readings")
	}
}

func TestCalculateLocationRepeatedIdenticalReadingsConverge(t *testing.T) {
	o := NewOrchestrator(newTestRegistry(t))
	state := &model.SessionState{}
	readings := []model.RssiReading{
		{BeaconID: "AA:AA:AA:AA:AA:03", RSSI: -55},
		{BeaconID: "AA:AA:AA:AA:AA:04", RSSI: -60},
		{BeaconID: "AA:AA:AA:AA:AA:05", RSSI: -58},
	}

	var prev model.Point
	nowMs := int64(1000)
	for i := 0; i < 20; i++ {
		result, _ := o.CalculateLocation(state, readings, model.ModeTrilateration, false, nowMs)
		if result.Error != "" {
			t.Fatalf("unexpected error on iteration %d: %v", i, result.Error)
		}
		prev = result.Location
		nowMs += 200
	}

	result, _ := o.CalculateLocation(state, readings, model.ModeTrilateration, false, nowMs)
	if dist(result.Location, prev) > 1.0 {
		t.Fatalf("expected convergence, got delta %v", dist(result.Location, prev))
	}
}
