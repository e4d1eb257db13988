package positioning

import (
	"math"
	"testing"

	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

func TestProximitySingleBeaconScenario(t *testing.T) {
	entries := []mapregistry.BeaconEntry{
		{MAC: "08:92:72:87:9C:72", X: 789, Y: 184, Room: "157"},
	}
	registry, err := mapregistry.New(entries, nil)
	if err != nil {
		t.Fatalf("mapregistry.New: %v", err)
	}

	result := Proximity(registry, []model.RssiReading{{BeaconID: "08:92:72:87:9C:72", RSSI: -55}})
	if result.Error != "" {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Location.X != 789 || result.Location.Y != 184 {
		t.Fatalf("expected location (789,184), got %v", result.Location)
	}
	if result.NearestRoom != "157" {
		t.Fatalf("expected nearestRoom 157, got %v", result.NearestRoom)
	}
	if math.Abs(result.EstimatedDistanceM-0.8) > 0.3 {
		t.Fatalf("expected estimatedDistance ~0.8m, got %v", result.EstimatedDistanceM)
	}
}

func TestProximityNoResolvableBeacon(t *testing.T) {
	registry, _ := mapregistry.New(nil, nil)
	result := Proximity(registry, []model.RssiReading{{BeaconID: "FF:FF:FF:FF:FF:FF", RSSI: -50}})
	if result.Error == "" {
		t.Fatal("expected error when no beacon resolves")
	}
}

func TestWeightedProximityPulledTowardStrongerBeacon(t *testing.T) {
	entries := []mapregistry.BeaconEntry{
		{MAC: "AA:AA:AA:AA:AA:01", X: 232, Y: 185, Room: "101"},
		{MAC: "AA:AA:AA:AA:AA:02", X: 329, Y: 262, Room: "102"},
	}
	registry, err := mapregistry.New(entries, nil)
	if err != nil {
		t.Fatalf("mapregistry.New: %v", err)
	}

	result := WeightedProximity(registry, []model.RssiReading{
		{BeaconID: "AA:AA:AA:AA:AA:01", RSSI: -60},
		{BeaconID: "AA:AA:AA:AA:AA:02", RSSI: -70},
	})
	if result.Error != "" {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	mid := (232.0 + 329.0) / 2
	if result.Location.X >= mid {
		t.Fatalf("expected centroid closer to 232, got %v", result.Location.X)
	}
}
