package positioning

import (
	"math"
	"testing"

	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/model"
)

func TestTrilaterateThreeBeaconsConverges(t *testing.T) {
	entries := []mapregistry.BeaconEntry{
		{MAC: "AA:AA:AA:AA:AA:01", X: 400, Y: 200, Room: "101"},
		{MAC: "AA:AA:AA:AA:AA:02", X: 600, Y: 200, Room: "102"},
		{MAC: "AA:AA:AA:AA:AA:03", X: 500, Y: 260, Room: "103"},
	}
	registry, err := mapregistry.New(entries, nil)
	if err != nil {
		t.Fatalf("mapregistry.New: %v", err)
	}

	result := Trilaterate(registry, []model.RssiReading{
		{BeaconID: "AA:AA:AA:AA:AA:01", RSSI: -55},
		{BeaconID: "AA:AA:AA:AA:AA:02", RSSI: -60},
		{BeaconID: "AA:AA:AA:AA:AA:03", RSSI: -58},
	})
	if result.Error != "" {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if result.Confidence <= 0.3 {
		t.Fatalf("expected confidence > 0.3, got %v", result.Confidence)
	}
	if math.IsNaN(result.Location.X) || math.IsNaN(result.Location.Y) {
		t.Fatal("solver produced NaN")
	}
	if !insideRect(result.Location, mainMinX, mainMaxX, mainMinY, mainMaxY) {
		t.Fatalf("expected point inside Main corridor, got %v", result.Location)
	}
}

func TestTrilaterateFewerThanThreeResolvableReadings(t *testing.T) {
	entries := []mapregistry.BeaconEntry{
		{MAC: "AA:AA:AA:AA:AA:01", X: 400, Y: 200, Room: "101"},
	}
	registry, err := mapregistry.New(entries, nil)
	if err != nil {
		t.Fatalf("mapregistry.New: %v", err)
	}
	result := Trilaterate(registry, []model.RssiReading{{BeaconID: "AA:AA:AA:AA:AA:01", RSSI: -55}})
	if result.Error == "" {
		t.Fatal("expected error for fewer than 3 resolvable readings")
	}
}

func TestTrilaterateCollinearBeaconsDoesNotProduceNaN(t *testing.T) {
	entries := []mapregistry.BeaconEntry{
		{MAC: "AA:AA:AA:AA:AA:01", X: 300, Y: 225, Room: "101"},
		{MAC: "AA:AA:AA:AA:AA:02", X: 600, Y: 225, Room: "102"},
		{MAC: "AA:AA:AA:AA:AA:03", X: 900, Y: 225, Room: "103"},
	}
	registry, err := mapregistry.New(entries, nil)
	if err != nil {
		t.Fatalf("mapregistry.New: %v", err)
	}
	result := Trilaterate(registry, []model.RssiReading{
		{BeaconID: "AA:AA:AA:AA:AA:01", RSSI: -55},
		{BeaconID: "AA:AA:AA:AA:AA:02", RSSI: -60},
		{BeaconID: "AA:AA:AA:AA:AA:03", RSSI: -58},
	})
	if result.Error != "" {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if math.IsNaN(result.Location.X) || math.IsNaN(result.Location.Y) {
		t.Fatal("solver produced NaN for collinear beacons")
	}
}
