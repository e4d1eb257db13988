package reference

import "testing"

func TestLoadBeaconRegistry(t *testing.T) {
	registry, err := LoadBeaconRegistry("testdata/beacons.json")
	if err != nil {
		t.Fatalf("LoadBeaconRegistry: %v", err)
	}
	b, ok := registry.Lookup("AA:AA:AA:AA:AA:01")
	if !ok {
		t.Fatal("expected beacon AA:AA:AA:AA:AA:01 to resolve")
	}
	if b.X != 100 || b.Y != 100 {
		t.Fatalf("unexpected beacon coordinates: %+v", b)
	}
	if !registry.IsDestination("101") {
		t.Fatal("expected 101 to be a valid destination")
	}
}

func TestLoadRouteGraph(t *testing.T) {
	graph, err := LoadRouteGraph("testdata/graph.json")
	if err != nil {
		t.Fatalf("LoadRouteGraph: %v", err)
	}
	id, ok := graph.ResolveAlias("101")
	if !ok || id != "n1" {
		t.Fatalf("expected alias 101 to resolve to n1, got %q ok=%v", id, ok)
	}
}

func TestLoadBeaconRegistryMissingFile(t *testing.T) {
	if _, err := LoadBeaconRegistry("testdata/does-not-exist.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
