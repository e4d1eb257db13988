package mapregistry

import "testing"

func TestLookupNormalizesAndReverses(t *testing.T) {
	r, err := New([]BeaconEntry{
		{MAC: "08:92:72:87:8D:D6", X: 100, Y: 200, Room: "157"},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := r.Lookup("08:92:72:87:8d:d6"); !ok {
		t.Fatalf("expected exact-case-insensitive lookup to resolve")
	}

	if _, ok := r.Lookup("D6:8D:87:72:92:08"); !ok {
		t.Fatalf("expected byte-reversed lookup to resolve")
	}

	if _, ok := r.Lookup("AA:BB:CC:DD:EE:FF"); ok {
		t.Fatalf("expected unknown mac to fail to resolve")
	}
}

func TestNearestRoomUnknown(t *testing.T) {
	r, err := New([]BeaconEntry{{MAC: "AA:AA:AA:AA:AA:AA", X: 0, Y: 0, Room: "101"}}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := r.NearestRoom("AA:AA:AA:AA:AA:AA"); got != "101" {
		t.Fatalf("NearestRoom = %q, want 101", got)
	}
	if got := r.NearestRoom("ZZ:ZZ:ZZ:ZZ:ZZ:ZZ"); got != unknownRoom {
		t.Fatalf("NearestRoom = %q, want %q", got, unknownRoom)
	}
}

func TestNewFailsFastOnDuplicateMac(t *testing.T) {
	_, err := New([]BeaconEntry{
		{MAC: "AA:AA:AA:AA:AA:AA", X: 0, Y: 0},
		{MAC: "aa:aa:aa:aa:aa:aa", X: 10, Y: 10},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for duplicate mac, got nil")
	}
}

func TestIsDestination(t *testing.T) {
	r, err := New(nil, []string{"Entrance", "yemekhane"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !r.IsDestination("  ENTRANCE ") {
		t.Fatalf("expected entrance alias to match case/whitespace-insensitively")
	}
	if r.IsDestination("merdiven") {
		t.Fatalf("did not expect unregistered alias to match")
	}
}
