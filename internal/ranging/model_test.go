package ranging

import "testing"

func TestDistanceMIsMonotoneNonIncreasing(t *testing.T) {
	for r2 := MinValidRSSI; r2 <= 0; r2++ {
		for r1 := r2 + 1; r1 <= 0; r1++ {
			d1 := DistanceM(r1)
			d2 := DistanceM(r2)
			if d1 > d2 {
				t.Fatalf("distance(%d)=%v > distance(%d)=%v, expected non-increasing in rssi", r1, d1, r2, d2)
			}
		}
	}
}

func TestDistanceMClampedToRange(t *testing.T) {
	for rssi := -120; rssi <= 0; rssi++ {
		d := DistanceM(rssi)
		if d < MinDistanceM || d > MaxDistanceM {
			t.Fatalf("distance(%d) = %v, out of [%v,%v]", rssi, d, MinDistanceM, MaxDistanceM)
		}
	}
}

func TestDistanceMKnownSample(t *testing.T) {
	// rssi=-55 is within the NEAR band (n=BASE_N); sanity-check it
	// lands near the ~0.8m figure from the scenario in spec.md.
	d := DistanceM(-55)
	if d < 0.5 || d > 1.2 {
		t.Fatalf("distance(-55) = %v, expected roughly 0.8m", d)
	}
}
