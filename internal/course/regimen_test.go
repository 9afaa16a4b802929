package course

import "testing"

func TestRegimenLadderBoundaries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		day      int
		doses    int
		interval float64
		complete bool
	}{
		{day: 1, doses: 6, interval: 2},
		{day: 3, doses: 6, interval: 2},
		{day: 4, doses: 5, interval: 2.5},
		{day: 12, doses: 5, interval: 2.5},
		{day: 13, doses: 4, interval: 3},
		{day: 16, doses: 4, interval: 3},
		{day: 17, doses: 3, interval: 5},
		{day: 20, doses: 3, interval: 5},
		{day: 21, doses: 2, interval: 12},
		{day: 25, doses: 2, interval: 12},
		{day: 26, complete: true},
		{day: 100, complete: true},
	}

	for _, tt := range tests {
		reg, ok := RegimenFor(tt.day)
		if tt.complete {
			if ok {
				t.Fatalf("day %d: expected no regimen, got %+v", tt.day, reg)
			}
			continue
		}
		if !ok {
			t.Fatalf("day %d: expected a regimen", tt.day)
		}
		if reg.DosesPerDay != tt.doses || reg.IntervalHours != tt.interval {
			t.Fatalf("day %d: got (%d, %v), want (%d, %v)",
				tt.day, reg.DosesPerDay, reg.IntervalHours, tt.doses, tt.interval)
		}
	}
}
