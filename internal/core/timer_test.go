package core

import (
	"testing"
	"time"
)

func TestStopwatchLaps(t *testing.T) {
	clock := time.Unix(0, 0)
	sw := NewStopwatch()
	sw.now = func() time.Time { return clock }

	for _, d := range []time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond} {
		sw.Start()
		clock = clock.Add(d)
		if got := sw.Stop(); got != d {
			t.Fatalf("Stop() = %s, want %s", got, d)
		}
	}

	if sw.Laps() != 3 {
		t.Fatalf("Laps() = %d, want 3", sw.Laps())
	}
	if sw.Total() != 9*time.Millisecond {
		t.Fatalf("Total() = %s", sw.Total())
	}
	if sw.Mean() != 3*time.Millisecond {
		t.Fatalf("Mean() = %s", sw.Mean())
	}
	if sw.Min() != time.Millisecond || sw.Max() != 5*time.Millisecond {
		t.Fatalf("Min/Max = %s/%s", sw.Min(), sw.Max())
	}
	if sw.Stop() != 0 {
		t.Fatal("Stop without Start should record nothing")
	}
}
