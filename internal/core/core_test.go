package core

import (
	"slices"
	"testing"
	"time"
)

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(7)
	b := NewRNG(7)
	for i := 0; i < 32; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("draw %d diverged for identical seeds", i)
		}
	}

	shuffled := func(seed int64) []int {
		vals := []int{0, 1, 2, 3, 4, 5, 6, 7}
		NewRNG(seed).Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })
		return vals
	}
	if !slices.Equal(shuffled(3), shuffled(3)) {
		t.Fatal("shuffle not reproducible for identical seeds")
	}
}

func TestFixedStepDue(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	fs := NewFixedStepClock(10, clock)

	if got := fs.Due(); got != 1 {
		t.Fatalf("first Due = %d, want 1 (primed accumulator)", got)
	}

	now = now.Add(250 * time.Millisecond)
	if got := fs.Due(); got != 2 {
		t.Fatalf("Due after 250ms at 10tps = %d, want 2", got)
	}

	now = now.Add(50 * time.Millisecond)
	if got := fs.Due(); got != 1 {
		t.Fatalf("leftover 50ms + 50ms should yield one tick, got %d", got)
	}

	now = now.Add(10 * time.Second)
	if got := fs.Due(); got != fs.MaxCatchUp {
		t.Fatalf("stall should be capped at %d ticks, got %d", fs.MaxCatchUp, got)
	}
	if got := fs.Due(); got != 0 {
		t.Fatalf("capped stall must discard excess time, got %d", got)
	}
}
