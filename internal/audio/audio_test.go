package audio

import (
	"math"
	"testing"
	"time"

	"mad-sand/internal/engine"
)

func TestActivitySilentAtZero(t *testing.T) {
	a := NewActivity(sampleRate, 7)
	samples := make([][2]float64, 512)
	n, ok := a.Stream(samples)
	if n != 512 || !ok {
		t.Fatalf("stream = %d, %v", n, ok)
	}
	for i, s := range samples {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("sample %d = %v, want silence", i, s)
		}
	}
}

func TestActivityFollowsLevel(t *testing.T) {
	a := NewActivity(sampleRate, 7)
	a.Set(3)
	if a.Level() != 1 {
		t.Fatalf("level = %v, want clamp to 1", a.Level())
	}

	samples := make([][2]float64, sampleRate.N(200*time.Millisecond))
	a.Stream(samples)
	peak := 0.0
	for _, s := range samples {
		if s[0] != s[1] {
			t.Fatal("channels differ")
		}
		if math.Abs(s[0]) > 1 {
			t.Fatalf("sample %v out of range", s[0])
		}
		peak = math.Max(peak, math.Abs(s[0]))
	}
	if peak < 0.05 {
		t.Fatalf("peak %v too quiet at full level", peak)
	}
	if a.amp < 0.95 {
		t.Fatalf("amplitude %v did not glide to the target", a.amp)
	}

	a.Set(-1)
	a.Stream(samples)
	if a.amp > 0.05 {
		t.Fatalf("amplitude %v did not fall back", a.amp)
	}
}

func TestLevelFor(t *testing.T) {
	if LevelFor(0, 100) != 0 || LevelFor(10, 0) != 0 {
		t.Fatal("expected silence for no movement")
	}
	low, high := LevelFor(10, 100), LevelFor(1000, 100)
	if !(low > 0 && low < high && high < 1) {
		t.Fatalf("levels %v, %v not increasing within (0, 1)", low, high)
	}
}

func TestPlayerObserveWithoutDevice(t *testing.T) {
	p := NewPlayer(0.5, 100)
	p.Observe(engine.Stats{Moved: 100})
	if got := p.activity.Level(); math.Abs(got-(1-math.Exp(-1))) > 1e-9 {
		t.Fatalf("level = %v", got)
	}
	p.SetPaused(true)
	if !p.ctrl.Paused {
		t.Fatal("pause not applied")
	}
	p.Close()
}
