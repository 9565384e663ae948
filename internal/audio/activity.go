// Package audio turns simulation activity into a sand-like hiss: filtered
// noise whose loudness follows how many grains moved in the last tick.
package audio

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

// Activity is an endless beep.Streamer. Its target level may be changed from
// any goroutine; the audible amplitude glides toward it.
type Activity struct {
	target atomic.Uint64

	amp    float64
	glide  float64
	lp     float64
	cutoff float64
	rng    *rand.Rand
}

// NewActivity builds a hiss for the given sample rate. The seed fixes the
// noise sequence.
func NewActivity(rate beep.SampleRate, seed uint64) *Activity {
	// One-pole coefficients: ~40ms amplitude glide, ~2.5kHz low-pass.
	glide := 1 - math.Exp(-1/(float64(rate.N(40*time.Millisecond))+1))
	cutoff := 1 - math.Exp(-2*math.Pi*2500/float64(rate))
	return &Activity{glide: glide, cutoff: cutoff, rng: rand.New(rand.NewPCG(seed, 0x5a4d))}
}

// Set changes the target level, clamped to [0, 1].
func (a *Activity) Set(level float64) {
	level = math.Max(0, math.Min(1, level))
	a.target.Store(math.Float64bits(level))
}

// Level returns the target level.
func (a *Activity) Level() float64 { return math.Float64frombits(a.target.Load()) }

func (a *Activity) Stream(samples [][2]float64) (n int, ok bool) {
	target := a.Level()
	for i := range samples {
		a.amp += (target - a.amp) * a.glide
		noise := a.rng.Float64()*2 - 1
		a.lp += (noise - a.lp) * a.cutoff
		v := a.lp * a.amp
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (a *Activity) Err() error { return nil }

// LevelFor maps a count of moved grains to a loudness in [0, 1). The curve
// saturates so a large pour does not clip.
func LevelFor(moved int, scale float64) float64 {
	if moved <= 0 || scale <= 0 {
		return 0
	}
	return 1 - math.Exp(-float64(moved)/scale)
}
