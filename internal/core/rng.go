package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
// A single RNG is shared by particle construction and tick ordering so a seed
// reproduces a whole run.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// Shuffle performs a uniform Fisher-Yates shuffle over n elements.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	if n < 2 {
		return
	}
	r.r.Shuffle(n, swap)
}
