// Package physics advances a grid by one tick of granular movement.
package physics

import (
	"fmt"
	"slices"
	"strings"

	"mad-sand/internal/catalog"
	"mad-sand/internal/core"
	"mad-sand/internal/grid"
)

// FallDirections is the movement rule for granular particles: straight down
// first, then either lower diagonal.
var FallDirections = [][]grid.Offset{
	{{DX: 0, DY: -1}},
	{{DX: -1, DY: -1}, {DX: 1, DY: -1}},
}

// Mode selects how the working set of a tick is built.
type Mode int

const (
	// ModeIncremental processes only the cells marked dirty since the last tick.
	ModeIncremental Mode = iota
	// ModeFull processes every cell each tick.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeIncremental:
		return "incremental"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "incremental", "dirty":
		return ModeIncremental, nil
	case "full":
		return ModeFull, nil
	}
	return ModeIncremental, fmt.Errorf("unknown step mode %q", s)
}

// Stepper runs ticks against a single grid. It is not safe for concurrent use.
type Stepper struct {
	g    *grid.Grid
	rng  *core.RNG
	mode Mode

	working []int
	moved   int
}

// NewStepper returns a stepper for g. The rng should be the one the grid was
// built with so a single seed reproduces a run.
func NewStepper(g *grid.Grid, rng *core.RNG, mode Mode) *Stepper {
	if rng == nil {
		rng = core.NewRNG(0)
	}
	return &Stepper{g: g, rng: rng, mode: mode}
}

// Mode returns the working-set mode.
func (s *Stepper) Mode() Mode { return s.mode }

// SetMode switches the working-set mode from the next tick on.
func (s *Stepper) SetMode(m Mode) { s.mode = m }

// Moved reports how many particles moved during the last Step.
func (s *Stepper) Moved() int { return s.moved }

// Step advances the grid by one tick and returns the working set it consumed.
// The returned slice is reused by the next call.
func (s *Stepper) Step() []int {
	s.working = s.g.TakeDirty(s.working[:0])
	if s.mode == ModeFull {
		s.working = s.working[:0]
		for i := range s.g.Width() * s.g.Height() {
			s.working = append(s.working, i)
		}
	}

	Order(s.working, s.g.Width(), s.rng)

	s.moved = 0
	for _, idx := range s.working {
		// A cell may have been refilled by an earlier move this tick.
		if s.g.ParticleAt(idx).Category != catalog.CategoryGranular {
			continue
		}
		if s.g.TryMoveParticle(idx, FallDirections, true, true) {
			s.moved++
		}
	}
	return s.working
}

// Order shuffles indices uniformly and then stable-sorts them by row, lowest
// row first. Cells of the same row keep their random relative order.
func Order(indices []int, width int, rng *core.RNG) {
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	slices.SortStableFunc(indices, func(a, b int) int {
		return a/width - b/width
	})
}
