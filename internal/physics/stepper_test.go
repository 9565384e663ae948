package physics

import (
	"image/color"
	"slices"
	"testing"

	"mad-sand/internal/catalog"
	"mad-sand/internal/core"
	"mad-sand/internal/grid"
)

const (
	sandID  uint16 = 10
	waterID uint16 = 11
)

func newWorld(t *testing.T, w, h int, seed int64) (*grid.Grid, *core.RNG) {
	t.Helper()
	cat, err := catalog.New(
		&catalog.MaterialType{ID: sandID, Name: "Sand", Category: catalog.CategoryGranular,
			Base: color.RGBA{194, 178, 128, 255}, Variant: color.RGBA{168, 144, 96, 255}, Movable: true, Density: 2},
		&catalog.MaterialType{ID: waterID, Name: "Water", Category: catalog.CategoryLiquid,
			Base: color.RGBA{40, 80, 200, 255}, Variant: color.RGBA{40, 80, 200, 255}, Movable: true, Density: 1},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	rng := core.NewRNG(seed)
	g, err := grid.New(w, h, cat, rng)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if err := g.Populate(catalog.EmptyID); err != nil {
		t.Fatalf("populate: %v", err)
	}
	return g, rng
}

// runUntilIdle steps until nothing is left dirty.
func runUntilIdle(t *testing.T, s *Stepper, g *grid.Grid, limit int) int {
	t.Helper()
	for tick := 1; tick <= limit; tick++ {
		s.Step()
		if g.DirtyLen() == 0 {
			return tick
		}
	}
	t.Fatalf("grid still active after %d ticks", limit)
	return limit
}

func TestSingleGrainFallsToFloor(t *testing.T) {
	g, rng := newWorld(t, 10, 10, 1)
	if !g.CreateParticleAt(5, 9, sandID, true, true) {
		t.Fatal("create failed")
	}
	s := NewStepper(g, rng, ModeIncremental)
	runUntilIdle(t, s, g, 50)

	if got := g.Count(sandID); got != 1 {
		t.Fatalf("sand count = %d, want 1", got)
	}
	p, _ := g.At(5, 0)
	if p.Material != sandID {
		t.Fatalf("floor cell (5,0) holds %q", p.Name)
	}
}

func TestGrainFallsOneRowPerTick(t *testing.T) {
	g, rng := newWorld(t, 10, 10, 2)
	g.CreateParticleAt(5, 9, sandID, true, true)
	s := NewStepper(g, rng, ModeIncremental)
	for want := 8; want >= 0; want-- {
		s.Step()
		if p, _ := g.At(5, want); p.Material != sandID {
			t.Fatalf("after tick %d grain is not at row %d", 9-want, want)
		}
	}
	if s.Moved() != 1 {
		t.Fatalf("moved = %d on the last falling tick", s.Moved())
	}
}

func TestColumnSettlesContiguously(t *testing.T) {
	g, rng := newWorld(t, 1, 10, 3)
	for y := 5; y < 9; y++ {
		g.CreateParticleAt(0, y, sandID, true, true)
	}
	s := NewStepper(g, rng, ModeIncremental)
	runUntilIdle(t, s, g, 50)

	for y := 0; y < 10; y++ {
		p, _ := g.At(0, y)
		if want := y < 4; (p.Material == sandID) != want {
			t.Fatalf("row %d sand=%v, want %v", y, p.Material == sandID, want)
		}
	}
}

func TestPileIsStable(t *testing.T) {
	g, rng := newWorld(t, 9, 12, 4)
	for y := 6; y < 12; y++ {
		g.CreateParticleAt(4, y, sandID, true, true)
	}
	s := NewStepper(g, rng, ModeIncremental)
	runUntilIdle(t, s, g, 200)

	if got := g.Count(sandID); got != 6 {
		t.Fatalf("sand count = %d, want 6", got)
	}
	for _, p := range g.Particles() {
		if p.Material != sandID {
			continue
		}
		for _, group := range FallDirections {
			for _, off := range group {
				below, ok := g.At(p.X+off.DX, p.Y+off.DY)
				if ok && below.Material == catalog.EmptyID {
					t.Fatalf("grain at (%d,%d) can still move to (%d,%d)", p.X, p.Y, below.X, below.Y)
				}
			}
		}
	}
}

func TestSandSinksThroughWaterButWaterStays(t *testing.T) {
	g, rng := newWorld(t, 1, 4, 5)
	g.CreateParticleAt(0, 3, sandID, true, true)
	g.CreateParticleAt(0, 2, waterID, true, true)
	s := NewStepper(g, rng, ModeIncremental)
	runUntilIdle(t, s, g, 20)

	bottom, _ := g.At(0, 0)
	next, _ := g.At(0, 1)
	if bottom.Material != sandID {
		t.Fatalf("bottom holds %q, want Sand", bottom.Name)
	}
	if g.Count(waterID) != 1 || next.Material == sandID {
		t.Fatalf("water lost or sand duplicated")
	}
}

func TestFullModeVisitsEveryCell(t *testing.T) {
	g, rng := newWorld(t, 10, 10, 6)
	g.CreateParticleAt(5, 9, sandID, false, false)
	s := NewStepper(g, rng, ModeFull)

	working := s.Step()
	if len(working) != 100 {
		t.Fatalf("working set = %d, want 100", len(working))
	}
	if p, _ := g.At(5, 8); p.Material != sandID {
		t.Fatal("grain did not fall in full mode")
	}
	for i := 0; i < 9; i++ {
		s.Step()
	}
	if p, _ := g.At(5, 0); p.Material != sandID {
		t.Fatal("grain did not reach the floor in full mode")
	}
}

func TestOrderSortsRowsAndShufflesWithinRow(t *testing.T) {
	const width = 10
	firstRows := map[[width]int]bool{}
	for seed := int64(0); seed < 8; seed++ {
		indices := make([]int, 3*width)
		for i := range indices {
			indices[i] = len(indices) - 1 - i
		}
		Order(indices, width, core.NewRNG(seed))

		for i := 1; i < len(indices); i++ {
			if indices[i]/width < indices[i-1]/width {
				t.Fatalf("seed %d: row order broken at %d: %v", seed, i, indices)
			}
		}
		sorted := slices.Clone(indices)
		slices.Sort(sorted)
		for i, v := range sorted {
			if v != i {
				t.Fatalf("seed %d: not a permutation: %v", seed, indices)
			}
		}
		firstRows[[width]int(indices[:width])] = true
	}
	if len(firstRows) < 2 {
		t.Fatal("same-row order did not vary across seeds")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeIncremental, "Full": ModeFull, "incremental": ModeIncremental} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
