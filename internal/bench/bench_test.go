package bench

import (
	"context"
	"testing"

	"mad-sand/internal/catalog"
	"mad-sand/internal/engine"
	"mad-sand/internal/physics"
)

func scenario(t *testing.T) Scenario {
	t.Helper()
	cat, _, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	sand, ok := cat.ByName("Sand")
	if !ok {
		t.Fatal("default catalog has no sand")
	}
	return Scenario{
		Options:      engine.Options{Width: 32, Height: 24, Seed: 5, Catalog: cat, Material: sand.ID, Brush: 1, Mode: physics.ModeIncremental},
		Ticks:        400,
		PourTicks:    10,
		StopWhenIdle: true,
	}
}

func TestRunSettlesAndConservesGrains(t *testing.T) {
	sc := scenario(t)
	res, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Settled || res.Ticks >= sc.Ticks {
		t.Fatalf("run did not settle: %+v", res)
	}
	painted := 0
	for _, s := range res.Samples {
		painted += s.Painted
	}
	if res.Grains == 0 || res.Grains > painted {
		t.Fatalf("grains = %d, painted %d", res.Grains, painted)
	}
	if len(res.Samples) != res.Ticks || res.Samples[0].Tick != 1 {
		t.Fatalf("samples = %d for %d ticks", len(res.Samples), res.Ticks)
	}
}

func TestRunIsDeterministicPerSeed(t *testing.T) {
	sc := scenario(t)
	a, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if a.Checksum != b.Checksum || a.Ticks != b.Ticks || a.Grains != b.Grains {
		t.Fatalf("same seed diverged: %+v vs %+v", a, b)
	}
}

func TestRunSeedsKeepsOrder(t *testing.T) {
	sc := scenario(t)
	seeds := []int64{1, 2, 3, 4}
	results, err := RunSeeds(context.Background(), sc, seeds, 3)
	if err != nil {
		t.Fatalf("run seeds: %v", err)
	}
	for i, r := range results {
		if r.Seed != seeds[i] {
			t.Fatalf("result %d has seed %d", i, r.Seed)
		}
	}
	single, err := Run(context.Background(), func() Scenario { s := sc; s.Options.Seed = 3; return s }(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if single.Checksum != results[2].Checksum {
		t.Fatal("parallel run differs from a sequential run with the same seed")
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, scenario(t), nil); err == nil {
		t.Fatal("expected context error")
	}
}
