// Package bench runs headless pour scenarios and measures the cost of each
// tick.
package bench

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"mad-sand/internal/engine"
	"mad-sand/internal/stats"
)

// Scenario pours the selected material from the top centre of the grid for
// PourTicks ticks, then lets it settle until Ticks have run in total.
type Scenario struct {
	Options   engine.Options
	Ticks     int
	PourTicks int
	// StopWhenIdle ends the run early once pouring is over and nothing moves.
	StopWhenIdle bool
}

// Result summarizes one scenario run.
type Result struct {
	Seed     int64
	Ticks    int
	Elapsed  time.Duration
	Grains   int
	Settled  bool
	Checksum uint64
	Samples  []stats.Sample
}

// Run executes sc on the calling goroutine. out may be nil.
func Run(ctx context.Context, sc Scenario, out engine.Presenter) (Result, error) {
	eng, err := engine.New(sc.Options, out)
	if err != nil {
		return Result{}, err
	}
	g := eng.Grid()
	pour := engine.Input{X: g.Width() / 2, Y: g.Height() - 1 - sc.Options.Brush, Inside: true, Paint: true}

	res := Result{Seed: sc.Options.Seed, Samples: make([]stats.Sample, 0, sc.Ticks)}
	start := time.Now()
	for tick := 0; tick < sc.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		in := engine.Input{}
		if tick < sc.PourTicks {
			in = pour
		}
		t0 := time.Now()
		if err := eng.Tick(in); err != nil {
			return res, err
		}
		st := eng.Stats()
		res.Samples = append(res.Samples, stats.Sample{
			Tick:     st.Tick,
			Working:  st.Working,
			Moved:    st.Moved,
			Painted:  st.Painted,
			Queued:   st.Queued,
			Duration: time.Since(t0),
		})
		res.Ticks++
		if tick >= sc.PourTicks && g.DirtyLen() == 0 {
			res.Settled = true
			if sc.StopWhenIdle {
				break
			}
		}
	}
	res.Elapsed = time.Since(start)
	res.Grains = g.Count(eng.Material())
	res.Checksum = layoutChecksum(eng)
	return res, nil
}

func layoutChecksum(eng *engine.Engine) uint64 {
	h := fnv.New64a()
	var b [2]byte
	for _, p := range eng.Grid().Particles() {
		b[0], b[1] = byte(p.Material), byte(p.Material>>8)
		h.Write(b[:])
	}
	return h.Sum64()
}

// RunSeeds runs sc once per seed on up to workers goroutines. Each run owns
// its own engine. Results are returned in seed order.
func RunSeeds(ctx context.Context, sc Scenario, seeds []int64, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	type job struct {
		i    int
		seed int64
	}
	jobs := make(chan job)
	results := make([]Result, len(seeds))
	errs := make([]error, len(seeds))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				run := sc
				run.Options.Seed = j.seed
				results[j.i], errs[j.i] = Run(ctx, run, nil)
			}
		}()
	}
	for i, seed := range seeds {
		jobs <- job{i: i, seed: seed}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
