package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/profile"

	"mad-sand/internal/app"
	"mad-sand/internal/bench"
	"mad-sand/internal/physics"
	"mad-sand/internal/stats"
	"mad-sand/internal/trace"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type options struct {
	ticks, pour, seeds, workers int
	dbPath, profile             string
	stopIdle                    bool
}

func main() {
	var opt options
	flag.IntVar(&opt.ticks, "ticks", 600, "ticks to simulate per seed")
	flag.IntVar(&opt.pour, "pour", 120, "ticks to pour material before letting it settle")
	flag.IntVar(&opt.seeds, "seeds", 4, "number of seeds to run, starting at -seed")
	flag.IntVar(&opt.workers, "workers", runtime.NumCPU(), "parallel scenario runs")
	flag.StringVar(&opt.dbPath, "db", "", "sqlite file to record per-tick samples in")
	flag.StringVar(&opt.profile, "profile", "", "write a cpu or mem profile to the working directory")
	flag.BoolVar(&opt.stopIdle, "stop-idle", false, "end a run once pouring is over and nothing moves")
	var overrides kvList
	flag.Var(&overrides, "set", "config override in key=value form (repeatable)")

	cfg, err := app.Resolve(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := applyOverrides(&cfg, overrides); err != nil {
		log.Fatal(err)
	}
	if err := run(context.Background(), cfg, opt, app.NewLogger()); err != nil {
		log.Fatal(err)
	}
}

func applyOverrides(cfg *app.Config, overrides kvList) error {
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid -set %q, want key=value", kv)
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

// run owns every deferred cleanup, so the profile is written even when a
// scenario fails.
func run(ctx context.Context, cfg app.Config, opt options, logger *log.Logger) error {
	switch opt.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile %q, want cpu or mem", opt.profile)
	}

	cat, err := cfg.LoadCatalog(logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	engOpts, err := cfg.EngineOptions(cat)
	if err != nil {
		return err
	}
	sc := bench.Scenario{Options: engOpts, Ticks: opt.ticks, PourTicks: opt.pour, StopWhenIdle: opt.stopIdle}

	list := make([]int64, max(opt.seeds, 1))
	for i := range list {
		list[i] = cfg.Seed + int64(i)
	}

	fmt.Printf("Running %d seeds on a %dx%d grid (%d workers, %d ticks, mode %s)\n",
		len(list), cfg.Width, cfg.Height, opt.workers, opt.ticks, engOpts.Mode)

	start := time.Now()
	results, err := bench.RunSeeds(ctx, sc, list, opt.workers)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if cfg.Trace != "" {
		if err := recordTrace(ctx, cfg, sc); err != nil {
			return err
		}
		logger.Printf("trace of seed %d written to %s", cfg.Seed, cfg.Trace)
	}

	for _, r := range results {
		fmt.Printf("seed=%d ticks=%d grains=%d settled=%v elapsed=%s per-tick=%s checksum=%016x\n",
			r.Seed, r.Ticks, r.Grains, r.Settled, r.Elapsed.Round(time.Millisecond),
			perTick(r.Elapsed, r.Ticks), r.Checksum)
	}
	fmt.Printf("Completed in %s\n", elapsed.Round(time.Millisecond))

	if opt.dbPath == "" {
		return nil
	}
	return store(ctx, opt.dbPath, cfg, engOpts.Mode, results)
}

func perTick(d time.Duration, ticks int) time.Duration {
	if ticks == 0 {
		return 0
	}
	return d / time.Duration(ticks)
}

// recordTrace reruns the first seed with a recorder attached so the traced
// run matches the first printed result.
func recordTrace(ctx context.Context, cfg app.Config, sc bench.Scenario) error {
	rec, err := trace.Create(cfg.Trace, cfg.Width, cfg.Height, cfg.Tile)
	if err != nil {
		return err
	}
	sc.Options.Seed = cfg.Seed
	_, runErr := bench.Run(ctx, sc, rec)
	if err := rec.Close(); runErr == nil {
		runErr = err
	}
	return runErr
}

func store(ctx context.Context, path string, cfg app.Config, mode physics.Mode, results []bench.Result) error {
	db, err := stats.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, r := range results {
		id, err := db.StartRun(ctx, stats.Run{
			Started:  time.Now(),
			Width:    cfg.Width,
			Height:   cfg.Height,
			Seed:     r.Seed,
			Mode:     mode.String(),
			Material: cfg.Material,
			Brush:    cfg.Brush,
		})
		if err != nil {
			return err
		}
		if err := db.RecordTicks(ctx, id, r.Samples); err != nil {
			return err
		}
		if err := db.FinishRun(ctx, id, r.Ticks, r.Elapsed); err != nil {
			return err
		}
		sum, err := db.Summarize(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("run %d: mean working %.1f, max working %d, moved %d, idle ticks %d, mean tick %s\n",
			id, sum.MeanWorking, sum.MaxWorking, sum.TotalMoved, sum.IdleTicks, sum.MeanTick)
	}
	return nil
}
