// Package engine drives one grid through brush input, a physics tick and
// presentation of the cells that changed.
package engine

import (
	"fmt"

	"mad-sand/internal/catalog"
	"mad-sand/internal/core"
	"mad-sand/internal/grid"
	"mad-sand/internal/physics"
	"mad-sand/internal/render"
)

// Input is the pointer state for one tick in grid coordinates.
type Input struct {
	X, Y   int
	Inside bool
	Paint  bool
	Erase  bool
}

// Options configures a new Engine.
type Options struct {
	Width, Height int
	Seed          int64
	Catalog       *catalog.Catalog
	Mode          physics.Mode
	Material      uint16
	Brush         int
}

// Stats summarizes the last tick.
type Stats struct {
	Tick     uint64
	Working  int
	Moved    int
	Painted  int
	Queued   int
	Material string
	Mode     physics.Mode
}

// Engine owns the grid, the stepper and the presenter. It must be driven
// from a single goroutine.
type Engine struct {
	cat     *catalog.Catalog
	rng     *core.RNG
	grid    *grid.Grid
	stepper *physics.Stepper
	out     Presenter

	material uint16
	brush    int

	batch []render.Pixel
	seen  []bool
	stats Stats
}

// New builds an engine, fills the grid with Empty and queues every cell.
func New(opts Options, out Presenter) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("engine: nil catalog")
	}
	rng := core.NewRNG(opts.Seed)
	g, err := grid.New(opts.Width, opts.Height, opts.Catalog, rng)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if out == nil {
		out = Tee()
	}
	e := &Engine{
		cat:     opts.Catalog,
		rng:     rng,
		grid:    g,
		stepper: physics.NewStepper(g, rng, opts.Mode),
		out:     out,
		brush:   max(opts.Brush, 0),
		seen:    make([]bool, opts.Width*opts.Height),
	}
	e.material = opts.Material
	if _, ok := opts.Catalog.Lookup(e.material); !ok || e.material == catalog.EmptyID {
		e.material = opts.Catalog.Next(catalog.EmptyID, 1)
	}
	if err := e.reset(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) reset() error {
	if err := e.grid.Populate(catalog.EmptyID); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	e.queueAll()
	return nil
}

// Grid exposes the simulated grid for read access.
func (e *Engine) Grid() *grid.Grid { return e.grid }

// Catalog returns the material catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Stepper exposes the physics stepper.
func (e *Engine) Stepper() *physics.Stepper { return e.stepper }

// Stats returns counters for the last tick.
func (e *Engine) Stats() Stats { return e.stats }

// Material returns the selected brush material.
func (e *Engine) Material() uint16 { return e.material }

// MaterialName returns the selected material's display name.
func (e *Engine) MaterialName() string {
	if mt, ok := e.cat.Lookup(e.material); ok {
		return mt.Name
	}
	return "?"
}

// BrushRadius returns the brush radius in cells.
func (e *Engine) BrushRadius() int { return e.brush }

// SetBrushRadius clamps r to zero or more.
func (e *Engine) SetBrushRadius(r int) { e.brush = max(r, 0) }

// Select chooses the brush material. Unknown ids are rejected.
func (e *Engine) Select(id uint16) error {
	if _, ok := e.cat.Lookup(id); !ok {
		return fmt.Errorf("select %d: %w", id, catalog.ErrUnknownMaterial)
	}
	e.material = id
	return nil
}

// CycleMaterial moves the selection delta steps through the user materials.
func (e *Engine) CycleMaterial(delta int) uint16 {
	e.material = e.cat.Next(e.material, delta)
	return e.material
}

// Mode returns the stepper's working-set mode.
func (e *Engine) Mode() physics.Mode { return e.stepper.Mode() }

// ToggleMode switches between incremental and full stepping and returns the
// new mode.
func (e *Engine) ToggleMode() physics.Mode {
	if e.stepper.Mode() == physics.ModeFull {
		e.stepper.SetMode(physics.ModeIncremental)
	} else {
		e.stepper.SetMode(physics.ModeFull)
	}
	return e.stepper.Mode()
}

// Clear refills the grid with Empty and queues every cell.
func (e *Engine) Clear() error {
	if err := e.reset(); err != nil {
		return err
	}
	return e.out.Present()
}

// Paint applies the brush at (x, y). Erase writes Empty and takes precedence.
func (e *Engine) Paint(x, y int, erase bool) int {
	id := e.material
	if erase {
		id = catalog.EmptyID
	}
	return e.grid.FillCircleAt(x, y, e.brush, id)
}

// Tick applies input, advances the physics and presents the changed cells.
func (e *Engine) Tick(in Input) error {
	painted := 0
	if in.Inside && (in.Paint || in.Erase) {
		painted = e.Paint(in.X, in.Y, in.Erase)
	}

	working := e.stepper.Step()

	e.batch = e.batch[:0]
	e.collect(working)
	e.collect(e.grid.Dirty())
	for _, p := range e.batch {
		e.seen[p.Index] = false
	}
	if len(e.batch) > 0 {
		e.out.Queue(e.batch)
	}

	e.stats = Stats{
		Tick:     e.stats.Tick + 1,
		Working:  len(working),
		Moved:    e.stepper.Moved(),
		Painted:  painted,
		Queued:   len(e.batch),
		Material: e.MaterialName(),
		Mode:     e.stepper.Mode(),
	}
	return e.out.Present()
}

func (e *Engine) collect(indices []int) {
	for _, idx := range indices {
		if e.seen[idx] {
			continue
		}
		e.seen[idx] = true
		e.batch = append(e.batch, render.Pixel{Index: idx, Color: e.grid.ParticleAt(idx).Color})
	}
}

func (e *Engine) queueAll() {
	e.batch = e.batch[:0]
	for _, p := range e.grid.Particles() {
		e.batch = append(e.batch, render.Pixel{Index: p.Index, Color: p.Color})
	}
	e.out.Queue(e.batch)
}
