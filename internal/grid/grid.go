// Package grid owns the falling-sand simulation state: a dense row-major
// array of particles, the set of cells changed since it was last drained, and
// the coordinate arithmetic every mutation goes through.
//
// Row 0 is the bottom of the world; gravity points toward decreasing y.
package grid

import (
	"errors"
	"fmt"

	"mad-sand/internal/catalog"
	"mad-sand/internal/core"
)

// ErrInvalidSize is returned by New for non-positive dimensions.
var ErrInvalidSize = errors.New("grid dimensions must be positive")

// Offset is a relative cell displacement.
type Offset struct {
	DX, DY int
}

var (
	// MooreOffsets lists the 8-connected neighborhood.
	MooreOffsets = []Offset{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	// VonNeumannOffsets lists the 4-connected neighborhood.
	VonNeumannOffsets = []Offset{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
)

// Grid stores width*height particles in row-major order.
type Grid struct {
	w, h int
	cat  *catalog.Catalog
	rng  *core.RNG

	data  []Particle
	dirty dirtySet

	scratch   []Offset
	neighbors []int
}

// New binds a catalog and random source to a grid of the given size. Cells are
// not allocated until Populate.
func New(w, h int, cat *catalog.Catalog, rng *core.RNG) (*Grid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	if cat == nil {
		return nil, errors.New("grid: nil catalog")
	}
	if rng == nil {
		rng = core.NewRNG(0)
	}
	return &Grid{
		w:         w,
		h:         h,
		cat:       cat,
		rng:       rng,
		dirty:     newDirtySet(w * h),
		neighbors: make([]int, 0, len(MooreOffsets)),
	}, nil
}

// Populate fills every cell with a fresh particle of the given material and
// forgets any pending dirty marks.
func (g *Grid) Populate(id uint16) error {
	mt, ok := g.cat.Lookup(id)
	if !ok {
		return fmt.Errorf("populate: %w %d", catalog.ErrUnknownMaterial, id)
	}
	if len(g.data) != g.w*g.h {
		g.data = make([]Particle, g.w*g.h)
	}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			idx := y*g.w + x
			g.data[idx] = newParticle(mt, x, y, idx, g.rng)
		}
	}
	g.dirty.clear()
	return nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.w }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.h }

// Catalog returns the catalog the grid was built with.
func (g *Grid) Catalog() *catalog.Catalog { return g.cat }

// Index returns the linear index for (x, y). It does not check bounds.
func (g *Grid) Index(x, y int) int { return y*g.w + x }

// InBounds reports whether (x, y) is a cell of the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// Particles exposes the backing slice. Callers must treat it as read-only.
func (g *Grid) Particles() []Particle { return g.data }

// ParticleAt returns a copy of the particle at a linear index.
func (g *Grid) ParticleAt(index int) Particle { return g.data[index] }

// At returns the particle at (x, y).
func (g *Grid) At(x, y int) (Particle, bool) {
	if !g.InBounds(x, y) || len(g.data) == 0 {
		return Particle{}, false
	}
	return g.data[y*g.w+x], true
}

// Count returns how many cells hold the given material.
func (g *Grid) Count(id uint16) int {
	n := 0
	for i := range g.data {
		if g.data[i].Material == id {
			n++
		}
	}
	return n
}

// CreateParticleAt overwrites the cell at (x, y) with a fresh particle of the
// given material. It reports false and changes nothing when the cell is out
// of bounds or the material is unknown.
func (g *Grid) CreateParticleAt(x, y int, id uint16, markDirty, markNeighbors bool) bool {
	if !g.InBounds(x, y) || len(g.data) == 0 {
		return false
	}
	mt, ok := g.cat.Lookup(id)
	if !ok {
		return false
	}
	idx := y*g.w + x
	g.data[idx] = newParticle(mt, x, y, idx, g.rng)
	if markDirty {
		g.MarkDirty(x, y, markNeighbors)
	}
	return true
}

// FillCircleAt writes the material into every in-bounds cell whose offset
// (i, j) from the center satisfies i*i+j*j <= radius*radius, marking each cell
// and its neighborhood dirty. It returns the number of cells written.
func (g *Grid) FillCircleAt(cx, cy, radius int, id uint16) int {
	if radius < 0 {
		return 0
	}
	written := 0
	r2 := radius * radius
	for i := -radius; i <= radius; i++ {
		for j := -radius; j <= radius; j++ {
			if i*i+j*j > r2 {
				continue
			}
			if g.CreateParticleAt(cx+i, cy+j, id, true, true) {
				written++
			}
		}
	}
	return written
}

// NeighborIndices appends the linear indices of the in-bounds cells at the
// given offsets from (x, y) to dst.
func (g *Grid) NeighborIndices(x, y int, offsets []Offset, dst []int) []int {
	for _, off := range offsets {
		nx, ny := x+off.DX, y+off.DY
		if g.InBounds(nx, ny) {
			dst = append(dst, ny*g.w+nx)
		}
	}
	return dst
}

// MarkDirty records (x, y), and optionally its Moore neighborhood, as changed.
func (g *Grid) MarkDirty(x, y int, includeNeighbors bool) {
	if !g.InBounds(x, y) {
		return
	}
	g.dirty.add(y*g.w + x)
	if !includeNeighbors {
		return
	}
	g.neighbors = g.NeighborIndices(x, y, MooreOffsets, g.neighbors[:0])
	for _, idx := range g.neighbors {
		g.dirty.add(idx)
	}
}

// IsDirty reports whether a linear index is currently marked.
func (g *Grid) IsDirty(index int) bool { return g.dirty.has(index) }

// DirtyLen returns the number of marked cells.
func (g *Grid) DirtyLen() int { return len(g.dirty.list) }

// Dirty returns the marked indices without draining them. The slice is only
// valid until the next mutation.
func (g *Grid) Dirty() []int { return g.dirty.list }

// TakeDirty appends the marked indices to dst and clears the set.
func (g *Grid) TakeDirty(dst []int) []int { return g.dirty.take(dst) }
