package render

import "slices"

// DefaultTile is the coalescing tile edge in canvas pixels.
const DefaultTile = 32

// Rect is a half-open pixel rectangle [MinX, MaxX) x [MinY, MaxY).
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.MinX >= r.MaxX || r.MinY >= r.MaxY }

// Dx returns the width of r.
func (r Rect) Dx() int { return r.MaxX - r.MinX }

// Dy returns the height of r.
func (r Rect) Dy() int { return r.MaxY - r.MinY }

// Area returns the number of pixels covered by r.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// Contains reports whether the pixel (x, y) lies in r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Intersect returns the overlap of r and o, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		MinX: max(r.MinX, o.MinX),
		MinY: max(r.MinY, o.MinY),
		MaxX: min(r.MaxX, o.MaxX),
		MaxY: min(r.MaxY, o.MaxY),
	}
}

func (r Rect) union(o Rect) Rect {
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// Coalescer buckets changed rectangles into fixed tiles and reports one
// bounding rectangle per touched tile. Output is bounded by the tile count no
// matter how many pixels changed.
type Coalescer struct {
	w, h       int
	tile       int
	cols, rows int

	acc     []Rect
	used    []bool
	touched []int
}

// NewCoalescer covers a width x height canvas with tile x tile buckets. A
// non-positive tile selects DefaultTile.
func NewCoalescer(width, height, tile int) *Coalescer {
	if tile <= 0 {
		tile = DefaultTile
	}
	width, height = max(width, 0), max(height, 0)
	cols := (width + tile - 1) / tile
	rows := (height + tile - 1) / tile
	return &Coalescer{
		w:    width,
		h:    height,
		tile: tile,
		cols: cols,
		rows: rows,
		acc:  make([]Rect, cols*rows),
		used: make([]bool, cols*rows),
	}
}

// Tile returns the tile edge length.
func (c *Coalescer) Tile() int { return c.tile }

// Pending reports how many tiles hold changes.
func (c *Coalescer) Pending() int { return len(c.touched) }

// AddPixel records a single changed pixel.
func (c *Coalescer) AddPixel(x, y int) {
	c.Add(Rect{MinX: x, MinY: y, MaxX: x + 1, MaxY: y + 1})
}

// Add records a changed rectangle. Parts outside the canvas are ignored.
func (c *Coalescer) Add(r Rect) {
	r = r.Intersect(Rect{MaxX: c.w, MaxY: c.h})
	if r.Empty() {
		return
	}
	tx0, tx1 := r.MinX/c.tile, (r.MaxX-1)/c.tile
	ty0, ty1 := r.MinY/c.tile, (r.MaxY-1)/c.tile
	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			t := ty*c.cols + tx
			part := r.Intersect(c.tileRect(tx, ty))
			if !c.used[t] {
				c.used[t] = true
				c.acc[t] = part
				c.touched = append(c.touched, t)
				continue
			}
			c.acc[t] = c.acc[t].union(part)
		}
	}
}

func (c *Coalescer) tileRect(tx, ty int) Rect {
	return Rect{
		MinX: tx * c.tile,
		MinY: ty * c.tile,
		MaxX: (tx + 1) * c.tile,
		MaxY: (ty + 1) * c.tile,
	}
}

// Flush appends one rectangle per touched tile to dst in row-major tile order
// and resets the coalescer.
func (c *Coalescer) Flush(dst []Rect) []Rect {
	slices.Sort(c.touched)
	for _, t := range c.touched {
		dst = append(dst, c.acc[t])
		c.used[t] = false
	}
	c.touched = c.touched[:0]
	return dst
}
