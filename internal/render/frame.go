package render

import "image/color"

// Pixel pairs a grid cell index with the color to show for it.
type Pixel struct {
	Index int
	Color color.RGBA
}

// Frame is a CPU-side RGBA canvas for a grid. Grid row 0 is the bottom of the
// canvas. Every write is recorded in the frame's coalescer so presenters only
// upload what changed.
type Frame struct {
	w, h  int
	pix   []byte
	dirty *Coalescer
}

// NewFrame allocates a transparent width x height canvas.
func NewFrame(width, height, tile int) *Frame {
	return &Frame{
		w:     width,
		h:     height,
		pix:   make([]byte, width*height*4),
		dirty: NewCoalescer(width, height, tile),
	}
}

// Width returns the canvas width in pixels.
func (f *Frame) Width() int { return f.w }

// Height returns the canvas height in pixels.
func (f *Frame) Height() int { return f.h }

// Pix exposes the RGBA buffer in canvas row-major order.
func (f *Frame) Pix() []byte { return f.pix }

// CanvasXY maps a grid index to canvas coordinates.
func (f *Frame) CanvasXY(index int) (int, int) {
	return index % f.w, f.h - 1 - index/f.w
}

// Set writes one grid cell and records its pixel as changed.
func (f *Frame) Set(index int, c color.RGBA) {
	if index < 0 || index >= f.w*f.h {
		return
	}
	x, y := f.CanvasXY(index)
	base := (y*f.w + x) * 4
	f.pix[base+0] = c.R
	f.pix[base+1] = c.G
	f.pix[base+2] = c.B
	f.pix[base+3] = c.A
	f.dirty.AddPixel(x, y)
}

// Apply writes a batch of cells.
func (f *Frame) Apply(batch []Pixel) {
	for _, p := range batch {
		f.Set(p.Index, p.Color)
	}
}

// At returns the color at canvas coordinates (x, y).
func (f *Frame) At(x, y int) color.RGBA {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return color.RGBA{}
	}
	base := (y*f.w + x) * 4
	return color.RGBA{R: f.pix[base], G: f.pix[base+1], B: f.pix[base+2], A: f.pix[base+3]}
}

// Flush appends the coalesced changed regions to dst and resets tracking.
func (f *Frame) Flush(dst []Rect) []Rect { return f.dirty.Flush(dst) }

// Pending reports how many tiles hold unflushed changes.
func (f *Frame) Pending() int { return f.dirty.Pending() }

// RegionPixels appends the RGBA bytes of r, row by row, to dst.
func (f *Frame) RegionPixels(r Rect, dst []byte) []byte {
	r = r.Intersect(Rect{MaxX: f.w, MaxY: f.h})
	if r.Empty() {
		return dst
	}
	for y := r.MinY; y < r.MaxY; y++ {
		start := (y*f.w + r.MinX) * 4
		dst = append(dst, f.pix[start:start+r.Dx()*4]...)
	}
	return dst
}
