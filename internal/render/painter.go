//go:build ebiten

package render

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Painter mirrors a Frame into a GPU image, uploading only changed regions.
type Painter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewPainter allocates a painter for a w*h canvas.
func NewPainter(w, h int) *Painter {
	return &Painter{w: w, h: h, img: ebiten.NewImage(w, h), buf: make([]byte, 0, 4*DefaultTile*DefaultTile)}
}

// Upload copies each region of f into the painter image.
func (p *Painter) Upload(f *Frame, regions []Rect) error {
	for _, r := range regions {
		if r.Empty() {
			continue
		}
		p.buf = f.RegionPixels(r, p.buf[:0])
		sub := p.img.SubImage(image.Rect(r.MinX, r.MinY, r.MaxX, r.MaxY)).(*ebiten.Image)
		sub.WritePixels(p.buf)
	}
	return nil
}

// Draw scales the painter image onto dst.
func (p *Painter) Draw(dst *ebiten.Image, scale int) {
	if scale <= 0 {
		scale = 1
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(p.img, op)
}

// Size returns the dimensions of the underlying image.
func (p *Painter) Size() (int, int) { return p.w, p.h }
