//go:build ebiten

package ui

import (
	"image/color"

	"mad-sand/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Overlay outlines the regions uploaded by the last frame.
type Overlay struct {
	scale       int
	showRegions bool
	held        []render.Rect
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(scale int) *Overlay {
	if scale <= 0 {
		scale = 1
	}
	return &Overlay{scale: scale}
}

// Update handles the overlay toggle key.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showRegions = !o.showRegions
	}
}

// Draw outlines regions in canvas pixels, scaled to the screen. Regions from
// ticks that uploaded nothing keep the previous outlines visible.
func (o *Overlay) Draw(screen *ebiten.Image, regions []render.Rect) {
	if !o.showRegions {
		return
	}
	if len(regions) > 0 {
		o.held = append(o.held[:0], regions...)
	}
	s := float32(o.scale)
	col := color.RGBA{R: 255, G: 64, B: 160, A: 200}
	for _, r := range o.held {
		vector.StrokeRect(screen, float32(r.MinX)*s, float32(r.MinY)*s, float32(r.Dx())*s, float32(r.Dy())*s, 1, col, false)
	}
}
