//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// HUD renders the status rows over the top-left corner of the view.
type HUD struct {
	visible bool
	pixel   *ebiten.Image
}

// NewHUD constructs a visible HUD.
func NewHUD() *HUD {
	h := &HUD{visible: true}
	h.pixel = ebiten.NewImage(1, 1)
	h.pixel.Fill(color.White)
	return h
}

// Toggle shows or hides the HUD.
func (h *HUD) Toggle() {
	if h != nil {
		h.visible = !h.visible
	}
}

// Draw paints the status rows onto screen.
func (h *HUD) Draw(screen *ebiten.Image, s Status) {
	if h == nil || !h.visible {
		return
	}
	face := basicfont.Face7x13
	lines := append(s.Lines(), Help)

	width := 0
	for _, l := range lines {
		if w := text.BoundString(face, l).Dx(); w > width {
			width = w
		}
	}
	height := len(lines)*lineHeight + 2*panelPadding

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(width+2*panelPadding), float64(height))
	op.ColorM.Scale(16.0/255, 16.0/255, 20.0/255, 0.7)
	screen.DrawImage(h.pixel, op)

	for i, l := range lines {
		y := panelPadding + (i+1)*lineHeight - 4
		text.Draw(screen, l, face, panelPadding, y, color.RGBA{R: 220, G: 220, B: 230, A: 255})
	}
}

const (
	panelPadding = 6
	lineHeight   = 15
)
