// Package term renders a sand grid in a terminal with tcell. Each terminal
// cell shows two grid rows using an upper half block: the foreground paints
// the upper row and the background paints the lower one.
package term

import (
	"image/color"

	"github.com/gdamore/tcell/v2"

	"mad-sand/internal/render"
)

const halfBlock = '▀'

var statusStyle = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorBlack)

// Presenter implements engine.Presenter on a tcell screen.
type Presenter struct {
	screen  tcell.Screen
	frame   *render.Frame
	regions []render.Rect
	status  string
}

// NewPresenter draws a w x h grid at the top-left of screen.
func NewPresenter(screen tcell.Screen, w, h, tile int) *Presenter {
	return &Presenter{screen: screen, frame: render.NewFrame(w, h, tile)}
}

// Rows returns the number of terminal rows the grid occupies.
func (p *Presenter) Rows() int { return (p.frame.Height() + 1) / 2 }

// Frame exposes the CPU-side canvas.
func (p *Presenter) Frame() *render.Frame { return p.frame }

// LastRegions returns the regions redrawn by the most recent Present.
func (p *Presenter) LastRegions() []render.Rect { return p.regions }

// SetStatus sets the text shown on the row below the grid.
func (p *Presenter) SetStatus(s string) { p.status = s }

func (p *Presenter) Queue(batch []render.Pixel) { p.frame.Apply(batch) }

// Present redraws the terminal cells covering every changed region.
func (p *Presenter) Present() error {
	p.regions = p.frame.Flush(p.regions[:0])
	for _, r := range p.regions {
		for row := r.MinY / 2; row <= (r.MaxY-1)/2; row++ {
			for x := r.MinX; x < r.MaxX; x++ {
				p.drawCell(x, row)
			}
		}
	}
	p.drawStatus()
	p.screen.Show()
	return nil
}

// Redraw repaints the whole grid, for example after a resize.
func (p *Presenter) Redraw() {
	p.screen.Clear()
	for row := 0; row < p.Rows(); row++ {
		for x := 0; x < p.frame.Width(); x++ {
			p.drawCell(x, row)
		}
	}
	p.drawStatus()
	p.screen.Show()
}

func (p *Presenter) drawCell(x, row int) {
	top := p.frame.At(x, 2*row)
	bottom := p.frame.At(x, 2*row+1)
	p.screen.SetContent(x, row, halfBlock, nil, cellStyle(top, bottom))
}

func (p *Presenter) drawStatus() {
	y := p.Rows()
	w, _ := p.screen.Size()
	runes := []rune(p.status)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		p.screen.SetContent(x, y, r, nil, statusStyle)
	}
}

func cellStyle(top, bottom color.RGBA) tcell.Style {
	return tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom))
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// GridPoint maps a terminal cell to grid coordinates. The upper half of the
// cell is used.
func (p *Presenter) GridPoint(tx, ty int) (x, y int, inside bool) {
	cy := 2 * ty
	x, y = tx, p.frame.Height()-1-cy
	inside = tx >= 0 && ty >= 0 && x < p.frame.Width() && y >= 0
	return x, y, inside
}
