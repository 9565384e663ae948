//go:build ebiten

package app

import (
	"mad-sand/internal/engine"
	"mad-sand/internal/render"
	"mad-sand/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts a sand engine to the ebiten.Game interface.
type Game struct {
	eng     *engine.Engine
	frame   *render.Frame
	painter *render.Painter
	present *engine.FramePresenter
	hud     *ui.HUD
	overlay *ui.Overlay

	scale    int
	paused   bool
	tickOnce bool

	// OnTick, when set, runs after every engine tick.
	OnTick func(engine.Stats)
	// OnPause, when set, runs whenever the pause state changes.
	OnPause func(paused bool)
}

// New constructs a Game. extra receives the same cell updates as the window,
// and may be nil.
func New(opts engine.Options, scale, tile int, extra engine.Presenter) (*Game, error) {
	if scale <= 0 {
		scale = 1
	}
	frame := render.NewFrame(opts.Width, opts.Height, tile)
	painter := render.NewPainter(opts.Width, opts.Height)
	present := engine.NewFramePresenter(frame, painter.Upload)

	eng, err := engine.New(opts, engine.Tee(present, extra))
	if err != nil {
		return nil, err
	}
	return &Game{
		eng:     eng,
		frame:   frame,
		painter: painter,
		present: present,
		hud:     ui.NewHUD(),
		overlay: ui.NewOverlay(scale),
		scale:   scale,
	}, nil
}

// Engine exposes the underlying engine.
func (g *Game) Engine() *engine.Engine { return g.eng }

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		if g.OnPause != nil {
			g.OnPause(g.paused)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := g.eng.Clear(); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.eng.ToggleMode()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.hud.Toggle()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		g.eng.SetBrushRadius(g.eng.BrushRadius() - 1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		g.eng.SetBrushRadius(g.eng.BrushRadius() + 1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		delta := 1
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			delta = -1
		}
		g.eng.CycleMaterial(delta)
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		if wy > 0 {
			g.eng.CycleMaterial(1)
		} else {
			g.eng.CycleMaterial(-1)
		}
	}

	if g.overlay != nil {
		g.overlay.Update()
	}

	if !g.paused || g.tickOnce {
		g.tickOnce = false
		if err := g.eng.Tick(g.pointer()); err != nil {
			return err
		}
		if g.OnTick != nil {
			g.OnTick(g.eng.Stats())
		}
	}
	return nil
}

// pointer converts the cursor to grid coordinates. Grid row 0 is the bottom
// of the window.
func (g *Game) pointer() engine.Input {
	mx, my := ebiten.CursorPosition()
	w, h := g.frame.Width(), g.frame.Height()
	x := mx / g.scale
	y := h - 1 - my/g.scale
	return engine.Input{
		X:      x,
		Y:      y,
		Inside: mx >= 0 && my >= 0 && x < w && y >= 0,
		Paint:  ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Erase:  ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
	}
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Draw(screen, g.scale)
	if g.overlay != nil {
		g.overlay.Draw(screen, g.present.LastRegions())
	}
	g.hud.Draw(screen, ui.Status{
		Stats:  g.eng.Stats(),
		Brush:  g.eng.BrushRadius(),
		Paused: g.paused,
		TPS:    ebiten.ActualTPS(),
		FPS:    ebiten.ActualFPS(),
	})
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.frame.Width() * g.scale, g.frame.Height() * g.scale
}
