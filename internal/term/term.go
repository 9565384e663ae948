package term

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"mad-sand/internal/core"
	"mad-sand/internal/engine"
	"mad-sand/internal/ui"
)

// frameInterval is how often the loop wakes to run due ticks.
const frameInterval = 16 * time.Millisecond

// Controller turns tcell events into engine input and runs ticks.
type Controller struct {
	eng *engine.Engine
	out *Presenter

	in       engine.Input
	paused   bool
	tickOnce bool
	quit     bool
	err      error

	// OnTick, when set, runs after every engine tick.
	OnTick func(engine.Stats)
	// OnPause, when set, runs whenever the pause state changes.
	OnPause func(paused bool)
}

// NewController drives eng and draws through out. out should be part of the
// presenter chain eng was built with.
func NewController(eng *engine.Engine, out *Presenter) *Controller {
	return &Controller{eng: eng, out: out}
}

// Input returns the pointer state used by the next tick.
func (c *Controller) Input() engine.Input { return c.in }

// Paused reports whether ticking is suspended.
func (c *Controller) Paused() bool { return c.paused }

// Done reports whether the user asked to quit.
func (c *Controller) Done() bool { return c.quit }

// Err returns the first error raised while handling input.
func (c *Controller) Err() error { return c.err }

// HandleEvent applies one tcell event.
func (c *Controller) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		c.HandleKey(ev.Key(), ev.Rune())
	case *tcell.EventMouse:
		x, y := ev.Position()
		c.HandleMouse(x, y, ev.Buttons())
	case *tcell.EventResize:
		c.out.Redraw()
	}
}

// HandleKey applies a key press.
func (c *Controller) HandleKey(key tcell.Key, r rune) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		c.quit = true
		return
	case tcell.KeyTab:
		c.eng.CycleMaterial(1)
		return
	case tcell.KeyBacktab:
		c.eng.CycleMaterial(-1)
		return
	case tcell.KeyRune:
	default:
		return
	}
	switch r {
	case 'q':
		c.quit = true
	case ' ':
		c.paused = !c.paused
		if c.OnPause != nil {
			c.OnPause(c.paused)
		}
	case 'n':
		c.tickOnce = true
	case 'c':
		if err := c.eng.Clear(); err != nil && c.err == nil {
			c.err = err
		}
	case 'f':
		c.eng.ToggleMode()
	case '[':
		c.eng.SetBrushRadius(c.eng.BrushRadius() - 1)
	case ']':
		c.eng.SetBrushRadius(c.eng.BrushRadius() + 1)
	case 'm':
		c.eng.CycleMaterial(1)
	case 'M':
		c.eng.CycleMaterial(-1)
	}
}

// HandleMouse records the pointer position and buttons. The primary button
// paints and the secondary button erases.
func (c *Controller) HandleMouse(tx, ty int, buttons tcell.ButtonMask) {
	x, y, inside := c.out.GridPoint(tx, ty)
	c.in = engine.Input{
		X:      x,
		Y:      y,
		Inside: inside,
		Paint:  buttons&tcell.Button1 != 0,
		Erase:  buttons&tcell.Button2 != 0,
	}
}

// Advance runs n ticks unless paused, then refreshes the status line.
func (c *Controller) Advance(n int, tps float64) error {
	if c.paused && c.tickOnce {
		n = 1
	} else if c.paused {
		n = 0
	}
	c.tickOnce = false
	for i := 0; i < n; i++ {
		if err := c.eng.Tick(c.in); err != nil {
			return err
		}
		if c.OnTick != nil {
			c.OnTick(c.eng.Stats())
		}
	}
	c.out.SetStatus(ui.Status{
		Stats:  c.eng.Stats(),
		Brush:  c.eng.BrushRadius(),
		Paused: c.paused,
		TPS:    tps,
	}.Line())
	if n == 0 {
		// Keep the status row current while paused.
		return c.out.Present()
	}
	return nil
}

// Run polls screen events and ticks at tps until ctx is done or the user quits.
func (c *Controller) Run(ctx context.Context, screen tcell.Screen, tps int) error {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	step := core.NewFixedStep(tps)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	c.out.Redraw()
	var (
		windowStart = time.Now()
		windowTicks int
		rate        float64
	)
	for !c.quit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)
			if c.err != nil {
				return c.err
			}
		case <-ticker.C:
			n := step.Due()
			windowTicks += n
			if elapsed := time.Since(windowStart); elapsed >= time.Second {
				rate = float64(windowTicks) / elapsed.Seconds()
				windowStart, windowTicks = time.Now(), 0
			}
			if err := c.Advance(n, rate); err != nil {
				return err
			}
		}
	}
	return nil
}
