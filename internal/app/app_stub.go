//go:build !ebiten

package app

import (
	"fmt"

	"mad-sand/internal/engine"
)

// Game is a placeholder that satisfies the API expected by the GUI build.
type Game struct {
	OnTick  func(engine.Stats)
	OnPause func(paused bool)
}

// New reports that the ebiten build tag is required for GUI support.
func New(engine.Options, int, int, engine.Presenter) (*Game, error) {
	return nil, fmt.Errorf("app.New requires building with the 'ebiten' tag")
}

// Engine returns nil in the headless build.
func (g *Game) Engine() *engine.Engine { return nil }

// Update always reports that the GUI build tag is missing.
func (g *Game) Update() error {
	return fmt.Errorf("app.Game.Update requires building with the 'ebiten' tag")
}

// Draw is a no-op placeholder to satisfy the interface shape.
func (g *Game) Draw(any) {}

// Layout returns zeros in the headless build.
func (g *Game) Layout(int, int) (int, int) { return 0, 0 }
