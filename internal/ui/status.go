// Package ui holds the on-screen readouts shared by the GUI and terminal
// frontends.
package ui

import (
	"fmt"
	"strings"

	"mad-sand/internal/engine"
)

// Status is everything the HUD shows for one frame.
type Status struct {
	Stats  engine.Stats
	Brush  int
	Paused bool
	TPS    float64
	FPS    float64
}

// Lines formats the status as short HUD rows.
func (s Status) Lines() []string {
	state := "running"
	if s.Paused {
		state = "paused"
	}
	return []string{
		fmt.Sprintf("TPS %.0f  FPS %.0f  %s", s.TPS, s.FPS, state),
		fmt.Sprintf("material %s  brush %d  mode %s", s.Stats.Material, s.Brush, s.Stats.Mode),
		fmt.Sprintf("tick %d  working %d  moved %d", s.Stats.Tick, s.Stats.Working, s.Stats.Moved),
	}
}

// Line joins Lines into a single status bar.
func (s Status) Line() string { return strings.Join(s.Lines(), " | ") }

// Help lists the key bindings.
const Help = "LMB paint  RMB erase  [ ] brush  Tab material  Space pause  N step  C clear  F mode  H hud  1 regions  Q quit"
