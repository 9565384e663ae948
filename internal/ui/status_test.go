package ui

import (
	"strings"
	"testing"

	"mad-sand/internal/engine"
)

func TestStatusLine(t *testing.T) {
	s := Status{
		Stats:  engine.Stats{Tick: 12, Working: 40, Moved: 7, Material: "Sand"},
		Brush:  3,
		Paused: true,
		TPS:    59.6,
	}
	lines := s.Lines()
	if len(lines) != 3 {
		t.Fatalf("lines = %v", lines)
	}
	line := s.Line()
	for _, want := range []string{"TPS 60", "paused", "material Sand", "brush 3", "tick 12", "working 40", "moved 7", "mode incremental"} {
		if !strings.Contains(line, want) {
			t.Fatalf("status %q missing %q", line, want)
		}
	}
}
