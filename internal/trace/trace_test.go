package trace

import (
	"image/color"
	"path/filepath"
	"testing"

	"mad-sand/internal/render"
)

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "trace.jsonl.zst")
	rec, err := Create(path, 4, 4, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec.Queue([]render.Pixel{{Index: 0, Color: color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xFF}}})
	rec.Queue([]render.Pixel{{Index: 15, Color: color.RGBA{A: 0xFF}}})
	if err := rec.Present(); err != nil {
		t.Fatalf("present: %v", err)
	}
	if err := rec.Present(); err != nil {
		t.Fatalf("present: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	first := entries[0]
	if first.Tick != 1 || first.Cells != 2 || len(first.Regions) != 2 {
		t.Fatalf("first entry = %+v", first)
	}
	if first.Changes[0] != (Change{0, 0x112233FF}) {
		t.Fatalf("first change = %v", first.Changes[0])
	}
	// Grid (0,0) is drawn at the bottom-left tile.
	if want := (render.Rect{MinX: 0, MinY: 3, MaxX: 1, MaxY: 4}); first.Regions[1] != want {
		t.Fatalf("regions = %+v", first.Regions)
	}
	if second := entries[1]; second.Tick != 2 || second.Cells != 0 || len(second.Changes) != 0 {
		t.Fatalf("second entry = %+v", second)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.zst")); err == nil {
		t.Fatal("expected error")
	}
}
