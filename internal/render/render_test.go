package render

import (
	"image/color"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestCoalescerEmpty(t *testing.T) {
	c := NewCoalescer(100, 80, 32)
	if got := c.Flush(nil); len(got) != 0 {
		t.Fatalf("flush of empty coalescer = %v", got)
	}
	c.Add(Rect{MinX: 200, MinY: 0, MaxX: 210, MaxY: 10})
	c.Add(Rect{MinX: 5, MinY: 5, MaxX: 5, MaxY: 9})
	if got := c.Flush(nil); len(got) != 0 {
		t.Fatalf("off-canvas and empty input produced %v", got)
	}
}

func TestCoalescerCoversEveryPixel(t *testing.T) {
	const w, h, tile = 100, 70, 16
	c := NewCoalescer(w, h, tile)
	r := rand.New(rand.NewPCG(7, 0))

	var pixels [][2]int
	tiles := map[int]bool{}
	for i := 0; i < 400; i++ {
		x, y := r.IntN(w), r.IntN(h)
		pixels = append(pixels, [2]int{x, y})
		tiles[(y/tile)*((w+tile-1)/tile)+x/tile] = true
		c.AddPixel(x, y)
	}

	rects := c.Flush(nil)
	if len(rects) > len(tiles) {
		t.Fatalf("%d rects for %d touched tiles", len(rects), len(tiles))
	}
	for _, p := range pixels {
		covered := false
		for _, rc := range rects {
			if rc.Contains(p[0], p[1]) {
				covered = true
				break
			}
		}
		if !covered {
			t.Fatalf("pixel %v not covered by %v", p, rects)
		}
	}
	for _, rc := range rects {
		if rc.Empty() || rc.MinX/tile != (rc.MaxX-1)/tile || rc.MinY/tile != (rc.MaxY-1)/tile {
			t.Fatalf("rect %+v spans more than one tile", rc)
		}
		if rc.MinX < 0 || rc.MinY < 0 || rc.MaxX > w || rc.MaxY > h {
			t.Fatalf("rect %+v leaves the canvas", rc)
		}
	}
	if got := c.Flush(nil); len(got) != 0 {
		t.Fatalf("second flush = %v, want nothing", got)
	}
}

func TestCoalescerSplitsAcrossTilesInRowMajorOrder(t *testing.T) {
	c := NewCoalescer(64, 64, 32)
	c.Add(Rect{MinX: 30, MinY: 30, MaxX: 34, MaxY: 34})
	got := c.Flush(nil)
	want := []Rect{
		{MinX: 30, MinY: 30, MaxX: 32, MaxY: 32},
		{MinX: 32, MinY: 30, MaxX: 34, MaxY: 32},
		{MinX: 30, MinY: 32, MaxX: 32, MaxY: 34},
		{MinX: 32, MinY: 32, MaxX: 34, MaxY: 34},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("rects = %v, want %v", got, want)
	}
}

func TestCoalescerMergesWithinTile(t *testing.T) {
	c := NewCoalescer(64, 64, 0)
	if c.Tile() != DefaultTile {
		t.Fatalf("tile = %d, want %d", c.Tile(), DefaultTile)
	}
	c.AddPixel(40, 1)
	c.AddPixel(3, 2)
	c.AddPixel(5, 20)
	got := c.Flush(nil)
	want := []Rect{{MinX: 3, MinY: 2, MaxX: 6, MaxY: 21}, {MinX: 40, MinY: 1, MaxX: 41, MaxY: 2}}
	if !slices.Equal(got, want) {
		t.Fatalf("rects = %v, want %v", got, want)
	}
}

func TestFrameFlipsRows(t *testing.T) {
	f := NewFrame(4, 3, 32)
	red := color.RGBA{R: 255, A: 255}
	f.Set(1, red) // grid (1, 0): bottom row

	if got := f.At(1, 2); got != red {
		t.Fatalf("canvas (1,2) = %v, want red", got)
	}
	rects := f.Flush(nil)
	if want := []Rect{{MinX: 1, MinY: 2, MaxX: 2, MaxY: 3}}; !slices.Equal(rects, want) {
		t.Fatalf("rects = %v, want %v", rects, want)
	}

	f.Set(-1, red)
	f.Set(12, red)
	if f.Pending() != 0 {
		t.Fatal("out of range writes were recorded")
	}
}

func TestFrameRegionPixels(t *testing.T) {
	f := NewFrame(3, 2, 32)
	f.Apply([]Pixel{
		{Index: 3, Color: color.RGBA{R: 1, A: 255}},
		{Index: 4, Color: color.RGBA{R: 2, A: 255}},
	})
	got := f.RegionPixels(Rect{MinX: 0, MinY: 0, MaxX: 2, MaxY: 1}, nil)
	want := []byte{1, 0, 0, 255, 2, 0, 0, 255}
	if !slices.Equal(got, want) {
		t.Fatalf("region = %v, want %v", got, want)
	}
}
