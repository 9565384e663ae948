package grid

import (
	"image/color"
	"math"

	"mad-sand/internal/catalog"
	"mad-sand/internal/core"
)

// colorLevels is the number of quantization steps between a material's base
// and variant colors, minus one.
const colorLevels = 5

// Particle is a cell's live instance of a material. The material fields are
// denormalized so the movement loop never consults the catalog. X, Y and Index
// describe the cell the particle currently occupies.
type Particle struct {
	Material uint16
	Category catalog.Category
	Name     string
	Color    color.RGBA

	X, Y  int
	Index int

	Movable bool
	Density float64
}

func newParticle(mt *catalog.MaterialType, x, y, index int, rng *core.RNG) Particle {
	return Particle{
		Material: mt.ID,
		Category: mt.Category,
		Name:     mt.Name,
		Color:    resolveColor(mt.Base, mt.Variant, rng.Float64()),
		X:        x,
		Y:        y,
		Index:    index,
		Movable:  mt.Movable,
		Density:  mt.Density,
	}
}

// resolveColor quantizes u in [0, 1) to one of six levels and interpolates
// every channel between base and variant.
func resolveColor(base, variant color.RGBA, u float64) color.RGBA {
	t := math.Round(u*colorLevels) / colorLevels
	return color.RGBA{
		R: lerpChannel(base.R, variant.R, t),
		G: lerpChannel(base.G, variant.G, t),
		B: lerpChannel(base.B, variant.B, t),
		A: lerpChannel(base.A, variant.A, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	v := math.Round(float64(a) + (float64(b)-float64(a))*t)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
