// Package catalog holds the immutable material definitions particles are
// built from, and the loader for the line-oriented catalog format.
package catalog

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Category groups materials by how the physics step treats them.
type Category uint16

const (
	CategoryEmpty Category = iota
	CategorySolid
	CategoryLiquid
	CategoryGas
	CategoryGranular
	CategoryElectronics
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case CategoryEmpty:
		return "Empty"
	case CategorySolid:
		return "Solids"
	case CategoryLiquid:
		return "Liquids"
	case CategoryGas:
		return "Gases"
	case CategoryGranular:
		return "Sands"
	case CategoryElectronics:
		return "Electronics"
	default:
		return "Category(" + strconv.Itoa(int(c)) + ")"
	}
}

const (
	// EmptyID is the built-in material every grid starts with.
	EmptyID uint16 = 0
	// FirstUserID is the lowest id a catalog file may define.
	FirstUserID uint16 = 10
)

// MaterialType is the immutable definition of a substance. Values are shared
// by pointer and must not be modified after the catalog is built.
type MaterialType struct {
	ID       uint16
	Name     string
	Category Category
	Base     color.RGBA
	Variant  color.RGBA
	Movable  bool
	Density  float64
}

func emptyMaterial() *MaterialType {
	c := color.RGBA{R: 0x0E, G: 0x0E, B: 0x11, A: 0xFF}
	return &MaterialType{
		ID:       EmptyID,
		Name:     "Empty",
		Category: CategoryEmpty,
		Base:     c,
		Variant:  c,
		Movable:  true,
		Density:  0,
	}
}

// ParseHexColor decodes #RGB, #RRGGBB or #RRGGBBAA (the leading # is
// optional). Colors without an alpha channel are opaque.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		var b strings.Builder
		for _, ch := range hex {
			b.WriteRune(ch)
			b.WriteRune(ch)
		}
		hex = b.String() + "FF"
	case 6:
		hex += "FF"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("color %q: want 3, 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
