// Package etc1 decodes the colours of an ETC1 differential-mode sub-block.
//
// Only the part of the decoder needed to derive per-selector sample shades is
// implemented: the 5-bit base colour, its expansion to 8 bits and the
// intensity modifier table. ETC1 is specified at
// https://registry.khronos.org/DataFormat/specs/1.3/dataformat.1.3.html#ETC1
package etc1

import "image/color"

const (
	// NumIntensities is the number of intensity modifier tables.
	NumIntensities = 8
	// NumSelectors is the number of shades per sub-block.
	NumSelectors = 4
	// NumColor5 is the number of values of a 5-bit colour component.
	NumColor5 = 32
)

// IntensityModifiers holds the per-selector offsets added to the base colour,
// indexed by intensity table then selector. Selectors are ordered from the
// darkest shade to the brightest.
var IntensityModifiers = [NumIntensities][NumSelectors]int32{
	{-8, -2, 2, 8},
	{-17, -5, 5, 17},
	{-29, -9, 9, 29},
	{-42, -13, 13, 42},
	{-60, -18, 18, 60},
	{-80, -24, 24, 80},
	{-106, -33, 33, 106},
	{-183, -47, 47, 183},
}

// Color5 is a packed 15-bit colour, 5 bits per component, red in the high
// bits.
type Color5 uint16

// PackColor5 packs three 5-bit components. Inputs are masked to 5 bits.
func PackColor5(r, g, b uint8) Color5 {
	return Color5(uint16(r&31)<<10 | uint16(g&31)<<5 | uint16(b&31))
}

// Components returns the unpacked 5-bit components.
func (c Color5) Components() (r, g, b uint8) {
	return uint8(c>>10) & 31, uint8(c>>5) & 31, uint8(c) & 31
}

// Expand5 widens a 5-bit component to 8 bits by replicating its top bits.
func Expand5(x uint8) uint8 {
	x &= 31
	return x<<3 | x>>2
}

func clamp255(x int32) uint8 {
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	default:
		return uint8(x)
	}
}

// DiffSubblockColors returns the four shades of a differential-mode
// sub-block with base colour c and intensity table inten. Alpha is opaque.
func DiffSubblockColors(c Color5, inten int) (dst [NumSelectors]color.RGBA) {
	r5, g5, b5 := c.Components()
	r, g, b := int32(Expand5(r5)), int32(Expand5(g5)), int32(Expand5(b5))

	mods := &IntensityModifiers[inten&(NumIntensities-1)]
	for i, y := range mods {
		dst[i] = color.RGBA{
			R: clamp255(r + y),
			G: clamp255(g + y),
			B: clamp255(b + y),
			A: 0xFF,
		}
	}
	return dst
}

// SampleGreens returns the green channel of the sub-block whose three
// components all equal green5, one value per selector.
func SampleGreens(green5 uint8, inten int) (dst [NumSelectors]uint8) {
	colors := DiffSubblockColors(PackColor5(green5, green5, green5), inten)
	for i, c := range colors {
		dst[i] = c.G
	}
	return dst
}
