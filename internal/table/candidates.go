package table

import "github.com/cwbudde/etc1dxt/internal/simd"

// div3Magic is 2^16/3 rounded up. (x*div3Magic)>>16 == x/3 for x in [0,765],
// which covers 2*255+255, the largest interpolation numerator.
const div3Magic = 0x5556

// Expand8 widens a 6-bit endpoint code to 8 bits by top-bit replication.
func Expand8(v uint8) uint8 {
	v &= 63
	return v<<2 | v>>4
}

// RoundDiv3 is the fixed-point divide by 3 used by the interpolants.
func RoundDiv3(x uint16) uint16 {
	return uint16((uint32(x) * div3Magic) >> 16)
}

// Shades returns the four DXT1 green shades for endpoints lo and hi:
// c0 = lo, c3 = hi, c1 = (2*c0+c3)/3, c2 = (c0+2*c3)/3.
func Shades(lo, hi uint8) [4]uint8 {
	c0 := uint16(Expand8(lo))
	c3 := uint16(Expand8(hi))
	return [4]uint8{
		uint8(c0),
		uint8(RoundDiv3(2*c0 + c3)),
		uint8(RoundDiv3(c0 + 2*c3)),
		uint8(c3),
	}
}

// colorTable holds the candidate shades of every (hi, lo batch) pair as
// 8-bit lane vectors, one lane per lo code.
type colorTable[V any] struct {
	batches int    // lo batches per hi code
	colors  [][4]V // indexed by hi*batches + batch
}

// newColorTable precomputes all 64 hi codes up front. It only uses vector
// primitives so that each lane matches Shades(lo, hi) exactly.
func newColorTable[V any, O simd.Ops[V]](ops O) *colorTable[V] {
	lanes8 := ops.Lanes8()
	lanes16 := ops.Lanes16()
	batches := NumEndpoints / lanes8
	div3 := ops.Splat16(div3Magic)

	// Expanded lo codes, split into the 16-bit halves of each batch
	lowsLo := make([]V, batches)
	lowsHi := make([]V, batches)
	lows := make([]V, batches)
	idx := make([]uint16, lanes16)
	for b := 0; b < batches; b++ {
		for i := range idx {
			idx[i] = uint16(b*lanes8 + i)
		}
		lo := ops.Load16(idx...)
		hi := ops.Add16(lo, ops.Splat16(uint16(lanes16)))
		lowsLo[b] = ops.Or(ops.Shl16(lo, 2), ops.Shr16(lo, 4))
		lowsHi[b] = ops.Or(ops.Shl16(hi, 2), ops.Shr16(hi, 4))
		lows[b] = ops.PackUS(lowsLo[b], lowsHi[b])
	}

	t := &colorTable[V]{
		batches: batches,
		colors:  make([][4]V, NumEndpoints*batches),
	}
	for hi := 0; hi < NumEndpoints; hi++ {
		high := Expand8(uint8(hi))
		high16 := ops.Splat16(uint16(high))
		high16x2 := ops.Splat16(uint16(high) << 1)

		for b := 0; b < batches; b++ {
			c := &t.colors[hi*batches+b]
			c[0] = lows[b]
			c[1] = ops.PackUS(
				ops.MulHiU16(ops.Add16(ops.Shl16(lowsLo[b], 1), high16), div3),
				ops.MulHiU16(ops.Add16(ops.Shl16(lowsHi[b], 1), high16), div3),
			)
			c[2] = ops.PackUS(
				ops.MulHiU16(ops.Add16(lowsLo[b], high16x2), div3),
				ops.MulHiU16(ops.Add16(lowsHi[b], high16x2), div3),
			)
			c[3] = ops.Splat8(high)
		}
	}
	return t
}

// shades returns the candidate vectors for one hi code and lo batch.
func (t *colorTable[V]) shades(hi, batch int) *[4]V {
	return &t.colors[hi*t.batches+batch]
}
