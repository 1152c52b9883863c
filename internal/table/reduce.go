package table

import "github.com/cwbudde/etc1dxt/internal/simd"

// best tracks the running minimum of one table entry. Only a strictly smaller
// error replaces it, so the first (hi, lo) in enumeration order wins ties.
type best struct {
	err uint16
	lo  uint8
	hi  uint8
}

func newBest() best {
	return best{err: MaxErr}
}

func (b *best) offer(err uint16, lo, hi int) {
	if err < b.err {
		b.err = err
		b.lo = uint8(lo)
		b.hi = uint8(hi)
	}
}

func (b best) solution() Solution {
	return Solution{Lo: b.lo, Hi: b.hi, Err: b.err}
}

// adjustBest reduces the two running totals of a batch starting at loBase and
// offers each half's minimum. The low half holds the smaller lo codes and is
// offered first.
func adjustBest[V any, O simd.Ops[V]](ops O, b *best, totalLo, totalHi V, loBase, hi int) {
	minLo, posLo := ops.MinPos(totalLo)
	minHi, posHi := ops.MinPos(totalHi)

	b.offer(minLo, loBase+posLo, hi)
	b.offer(minHi, loBase+ops.Lanes16()+posHi, hi)
}
