package table

import "github.com/cwbudde/etc1dxt/internal/simd"

// accumulateErrors adds the squared error of one selector to the running
// totals. totalLo covers the first half of the batch's lanes, totalHi the
// second. Sums saturate at MaxErr.
func accumulateErrors[V any, O simd.Ops[V]](ops O, totalLo, totalHi *V, blockGreen, color V) {
	diff := ops.AbsDiffU8(blockGreen, color)
	lo := ops.WidenLo(diff)
	hi := ops.WidenHi(diff)
	*totalLo = ops.AddSatU16(*totalLo, ops.MulLoU16(lo, lo))
	*totalHi = ops.AddSatU16(*totalHi, ops.MulLoU16(hi, hi))
}

// scoreBatch returns the error totals of every lo code in one batch for the
// selectors r.Low..r.High, each compared against the shade m assigns to it.
func scoreBatch[V any, O simd.Ops[V]](ops O, blockGreen *[4]V, colors *[4]V, r SelectorRange, m SelectorMapping) (totalLo, totalHi V) {
	totalLo = ops.Zero()
	totalHi = ops.Zero()
	for s := r.Low; s <= r.High; s++ {
		accumulateErrors(ops, &totalLo, &totalHi, blockGreen[s], colors[m[s]])
	}
	return totalLo, totalHi
}
