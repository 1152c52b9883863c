package table

import (
	"github.com/cwbudde/etc1dxt/internal/etc1"
	"github.com/cwbudde/etc1dxt/internal/simd"
)

// Scalar implementation of the endpoint search. It evaluates one (lo, hi)
// pair at a time with plain integer arithmetic and serves both as the
// fallback backend and as the oracle the vector backends are tested against.

// candidateErr is the saturated squared error of one shade set.
func candidateErr(greens *[4]uint8, shades *[4]uint8, r SelectorRange, m SelectorMapping) uint16 {
	var total uint32
	for s := r.Low; s <= r.High; s++ {
		d := int32(greens[s]) - int32(shades[m[s]])
		total += uint32(d * d)
	}
	if total > MaxErr {
		return MaxErr
	}
	return uint16(total)
}

// SolveScalar exhaustively searches all 64x64 endpoint pairs for one entry,
// computing each candidate's shades on the fly.
func SolveScalar(greens [4]uint8, r SelectorRange, m SelectorMapping) Solution {
	b := newBest()
	for hi := 0; hi < NumEndpoints; hi++ {
		for lo := 0; lo < NumEndpoints; lo++ {
			shades := Shades(uint8(lo), uint8(hi))
			b.offer(candidateErr(&greens, &shades, r, m), lo, hi)
		}
	}
	return b.solution()
}

// scalarSolver is the row solver for simd.BackendScalar. Shades are
// precomputed once; the result is identical to SolveScalar.
type scalarSolver struct {
	layout Layout
	shades [NumEndpoints][NumEndpoints][4]uint8 // [hi][lo]
}

func newScalarSolver(layout Layout) *scalarSolver {
	s := &scalarSolver{layout: layout}
	for hi := 0; hi < NumEndpoints; hi++ {
		for lo := 0; lo < NumEndpoints; lo++ {
			s.shades[hi][lo] = Shades(uint8(lo), uint8(hi))
		}
	}
	return s
}

func (s *scalarSolver) solveRow(dst []Solution, inten, green int) {
	greens := etc1.SampleGreens(uint8(green), inten)
	n := 0
	for _, r := range s.layout.Ranges {
		for _, m := range s.layout.Mappings {
			dst[n] = s.solve(&greens, r, m)
			n++
		}
	}
}

func (s *scalarSolver) solve(greens *[4]uint8, r SelectorRange, m SelectorMapping) Solution {
	b := newBest()
	for hi := 0; hi < NumEndpoints; hi++ {
		for lo := 0; lo < NumEndpoints; lo++ {
			b.offer(candidateErr(greens, &s.shades[hi][lo], r, m), lo, hi)
		}
	}
	return b.solution()
}

// BuildScalar generates the table with the scalar evaluator only.
func BuildScalar(layout Layout) ([]Solution, error) {
	return Build(layout, simd.BackendScalar)
}
