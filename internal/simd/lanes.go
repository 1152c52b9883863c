package simd

// Per-lane arithmetic shared by every vector width.
//
// Vectors are stored as 16-bit words. 8-bit lane 2i is the low byte of word
// i and lane 2i+1 its high byte, which matches the little-endian register
// image, so 16-bit operations are plain range loops and only the 8-bit
// operations split words.

// nativeMinPosLanes is the lane count of the hardware minpos primitive
// (PHMINPOSUW). Wider vectors fold several native results.
const nativeMinPosLanes = 8

func lane8(w []uint16, i int) uint8 {
	return uint8(w[i>>1] >> (8 * uint(i&1)))
}

func pair8(lo, hi uint8) uint16 {
	return uint16(lo) | uint16(hi)<<8
}

func subSat8(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return 0
}

func absDiff8(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// subSatBytes is SubSatU8 on both bytes of a word.
func subSatBytes(a, b uint16) uint16 {
	return pair8(subSat8(uint8(a), uint8(b)), subSat8(uint8(a>>8), uint8(b>>8)))
}

// absDiffBytes is AbsDiffU8 on both bytes of a word.
func absDiffBytes(a, b uint16) uint16 {
	return pair8(absDiff8(uint8(a), uint8(b)), absDiff8(uint8(a>>8), uint8(b>>8)))
}

// satU8 narrows a lane read as int16, like PACKUSWB.
func satU8(x uint16) uint8 {
	switch s := int16(x); {
	case s < 0:
		return 0
	case s > 0xFF:
		return 0xFF
	default:
		return uint8(s)
	}
}

func addSat16(a, b uint16) uint16 {
	s := uint32(a) + uint32(b)
	if s > 0xFFFF {
		return 0xFFFF
	}
	return uint16(s)
}

func mulHi16(a, b uint16) uint16 {
	return uint16((uint32(a) * uint32(b)) >> 16)
}

// minPosNative is the 8-lane minpos primitive. Lowest index wins ties.
func minPosNative(a *[nativeMinPosLanes]uint16) (uint16, int) {
	best, idx := a[0], 0
	for i := 1; i < nativeMinPosLanes; i++ {
		if a[i] < best {
			best, idx = a[i], i
		}
	}
	return best, idx
}

// minPosFold reduces a vector wider than the native minpos primitive. Each
// native sub-vector is reduced on its own, then the results are folded
// pairwise; a later sub-vector only wins with a strictly smaller value, and its
// local index is translated to local + nativeMinPosLanes*position.
func minPosFold(a []uint16) (uint16, int) {
	best, idx := minPosNative((*[nativeMinPosLanes]uint16)(a[:nativeMinPosLanes]))
	for pos := 1; pos*nativeMinPosLanes < len(a); pos++ {
		sub := a[pos*nativeMinPosLanes : (pos+1)*nativeMinPosLanes]
		m, local := minPosNative((*[nativeMinPosLanes]uint16)(sub))
		if m < best {
			best, idx = m, local+nativeMinPosLanes*pos
		}
	}
	return best, idx
}
