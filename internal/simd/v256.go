package simd

// V256 is a 256-bit vector: 32 x uint8 or 16 x uint16 lanes, held as words.
//
// Unlike AVX2's per-128-bit-lane PACKUSWB/PUNPCK, PackUS and the widen
// operations act across the full register, so lane i always means the i-th
// candidate in a batch.
type V256 [16]uint16

// Ops256 implements Ops over V256. There is no 16-lane minpos instruction, so
// MinPos folds two native 8-lane reductions.
type Ops256 struct{}

var _ Ops[V256] = Ops256{}

func (Ops256) Lanes8() int  { return 32 }
func (Ops256) Lanes16() int { return 16 }

func (Ops256) Zero() V256 { return V256{} }

func (Ops256) Splat8(x uint8) (r V256) {
	w := pair8(x, x)
	for i := range r {
		r[i] = w
	}
	return r
}

func (Ops256) Splat16(x uint16) (r V256) {
	for i := range r {
		r[i] = x
	}
	return r
}

func (Ops256) Load16(lanes ...uint16) (r V256) {
	copy(r[:], lanes)
	return r
}

// Load8 builds a vector from explicit 8-bit lanes. Missing lanes are zero.
func (Ops256) Load8(lanes ...uint8) (r V256) {
	for i := 0; i < len(lanes) && i < 32; i++ {
		r[i>>1] |= uint16(lanes[i]) << (8 * uint(i&1))
	}
	return r
}

func (Ops256) Lane8(v V256, i int) uint8   { return lane8(v[:], i) }
func (Ops256) Lane16(v V256, i int) uint16 { return v[i] }

func (Ops256) Or(a, b V256) (r V256) {
	for i := range r {
		r[i] = a[i] | b[i]
	}
	return r
}

func (Ops256) Add16(a, b V256) (r V256) {
	for i := range r {
		r[i] = a[i] + b[i]
	}
	return r
}

func (Ops256) SubSatU8(a, b V256) (r V256) {
	for i := range r {
		r[i] = subSatBytes(a[i], b[i])
	}
	return r
}

func (Ops256) AbsDiffU8(a, b V256) (r V256) {
	for i := range r {
		r[i] = absDiffBytes(a[i], b[i])
	}
	return r
}

func (Ops256) Shl16(a V256, n uint) (r V256) {
	for i := range r {
		r[i] = a[i] << n
	}
	return r
}

func (Ops256) Shr16(a V256, n uint) (r V256) {
	for i := range r {
		r[i] = a[i] >> n
	}
	return r
}

func (Ops256) PackUS(a, b V256) (r V256) {
	for i := 0; i < 8; i++ {
		r[i] = pair8(satU8(a[2*i]), satU8(a[2*i+1]))
		r[8+i] = pair8(satU8(b[2*i]), satU8(b[2*i+1]))
	}
	return r
}

func (Ops256) WidenLo(a V256) (r V256) {
	for i := 0; i < 8; i++ {
		r[2*i] = a[i] & 0xFF
		r[2*i+1] = a[i] >> 8
	}
	return r
}

func (Ops256) WidenHi(a V256) (r V256) {
	for i := 0; i < 8; i++ {
		r[2*i] = a[8+i] & 0xFF
		r[2*i+1] = a[8+i] >> 8
	}
	return r
}

func (Ops256) MulHiU16(a, b V256) (r V256) {
	for i := range r {
		r[i] = mulHi16(a[i], b[i])
	}
	return r
}

func (Ops256) MulLoU16(a, b V256) (r V256) {
	for i := range r {
		r[i] = a[i] * b[i]
	}
	return r
}

func (Ops256) AddSatU16(a, b V256) (r V256) {
	for i := range r {
		r[i] = addSat16(a[i], b[i])
	}
	return r
}

func (Ops256) MinPos(a V256) (uint16, int) {
	return minPosFold(a[:])
}
