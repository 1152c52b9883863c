package simd

// V128 is a 128-bit vector: 16 x uint8 or 8 x uint16 lanes, held as words.
type V128 [8]uint16

// Ops128 implements Ops over V128. MinPos is the native 8-lane primitive.
type Ops128 struct{}

var _ Ops[V128] = Ops128{}

func (Ops128) Lanes8() int  { return 16 }
func (Ops128) Lanes16() int { return 8 }

func (Ops128) Zero() V128 { return V128{} }

func (Ops128) Splat8(x uint8) (r V128) {
	w := pair8(x, x)
	for i := range r {
		r[i] = w
	}
	return r
}

func (Ops128) Splat16(x uint16) (r V128) {
	for i := range r {
		r[i] = x
	}
	return r
}

func (Ops128) Load16(lanes ...uint16) (r V128) {
	copy(r[:], lanes)
	return r
}

// Load8 builds a vector from explicit 8-bit lanes. Missing lanes are zero.
func (Ops128) Load8(lanes ...uint8) (r V128) {
	for i := 0; i < len(lanes) && i < 16; i++ {
		r[i>>1] |= uint16(lanes[i]) << (8 * uint(i&1))
	}
	return r
}

// Set16 builds a vector from 8 explicit 16-bit lanes, lane 0 first.
func (Ops128) Set16(a0, a1, a2, a3, a4, a5, a6, a7 uint16) V128 {
	return V128{a0, a1, a2, a3, a4, a5, a6, a7}
}

func (Ops128) Lane8(v V128, i int) uint8   { return lane8(v[:], i) }
func (Ops128) Lane16(v V128, i int) uint16 { return v[i] }

func (Ops128) Or(a, b V128) (r V128) {
	for i := range r {
		r[i] = a[i] | b[i]
	}
	return r
}

func (Ops128) Add16(a, b V128) (r V128) {
	for i := range r {
		r[i] = a[i] + b[i]
	}
	return r
}

func (Ops128) SubSatU8(a, b V128) (r V128) {
	for i := range r {
		r[i] = subSatBytes(a[i], b[i])
	}
	return r
}

func (Ops128) AbsDiffU8(a, b V128) (r V128) {
	for i := range r {
		r[i] = absDiffBytes(a[i], b[i])
	}
	return r
}

func (Ops128) Shl16(a V128, n uint) (r V128) {
	for i := range r {
		r[i] = a[i] << n
	}
	return r
}

func (Ops128) Shr16(a V128, n uint) (r V128) {
	for i := range r {
		r[i] = a[i] >> n
	}
	return r
}

func (Ops128) PackUS(a, b V128) (r V128) {
	for i := 0; i < 4; i++ {
		r[i] = pair8(satU8(a[2*i]), satU8(a[2*i+1]))
		r[4+i] = pair8(satU8(b[2*i]), satU8(b[2*i+1]))
	}
	return r
}

func (Ops128) WidenLo(a V128) (r V128) {
	for i := 0; i < 4; i++ {
		r[2*i] = a[i] & 0xFF
		r[2*i+1] = a[i] >> 8
	}
	return r
}

func (Ops128) WidenHi(a V128) (r V128) {
	for i := 0; i < 4; i++ {
		r[2*i] = a[4+i] & 0xFF
		r[2*i+1] = a[4+i] >> 8
	}
	return r
}

func (Ops128) MulHiU16(a, b V128) (r V128) {
	for i := range r {
		r[i] = mulHi16(a[i], b[i])
	}
	return r
}

func (Ops128) MulLoU16(a, b V128) (r V128) {
	for i := range r {
		r[i] = a[i] * b[i]
	}
	return r
}

func (Ops128) AddSatU16(a, b V128) (r V128) {
	for i := range r {
		r[i] = addSat16(a[i], b[i])
	}
	return r
}

func (Ops128) MinPos(a V128) (uint16, int) {
	return minPosNative((*[nativeMinPosLanes]uint16)(&a))
}
