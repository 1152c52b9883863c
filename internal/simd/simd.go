package simd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sys/cpu"
)

// Portable lane-vector kernels for the endpoint search.
//
// Every vector width implements the same capability set (Ops). The search
// engine is generic over Ops, so swapping widths changes throughput, never
// results.
//
// Widths:
//   - V128: 16 x uint8 / 8 x uint16 lanes, native 8-lane MinPos (SSE4.1, NEON, WASM SIMD128 shape)
//   - V256: 32 x uint8 / 16 x uint16 lanes, MinPos folded from two native 8-lane halves (AVX2 shape)
//   - scalar: no vector type; the table package evaluates candidates one at a time

// Ops is the capability set every vector width provides.
//
// 16-bit lanes are little-endian pairs of 8-bit lanes, so 16-bit lane i
// overlaps 8-bit lanes 2i and 2i+1.
type Ops[V any] interface {
	// Lanes8 is the number of 8-bit lanes in V.
	Lanes8() int
	// Lanes16 is the number of 16-bit lanes in V.
	Lanes16() int

	Zero() V
	Splat8(x uint8) V
	Splat16(x uint16) V
	// Load16 builds a vector from explicit 16-bit lane values. Missing lanes are zero.
	Load16(lanes ...uint16) V
	Lane8(v V, i int) uint8
	Lane16(v V, i int) uint16

	Or(a, b V) V
	Add16(a, b V) V
	SubSatU8(a, b V) V
	// AbsDiffU8 is SubSatU8(a, b) | SubSatU8(b, a).
	AbsDiffU8(a, b V) V
	Shl16(a V, n uint) V
	Shr16(a V, n uint) V

	// PackUS narrows the 16-bit lanes of a then b into 8-bit lanes with
	// unsigned saturation.
	PackUS(a, b V) V
	// WidenLo zero-extends the low half of the 8-bit lanes to 16 bits.
	WidenLo(a V) V
	// WidenHi zero-extends the high half of the 8-bit lanes to 16 bits.
	WidenHi(a V) V

	MulHiU16(a, b V) V
	MulLoU16(a, b V) V
	AddSatU16(a, b V) V

	// MinPos returns the smallest 16-bit lane and the index of its first
	// occurrence.
	MinPos(a V) (min uint16, index int)
}

// Backend identifies a vector width used by the table builder.
type Backend int

const (
	BackendScalar Backend = iota // Scalar fallback (no lanes)
	Backend128                   // 128-bit lanes (SSE4.1, NEON)
	Backend256                   // 256-bit lanes (AVX2)
)

func (b Backend) String() string {
	switch b {
	case BackendScalar:
		return "scalar"
	case Backend128:
		return "v128"
	case Backend256:
		return "v256"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownBackend is returned when the name does not match a known backend.
	ErrUnknownBackend = errors.New("unknown vector backend")
)

// CPUBackend is the widest vector width the CPU executes natively.
var CPUBackend Backend

// ActiveBackend is the backend "auto" resolves to. The vector widths are
// emulated in Go and run slower than the scalar search, so it stays scalar
// regardless of CPUBackend; the widths remain selectable by name.
var ActiveBackend = BackendScalar

func init() {
	// Detect CPU features and record the widest native lane count
	if cpu.X86.HasAVX2 {
		CPUBackend = Backend256
		slog.Debug("Vector backend detected", "backend", "v256", "instruction", "AVX2")
	} else if cpu.X86.HasSSE41 {
		CPUBackend = Backend128
		slog.Debug("Vector backend detected", "backend", "v128", "instruction", "SSE4.1")
	} else if cpu.ARM64.HasASIMD {
		CPUBackend = Backend128
		slog.Debug("Vector backend detected", "backend", "v128", "instruction", "NEON")
	} else {
		CPUBackend = BackendScalar
		slog.Debug("Vector backend detected", "backend", "scalar", "reason", "no SIMD support")
	}
	slog.Debug("Active backend", "backend", ActiveBackend, "cpu", CPUBackend)
}

// NormalizeBackend maps user input to a backend. The empty string and "auto"
// select ActiveBackend.
func NormalizeBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return ActiveBackend, nil
	case "scalar", "generic":
		return BackendScalar, nil
	case "v128", "128", "sse4", "sse4.1", "neon", "wasm":
		return Backend128, nil
	case "v256", "256", "avx2":
		return Backend256, nil
	default:
		return BackendScalar, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}

// SupportedBackends returns every backend the builder understands.
func SupportedBackends() []Backend {
	return []Backend{BackendScalar, Backend128, Backend256}
}
