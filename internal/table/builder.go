package table

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/etc1dxt/internal/etc1"
	"github.com/cwbudde/etc1dxt/internal/simd"
)

// numRows is the number of (intensity, green) pairs. Each row owns a
// contiguous block of layout.rowLen() entries.
const numRows = etc1.NumIntensities * etc1.NumColor5

// rowSolver fills the entries of one (intensity, green) row. Implementations
// are read-only after construction and safe for concurrent use.
type rowSolver interface {
	solveRow(dst []Solution, inten, green int)
}

// engine is the vectorised row solver for lane type V.
type engine[V any, O simd.Ops[V]] struct {
	ops    O
	layout Layout
	colors *colorTable[V]
}

func newEngine[V any, O simd.Ops[V]](ops O, layout Layout) *engine[V, O] {
	return &engine[V, O]{
		ops:    ops,
		layout: layout,
		colors: newColorTable[V](ops),
	}
}

func (e *engine[V, O]) solveRow(dst []Solution, inten, green int) {
	greens := etc1.SampleGreens(uint8(green), inten)

	var blockGreen [4]V
	for s, g := range greens {
		blockGreen[s] = e.ops.Splat8(g)
	}

	n := 0
	for _, r := range e.layout.Ranges {
		for _, m := range e.layout.Mappings {
			dst[n] = e.solve(&blockGreen, r, m)
			n++
		}
	}
}

// solve searches hi ascending, then lo batches ascending.
func (e *engine[V, O]) solve(blockGreen *[4]V, r SelectorRange, m SelectorMapping) Solution {
	b := newBest()
	lanes8 := e.ops.Lanes8()
	for hi := 0; hi < NumEndpoints; hi++ {
		for batch := 0; batch < e.colors.batches; batch++ {
			totalLo, totalHi := scoreBatch(e.ops, blockGreen, e.colors.shades(hi, batch), r, m)
			adjustBest(e.ops, &b, totalLo, totalHi, batch*lanes8, hi)
		}
	}
	return b.solution()
}

func newRowSolver(layout Layout, backend simd.Backend) (rowSolver, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	switch backend {
	case simd.BackendScalar:
		return newScalarSolver(layout), nil
	case simd.Backend128:
		return newEngine[simd.V128](simd.Ops128{}, layout), nil
	case simd.Backend256:
		return newEngine[simd.V256](simd.Ops256{}, layout), nil
	default:
		return nil, fmt.Errorf("%w: %s", simd.ErrUnknownBackend, backend)
	}
}

func checkDst(dst []Solution, layout Layout) error {
	if len(dst) != layout.Len() {
		return fmt.Errorf("destination holds %d entries, layout needs %d", len(dst), layout.Len())
	}
	return nil
}

// Build generates a complete table for layout.
func Build(layout Layout, backend simd.Backend) ([]Solution, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	dst := make([]Solution, layout.Len())
	if err := BuildInto(dst, layout, backend); err != nil {
		return nil, err
	}
	return dst, nil
}

// BuildInto generates a table into caller-owned storage, one row at a time on
// the calling goroutine. dst must hold exactly layout.Len() entries.
func BuildInto(dst []Solution, layout Layout, backend simd.Backend) error {
	solver, err := newRowSolver(layout, backend)
	if err != nil {
		return err
	}
	if err := checkDst(dst, layout); err != nil {
		return err
	}

	start := time.Now()
	rowLen := layout.rowLen()
	for row := 0; row < numRows; row++ {
		inten, green := row/etc1.NumColor5, row%etc1.NumColor5
		solver.solveRow(dst[row*rowLen:(row+1)*rowLen], inten, green)
	}

	slog.Debug("Table built", "backend", backend, "entries", len(dst), "elapsed", time.Since(start))
	return nil
}

// BuildParallel is BuildInto with rows spread over workers goroutines. Rows
// write disjoint parts of dst, so the result is identical to BuildInto.
// workers <= 0 uses GOMAXPROCS. If ctx is cancelled no further rows are
// started and ctx.Err() is returned; dst is then only partially filled.
func BuildParallel(ctx context.Context, dst []Solution, layout Layout, backend simd.Backend, workers int) error {
	return BuildParallelProgress(ctx, dst, layout, backend, workers, nil)
}

// ProgressFunc receives the number of finished rows out of total. It is
// called from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(done, total int)

// BuildParallelProgress is BuildParallel reporting each finished row to
// progress, which may be nil.
func BuildParallelProgress(ctx context.Context, dst []Solution, layout Layout, backend simd.Backend, workers int, progress ProgressFunc) error {
	solver, err := newRowSolver(layout, backend)
	if err != nil {
		return err
	}
	if err := checkDst(dst, layout); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numRows {
		workers = numRows
	}

	start := time.Now()
	rowLen := layout.rowLen()
	rows := make(chan int)
	var finished atomic.Int32

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range rows {
				inten, green := row/etc1.NumColor5, row%etc1.NumColor5
				solver.solveRow(dst[row*rowLen:(row+1)*rowLen], inten, green)
				if progress != nil {
					progress(int(finished.Add(1)), numRows)
				}
			}
		}()
	}

	var dispatchErr error
dispatch:
	for row := 0; row < numRows; row++ {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case rows <- row:
		}
	}
	close(rows)
	wg.Wait()

	if dispatchErr != nil {
		slog.Warn("Table build cancelled", "backend", backend, "error", dispatchErr)
		return dispatchErr
	}

	slog.Debug("Table built", "backend", backend, "entries", len(dst), "workers", workers, "elapsed", time.Since(start))
	return nil
}
