package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/store"
)

var (
	benchRuns    int
	benchWorkers int
	benchTrace   bool
	benchAll     bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time repeated table generation",
	Long: `Generates the full table several times and reports the best run.
With --trace every run is appended to <data-dir>/bench/<session>.jsonl.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchRuns, "runs", 10, "Number of timed runs")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 1, "Worker goroutines (0 = GOMAXPROCS)")
	benchCmd.Flags().BoolVar(&benchTrace, "trace", false, "Write a JSONL trace of every run")
	benchCmd.Flags().BoolVar(&benchAll, "all", false, "Benchmark every backend instead of the selected one")

	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchRuns < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", benchRuns)
	}

	backends := simd.SupportedBackends()
	if !benchAll {
		backend, err := cfg.BackendValue()
		if err != nil {
			return err
		}
		backends = []simd.Backend{backend}
	}

	var tw *store.TraceWriter
	if benchTrace {
		sessionID := uuid.New().String()
		w, err := store.NewTraceWriter(cfg.DataDir, sessionID, false)
		if err != nil {
			return fmt.Errorf("failed to create trace: %w", err)
		}
		defer w.Close()
		tw = w
		slog.Info("Tracing bench runs", "session", sessionID, "path", tw.Path())
	}

	ctx, cancel := signalContext()
	defer cancel()

	layout := cfg.Layout()
	for _, backend := range backends {
		best := time.Duration(1<<63 - 1)
		for run := 1; run <= benchRuns; run++ {
			_, elapsed, err := generateTable(ctx, layout, backend, benchWorkers)
			if err != nil {
				return err
			}
			best = min(best, elapsed)

			slog.Debug("Bench run", "backend", backend, "run", run, "elapsed", elapsed)
			if tw != nil {
				entry := store.TraceEntry{
					Run:       run,
					Backend:   backend.String(),
					Workers:   benchWorkers,
					Elapsed:   elapsed,
					Best:      best,
					Timestamp: time.Now(),
				}
				if err := tw.Write(entry); err != nil {
					return fmt.Errorf("failed to write trace: %w", err)
				}
			}
		}

		slog.Info("Bench complete", "backend", backend, "runs", benchRuns, "best", best)
		fmt.Printf("%s: best run took %dms\n", backend, best.Milliseconds())
	}

	if tw != nil {
		return tw.Flush()
	}
	return nil
}
