package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/store"
	"github.com/cwbudde/etc1dxt/internal/table"
)

var (
	verifyReference  string
	verifyID         string
	verifyCrossCheck bool
	verifyStrict     bool
	verifyWorkers    int
)

var (
	// errVerifyFailed is returned by verify --strict when any check mismatches.
	errVerifyFailed = errors.New("verification failed")
	// errScalarCrossCheck is returned when the scalar cross-check is the only
	// check but the table is itself built with the scalar backend.
	errScalarCrossCheck = errors.New("--cross-check compares against the scalar backend; select a vector backend or add --reference/--id")
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a generated table against a reference",
	Long: `Builds the table and compares it entry by entry against a golden C
include file (--reference), a stored table (--id) and/or the scalar
evaluator (--cross-check). The first mismatching entry is reported with its
intensity, green, selector range and mapping. Mismatches are only fatal with
--strict.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyReference, "reference", "", "Golden table in C include format")
	verifyCmd.Flags().StringVar(&verifyID, "id", "", "ID of a stored table to compare against")
	verifyCmd.Flags().BoolVar(&verifyCrossCheck, "cross-check", false, "Compare against the scalar evaluator")
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "Exit with an error on any mismatch")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 0, "Worker goroutines (0 = config value or GOMAXPROCS)")

	rootCmd.AddCommand(verifyCmd)
}

// verifyCheck is one reference the generated table is compared against.
type verifyCheck struct {
	name string
	want []table.Solution
}

func runVerify(cmd *cobra.Command, args []string) error {
	if verifyReference == "" && verifyID == "" && !verifyCrossCheck {
		return fmt.Errorf("must specify --reference, --id or --cross-check")
	}

	backend, err := cfg.BackendValue()
	if err != nil {
		return err
	}
	layout := cfg.Layout()
	if verifyCrossCheck && backend == simd.BackendScalar && verifyReference == "" && verifyID == "" {
		return errScalarCrossCheck
	}

	var checks []verifyCheck
	if verifyID != "" {
		fsStore, err := store.NewFSStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to create table store: %w", err)
		}
		record, err := fsStore.LoadTable(verifyID)
		if err != nil {
			return fmt.Errorf("failed to load table: %w", err)
		}
		// A stored table carries its own selector tables
		layout = record.Layout
		checks = append(checks, verifyCheck{name: "stored " + record.ID, want: record.Solutions})
	}
	if verifyReference != "" {
		want, err := loadReference(verifyReference)
		if err != nil {
			return err
		}
		checks = append(checks, verifyCheck{name: verifyReference, want: want})
	}

	ctx, cancel := signalContext()
	defer cancel()

	got, elapsed, err := generateTable(ctx, layout, backend, resolveWorkers(verifyWorkers))
	if err != nil {
		return err
	}
	slog.Info("Table built", "backend", backend, "entries", len(got), "elapsed", elapsed)

	if verifyCrossCheck && backend != simd.BackendScalar {
		want, _, err := generateTable(ctx, layout, simd.BackendScalar, resolveWorkers(verifyWorkers))
		if err != nil {
			return err
		}
		checks = append(checks, verifyCheck{name: "scalar", want: want})
	} else if verifyCrossCheck {
		fmt.Println("scalar: skipped (built with scalar backend)")
	}

	failed := 0
	for _, c := range checks {
		if !reportComparison(c.name, layout, got, c.want) {
			failed++
		}
	}

	if failed > 0 && verifyStrict {
		return fmt.Errorf("%w: %d of %d checks", errVerifyFailed, failed, len(checks))
	}
	return nil
}

func loadReference(path string) ([]table.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference: %w", err)
	}
	defer f.Close()

	want, err := store.ParseInc(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference: %w", err)
	}
	return want, nil
}

// reportComparison prints the outcome of one check and reports whether the
// tables matched.
func reportComparison(name string, layout table.Layout, got, want []table.Solution) bool {
	m := table.Compare(layout, got, want)
	if m == nil {
		fmt.Printf("%s: OK (%d entries)\n", name, len(got))
		return true
	}

	fmt.Printf("%s: MISMATCH, %s (%d differing entries)\n", name, m, table.CountMismatches(got, want))
	slog.Debug("First mismatch", "check", name, "dump", spew.Sdump(m))
	return false
}
