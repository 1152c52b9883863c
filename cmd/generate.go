package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/etc1dxt/internal/store"
	"github.com/cwbudde/etc1dxt/internal/table"
)

var (
	genOut     string
	genFormat  string
	genWorkers int
	genSave    bool
	genName    string
	genPackage string
	genVar     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the re-encoding table",
	Long: `Builds the complete table with the selected backend and writes it as a
C include file (inc), Go source (go) or JSON. With --save the table is also
stored in the data directory for later verification.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genOut, "out", "etc1_to_dxt1_6.inc", "Output path")
	generateCmd.Flags().StringVar(&genFormat, "format", "", "Output format: inc, go, json (default: from --out extension)")
	generateCmd.Flags().IntVar(&genWorkers, "workers", 0, "Worker goroutines (0 = config value or GOMAXPROCS)")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "Store the table in the data directory")
	generateCmd.Flags().StringVar(&genName, "name", "", "Name of the stored table record")
	generateCmd.Flags().StringVar(&genPackage, "package", "transcoder", "Package name for --format go")
	generateCmd.Flags().StringVar(&genVar, "var", "etc1ToDXT1Green6", "Variable name for --format go")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(genFormat, genOut)
	if err != nil {
		return err
	}
	backend, err := cfg.BackendValue()
	if err != nil {
		return err
	}
	layout := cfg.Layout()

	ctx, cancel := signalContext()
	defer cancel()

	slog.Info("Generating table", "backend", backend, "entries", layout.Len(), "workers", resolveWorkers(genWorkers))
	solutions, elapsed, err := generateTable(ctx, layout, backend, resolveWorkers(genWorkers))
	if err != nil {
		return err
	}

	if err := writeTableFile(genOut, format, layout, solutions); err != nil {
		return err
	}
	slog.Info("Table written", "path", genOut, "format", format, "elapsed", elapsed)

	if genSave {
		fsStore, err := store.NewFSStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to create table store: %w", err)
		}
		record := store.NewTableRecord(genName, backend.String(), layout, solutions, elapsed)
		if err := fsStore.SaveTable(record); err != nil {
			return fmt.Errorf("failed to save table: %w", err)
		}
		fmt.Printf("Saved table %s\n", record.ID)
	}

	fmt.Printf("Wrote %s (%d entries, %s backend, %v)\n", genOut, len(solutions), backend, elapsed)
	return nil
}

// outputFormat validates an explicit format or infers one from the path.
func outputFormat(format, path string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".go":
			return "go", nil
		case ".json":
			return "json", nil
		default:
			return "inc", nil
		}
	}
	switch format {
	case "inc", "go", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

func writeTableFile(path, format string, layout table.Layout, solutions []table.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := writeTable(f, format, layout, solutions); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// tableJSON is the --format json document.
type tableJSON struct {
	Layout    table.Layout     `json:"layout"`
	Solutions []table.Solution `json:"solutions"`
}

func writeTable(w io.Writer, format string, layout table.Layout, solutions []table.Solution) error {
	switch format {
	case "inc":
		return store.WriteInc(w, solutions)
	case "go":
		return store.WriteGoSource(w, genPackage, genVar, layout, solutions)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tableJSON{Layout: layout, Solutions: solutions})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
