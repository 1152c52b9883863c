package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/etc1dxt/internal/heatmap"
	"github.com/cwbudde/etc1dxt/internal/store"
	"github.com/cwbudde/etc1dxt/internal/table"
)

var (
	heatOut     string
	heatID      string
	heatScale   int
	heatWorkers int
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Render the table error as an image",
	Long: `Renders one pixel per table entry: rows are (intensity, green), columns
are (selector range, mapping). Brighter pixels have a larger error. The image
format follows the --out extension (png, bmp, tif/tiff). Without --id the
table is generated first.`,
	RunE: runHeatmap,
}

func init() {
	heatmapCmd.Flags().StringVar(&heatOut, "out", "heatmap.png", "Output image path")
	heatmapCmd.Flags().StringVar(&heatID, "id", "", "Render a stored table instead of generating one")
	heatmapCmd.Flags().IntVar(&heatScale, "scale", 4, "Pixels per entry along each axis")
	heatmapCmd.Flags().IntVar(&heatWorkers, "workers", 0, "Worker goroutines (0 = config value or GOMAXPROCS)")

	rootCmd.AddCommand(heatmapCmd)
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	format, err := heatmap.FormatFromPath(heatOut)
	if err != nil {
		return err
	}

	layout, solutions, err := heatmapSource()
	if err != nil {
		return err
	}

	img, err := heatmap.Render(layout, solutions, heatScale)
	if err != nil {
		return err
	}

	f, err := os.Create(heatOut)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	if err := heatmap.Encode(f, img, format); err != nil {
		return fmt.Errorf("failed to encode heatmap: %w", err)
	}

	slog.Info("Heatmap written", "path", heatOut, "format", format, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	fmt.Printf("Wrote %s\n", heatOut)
	return nil
}

// heatmapSource loads the stored table named by --id or generates one.
func heatmapSource() (table.Layout, []table.Solution, error) {
	if heatID != "" {
		fsStore, err := store.NewFSStore(cfg.DataDir)
		if err != nil {
			return table.Layout{}, nil, fmt.Errorf("failed to create table store: %w", err)
		}
		record, err := fsStore.LoadTable(heatID)
		if err != nil {
			return table.Layout{}, nil, fmt.Errorf("failed to load table: %w", err)
		}
		return record.Layout, record.Solutions, nil
	}

	backend, err := cfg.BackendValue()
	if err != nil {
		return table.Layout{}, nil, err
	}

	ctx, cancel := signalContext()
	defer cancel()

	layout := cfg.Layout()
	solutions, _, err := generateTable(ctx, layout, backend, resolveWorkers(heatWorkers))
	if err != nil {
		return table.Layout{}, nil, err
	}
	return layout, solutions, nil
}
