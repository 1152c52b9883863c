package main

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func TestHeatmapCommand(t *testing.T) {
	useTestConfig(t, "v128")
	out := filepath.Join(t.TempDir(), "heat.bmp")
	setFlag(t, &heatOut, out)
	setFlag(t, &heatID, "")
	setFlag(t, &heatScale, 2)

	if err := runHeatmap(nil, nil); err != nil {
		t.Fatalf("heatmap failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("output is not a BMP: %v", err)
	}
	// One column, 256 rows, scaled by 2
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 512 {
		t.Errorf("unexpected bounds %v", b)
	}
}

func TestHeatmapCommand_UnknownFormat(t *testing.T) {
	useTestConfig(t, "scalar")
	setFlag(t, &heatOut, filepath.Join(t.TempDir(), "heat.gif"))

	if err := runHeatmap(nil, nil); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}
