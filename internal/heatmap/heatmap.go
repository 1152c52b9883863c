// Package heatmap renders the error of a generated table as an image.
//
// Each (intensity, green) row of the table becomes one image row and each
// (selector range, selector mapping) pair one column, so intensity bands run
// down the image and the cost of every re-encoding strategy can be compared
// side by side.
package heatmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/cwbudde/etc1dxt/internal/etc1"
	"github.com/cwbudde/etc1dxt/internal/table"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

var (
	// ErrUnknownFormat is returned for unsupported image formats.
	ErrUnknownFormat = errors.New("unknown image format")
	// ErrTableSize is returned when the table does not match its layout.
	ErrTableSize = errors.New("table size does not match layout")
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Render draws one pixel per entry. Errors are scaled logarithmically
// against the largest error in the table: black is a perfect fit, white the
// worst entry.
func Render(layout table.Layout, solutions []table.Solution, scale int) (*image.Gray, error) {
	if len(solutions) != layout.Len() {
		return nil, fmt.Errorf("%w: %d entries, want %d", ErrTableSize, len(solutions), layout.Len())
	}
	if scale < 1 {
		scale = 1
	}

	cols := len(layout.Ranges) * len(layout.Mappings)
	rows := etc1.NumIntensities * etc1.NumColor5
	img := image.NewGray(image.Rect(0, 0, cols*scale, rows*scale))

	var maxErr uint16
	for _, s := range solutions {
		if s.Err > maxErr {
			maxErr = s.Err
		}
	}
	denom := math.Log1p(float64(maxErr))

	for n, s := range solutions {
		var v uint8
		if denom > 0 {
			v = uint8(math.Round(255 * math.Log1p(float64(s.Err)) / denom))
		}
		x, y := (n%cols)*scale, (n/cols)*scale
		for dy := 0; dy < scale; dy++ {
			for dx := 0; dx < scale; dx++ {
				img.SetGray(x+dx, y+dy, color.Gray{Y: v})
			}
		}
	}
	return img, nil
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
