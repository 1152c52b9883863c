package store

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"io"

	"github.com/cwbudde/etc1dxt/internal/table"
)

// WriteGoSource writes solutions as a gofmt'ed Go source file declaring
// varName in package pkg, for transcoders that embed the table directly.
func WriteGoSource(w io.Writer, pkg, varName string, layout table.Layout, solutions []table.Solution) error {
	if !token.IsIdentifier(pkg) {
		return fmt.Errorf("invalid package name %q", pkg)
	}
	if !token.IsIdentifier(varName) {
		return fmt.Errorf("invalid variable name %q", varName)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by etc1dxt generate; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "// %s holds the best 6-bit DXT1 green endpoints for each ETC1\n", varName)
	fmt.Fprintf(&buf, "// (intensity, green, selector range, selector mapping), mapping innermost.\n")
	fmt.Fprintf(&buf, "// Selector ranges: %v\n", layout.Ranges)
	fmt.Fprintf(&buf, "// Selector mappings: %v\n", layout.Mappings)
	fmt.Fprintf(&buf, "var %s = [%d]struct {\n\tLo, Hi uint8\n\tErr    uint16\n}{\n", varName, len(solutions))
	for i, s := range solutions {
		fmt.Fprintf(&buf, "{%d, %d, %d},", s.Lo, s.Hi, s.Err)
		if (i+1)%incPerLine == 0 || i == len(solutions)-1 {
			buf.WriteByte('\n')
		}
	}
	buf.WriteString("}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to format generated source: %w", err)
	}
	_, err = w.Write(src)
	return err
}
