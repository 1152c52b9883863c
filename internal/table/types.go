package table

import (
	"fmt"

	"github.com/cwbudde/etc1dxt/internal/etc1"
)

const (
	// NumEndpoints is the number of 6-bit DXT1 green endpoint codes.
	NumEndpoints = 64
	// MaxErr is the saturated error value and the search's starting sentinel.
	MaxErr = 0xFFFF
)

// Solution is the best DXT1 endpoint pair for one table entry.
type Solution struct {
	Lo  uint8  `json:"lo"`
	Hi  uint8  `json:"hi"`
	Err uint16 `json:"err"`
}

func (s Solution) String() string {
	return fmt.Sprintf("{lo:%d hi:%d err:%d}", s.Lo, s.Hi, s.Err)
}

// SelectorRange is the inclusive span of ETC1 selectors that must be matched.
type SelectorRange struct {
	Low  uint8 `json:"low" yaml:"low"`
	High uint8 `json:"high" yaml:"high"`
}

// SelectorMapping maps each ETC1 selector to one of the four DXT1 shades
// (0 = lo endpoint, 3 = hi endpoint, 1 and 2 = interpolants).
type SelectorMapping [etc1.NumSelectors]uint8

// Key identifies one table entry.
type Key struct {
	Intensity int `json:"intensity"`
	Green     int `json:"green"`
	Range     int `json:"range"`
	Mapping   int `json:"mapping"`
}

func (k Key) String() string {
	return fmt.Sprintf("inten=%d green=%d range=%d mapping=%d", k.Intensity, k.Green, k.Range, k.Mapping)
}

// Layout holds the selector tables a table is generated for and defines the
// entry order: intensity outermost, then green, range and mapping innermost.
type Layout struct {
	Ranges   []SelectorRange   `json:"ranges"`
	Mappings []SelectorMapping `json:"mappings"`
}

// Len returns the number of entries in a table with this layout.
func (l Layout) Len() int {
	return etc1.NumIntensities * etc1.NumColor5 * l.rowLen()
}

// rowLen is the number of entries sharing one (intensity, green) pair.
func (l Layout) rowLen() int {
	return len(l.Ranges) * len(l.Mappings)
}

// Index returns the flat position of an entry.
func (l Layout) Index(k Key) int {
	return ((k.Intensity*etc1.NumColor5+k.Green)*len(l.Ranges)+k.Range)*len(l.Mappings) + k.Mapping
}

// Key is the inverse of Index.
func (l Layout) Key(n int) Key {
	var k Key
	k.Mapping = n % len(l.Mappings)
	n /= len(l.Mappings)
	k.Range = n % len(l.Ranges)
	n /= len(l.Ranges)
	k.Green = n % etc1.NumColor5
	k.Intensity = n / etc1.NumColor5
	return k
}

// Validate checks that every range and mapping is inside the selector space.
func (l Layout) Validate() error {
	if len(l.Ranges) == 0 {
		return &LayoutError{Field: "ranges", Reason: "cannot be empty"}
	}
	if len(l.Mappings) == 0 {
		return &LayoutError{Field: "mappings", Reason: "cannot be empty"}
	}
	for i, r := range l.Ranges {
		if r.High >= etc1.NumSelectors {
			return &LayoutError{Field: fmt.Sprintf("ranges[%d]", i), Reason: "high selector must be at most 3"}
		}
		if r.Low > r.High {
			return &LayoutError{Field: fmt.Sprintf("ranges[%d]", i), Reason: "low selector exceeds high selector"}
		}
	}
	for i, m := range l.Mappings {
		for s, c := range m {
			if c >= etc1.NumSelectors {
				return &LayoutError{Field: fmt.Sprintf("mappings[%d][%d]", i, s), Reason: "shade index must be at most 3"}
			}
		}
	}
	return nil
}

// LayoutError describes an invalid selector table.
type LayoutError struct {
	Field  string
	Reason string
}

func (e *LayoutError) Error() string {
	return "invalid layout: " + e.Field + " " + e.Reason
}
