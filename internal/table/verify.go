package table

import "fmt"

// Mismatch describes the first entry where two tables differ.
type Mismatch struct {
	Index int       `json:"index"`
	Key   Key       `json:"key"`
	Got   *Solution `json:"got,omitempty"`  // nil when got is shorter
	Want  *Solution `json:"want,omitempty"` // nil when want is shorter
}

func (m *Mismatch) String() string {
	switch {
	case m.Got == nil:
		return fmt.Sprintf("mismatch at %d (%s): generated table ends, want %s", m.Index, m.Key, m.Want)
	case m.Want == nil:
		return fmt.Sprintf("mismatch at %d (%s): reference table ends, got %s", m.Index, m.Key, m.Got)
	default:
		return fmt.Sprintf("mismatch at %d (%s): got %s, want %s", m.Index, m.Key, m.Got, m.Want)
	}
}

// Compare checks got against want entry by entry and returns the first
// difference, or nil when the tables are identical. A length difference is
// reported at the end of the shorter table.
func Compare(layout Layout, got, want []Solution) *Mismatch {
	n := len(got)
	if len(want) < n {
		n = len(want)
	}

	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return &Mismatch{Index: i, Key: layout.Key(i), Got: &got[i], Want: &want[i]}
		}
	}

	if len(got) == len(want) {
		return nil
	}
	m := &Mismatch{Index: n, Key: layout.Key(n)}
	if n < len(got) {
		m.Got = &got[n]
	}
	if n < len(want) {
		m.Want = &want[n]
	}
	return m
}

// CountMismatches returns how many entries differ over the common length.
func CountMismatches(got, want []Solution) int {
	n := len(got)
	if len(want) < n {
		n = len(want)
	}
	count := 0
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			count++
		}
	}
	return count
}
