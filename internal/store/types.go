package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/etc1dxt/internal/table"
)

// TableRecord is a generated table together with the inputs that produced
// it. All fields are serialized to JSON for persistence.
//
// The selector layout is stored with the solutions because a table is only
// meaningful for the exact ranges and mappings it was searched with; a
// record loaded as a reference is compared against a table built from its
// own Layout.
type TableRecord struct {
	// ID is the unique identifier of this record
	ID string `json:"id"`

	// Name is an optional human-readable label
	Name string `json:"name,omitempty"`

	// Backend is the vector backend that generated the table
	Backend string `json:"backend"`

	// Layout holds the selector ranges and mappings the table was built for
	Layout table.Layout `json:"layout"`

	// Solutions holds one entry per (intensity, green, range, mapping)
	Solutions []table.Solution `json:"solutions"`

	// Elapsed is how long the generation took
	Elapsed time.Duration `json:"elapsed"`

	// Timestamp records when this record was created
	Timestamp time.Time `json:"timestamp"`
}

// TableInfo contains metadata about a record without its solutions.
// Used for listing records without keeping whole tables in memory.
type TableInfo struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Backend   string        `json:"backend"`
	Entries   int           `json:"entries"`
	Ranges    int           `json:"ranges"`
	Mappings  int           `json:"mappings"`
	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewTableRecord creates a record with a fresh ID.
func NewTableRecord(name, backend string, layout table.Layout, solutions []table.Solution, elapsed time.Duration) *TableRecord {
	return &TableRecord{
		ID:        uuid.New().String(),
		Name:      name,
		Backend:   backend,
		Layout:    layout,
		Solutions: solutions,
		Elapsed:   elapsed,
		Timestamp: time.Now(),
	}
}

// ToInfo converts a full TableRecord to TableInfo (metadata only).
func (r *TableRecord) ToInfo() TableInfo {
	return TableInfo{
		ID:        r.ID,
		Name:      r.Name,
		Backend:   r.Backend,
		Entries:   len(r.Solutions),
		Ranges:    len(r.Layout.Ranges),
		Mappings:  len(r.Layout.Mappings),
		Elapsed:   r.Elapsed,
		Timestamp: r.Timestamp,
	}
}

// Validate checks if the record has valid data.
func (r *TableRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.Backend == "" {
		return &ValidationError{Field: "Backend", Reason: "cannot be empty"}
	}
	if err := r.Layout.Validate(); err != nil {
		return &ValidationError{Field: "Layout", Reason: err.Error()}
	}
	if len(r.Solutions) != r.Layout.Len() {
		return &ValidationError{
			Field:  "Solutions",
			Reason: fmt.Sprintf("length mismatch: expected %d entries for layout, got %d", r.Layout.Len(), len(r.Solutions)),
		}
	}
	for i, s := range r.Solutions {
		if s.Lo >= table.NumEndpoints || s.Hi >= table.NumEndpoints {
			return &ValidationError{Field: fmt.Sprintf("Solutions[%d]", i), Reason: "endpoint exceeds 6 bits"}
		}
	}
	if r.Elapsed < 0 {
		return &ValidationError{Field: "Elapsed", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
