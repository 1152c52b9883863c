package store

// Store defines the interface for table persistence operations.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the record doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveTable atomically saves a record under record.ID, overwriting any
	// existing record with the same ID. Invalid records are rejected.
	SaveTable(record *TableRecord) error

	// LoadTable retrieves the record with the given ID.
	// Returns ErrNotFound if no such record exists.
	LoadTable(id string) (*TableRecord, error)

	// ListTables returns metadata for all stored records, oldest first.
	ListTables() ([]TableInfo, error)

	// DeleteTable removes the record and its directory.
	// Returns ErrNotFound if no such record exists.
	DeleteTable(id string) error
}

// ErrNotFound is returned when a requested record does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing record error.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return "table not found: " + e.ID
	}
	return "table not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
