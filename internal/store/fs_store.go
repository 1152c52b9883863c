package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FSStore implements the Store interface using filesystem-based persistence.
// Records are stored as <baseDir>/tables/<id>/table.json.
//
// Thread-safety: writes go to a temporary file that is renamed into place,
// so concurrent readers never observe a partial record.
type FSStore struct {
	baseDir string // Root directory for all stored data (e.g., "./data")
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

func (fs *FSStore) tableDir(id string) string {
	return filepath.Join(fs.baseDir, "tables", id)
}

func (fs *FSStore) tablePath(id string) string {
	return filepath.Join(fs.tableDir(id), "table.json")
}

// SaveTable atomically saves a record.
// Uses temp file + rename pattern to ensure atomicity.
func (fs *FSStore) SaveTable(record *TableRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid record: %w", err)
	}

	dir := fs.tableDir(record.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize table: %w", err)
	}

	// Write to temporary file first (atomic pattern)
	tempPath := fs.tablePath(record.ID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp table file: %w", err)
	}

	finalPath := fs.tablePath(record.ID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename table file: %w", err)
	}

	slog.Debug("Table saved", "id", record.ID, "entries", len(record.Solutions), "path", finalPath)
	return nil
}

// LoadTable retrieves the record with the given ID.
func (fs *FSStore) LoadTable(id string) (*TableRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	path := fs.tablePath(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}

	var record TableRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize table: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("stored table %s is invalid: %w", id, err)
	}

	slog.Debug("Table loaded", "id", id, "path", path)
	return &record, nil
}

// ListTables returns metadata for all stored records, oldest first.
func (fs *FSStore) ListTables() ([]TableInfo, error) {
	tablesDir := filepath.Join(fs.baseDir, "tables")

	entries, err := os.ReadDir(tablesDir)
	if os.IsNotExist(err) {
		// Nothing stored yet
		return []TableInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read tables directory: %w", err)
	}

	infos := []TableInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		record, err := fs.LoadTable(entry.Name())
		if err != nil {
			slog.Warn("Failed to load table for listing", "id", entry.Name(), "error", err)
			continue // Skip corrupted or partial records
		}
		infos = append(infos, record.ToInfo())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Timestamp.Before(infos[j].Timestamp)
	})

	slog.Debug("Listed tables", "count", len(infos))
	return infos, nil
}

// DeleteTable removes the record and all files in its directory.
func (fs *FSStore) DeleteTable(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	dir := fs.tableDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	} else if err != nil {
		return fmt.Errorf("failed to stat table directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove table directory: %w", err)
	}

	slog.Debug("Table deleted", "id", id, "path", dir)
	return nil
}
