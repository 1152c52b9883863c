package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceEntry is one timed table generation in a benchmark session.
// Each entry is serialized as a JSON line in bench/<sessionID>.jsonl.
type TraceEntry struct {
	// Run is the 1-based run number within the session
	Run int `json:"run"`

	// Backend is the vector backend that was timed
	Backend string `json:"backend"`

	// Workers is the number of goroutines used (1 for a serial build)
	Workers int `json:"workers"`

	// Elapsed is the wall time of this run
	Elapsed time.Duration `json:"elapsed"`

	// Best is the fastest run so far in the session
	Best time.Duration `json:"best"`

	// Timestamp records when the run finished
	Timestamp time.Time `json:"timestamp"`
}

func tracePath(baseDir, sessionID string) string {
	return filepath.Join(baseDir, "bench", sessionID+".jsonl")
}

// TraceWriter writes trace entries to a JSONL file.
// It uses buffered I/O and is safe for concurrent use.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewTraceWriter creates a trace file for the given benchmark session at
// <baseDir>/bench/<sessionID>.jsonl. If append is true, new entries are
// appended to an existing file.
func NewTraceWriter(baseDir, sessionID string, append bool) (*TraceWriter, error) {
	path := tracePath(baseDir, sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create bench directory: %w", err)
	}

	var file *os.File
	var err error
	if append {
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceWriter{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}, nil
}

// Write appends a trace entry to the file.
// The entry is buffered and will be written on Flush() or Close().
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}
	if _, err := tw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := tw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// Flush writes any buffered data to the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	return nil
}

// Close flushes buffered data and closes the trace file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		tw.file.Close() // Try to close anyway
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := tw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the trace file.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// ReadTrace reads all entries of a benchmark session.
func ReadTrace(baseDir, sessionID string) ([]TraceEntry, error) {
	file, err := os.Open(tracePath(baseDir, sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{ID: sessionID}
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer file.Close()

	var entries []TraceEntry
	dec := json.NewDecoder(file)
	for {
		var entry TraceEntry
		err := dec.Decode(&entry)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode trace entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
