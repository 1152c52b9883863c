package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tempDir := t.TempDir()
	sessionID := "session-1"

	tw, err := NewTraceWriter(tempDir, sessionID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "bench", sessionID+".jsonl")
	if tw.Path() != expectedPath {
		t.Errorf("expected path %s, got %s", expectedPath, tw.Path())
	}

	now := time.Now()
	entries := []TraceEntry{
		{Run: 1, Backend: "v256", Workers: 1, Elapsed: 900 * time.Millisecond, Best: 900 * time.Millisecond, Timestamp: now},
		{Run: 2, Backend: "v256", Workers: 1, Elapsed: 800 * time.Millisecond, Best: 800 * time.Millisecond, Timestamp: now},
		{Run: 3, Backend: "v256", Workers: 1, Elapsed: 850 * time.Millisecond, Best: 800 * time.Millisecond, Timestamp: now},
	}
	for _, e := range entries {
		if err := tw.Write(e); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := ReadTrace(tempDir, sessionID)
	if err != nil {
		t.Fatalf("ReadTrace failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(got))
	}
	for i := range entries {
		if got[i].Run != entries[i].Run || got[i].Elapsed != entries[i].Elapsed || got[i].Best != entries[i].Best {
			t.Errorf("entry %d: expected %+v, got %+v", i, entries[i], got[i])
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	tempDir := t.TempDir()

	for run := 1; run <= 2; run++ {
		tw, err := NewTraceWriter(tempDir, "appended", true)
		if err != nil {
			t.Fatal(err)
		}
		if err := tw.Write(TraceEntry{Run: run, Backend: "scalar"}); err != nil {
			t.Fatal(err)
		}
		if err := tw.Flush(); err != nil {
			t.Fatal(err)
		}
		if err := tw.Close(); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ReadTrace(tempDir, "appended")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Run != 2 {
		t.Errorf("expected two appended entries, got %+v", got)
	}
}

func TestReadTrace_Errors(t *testing.T) {
	tempDir := t.TempDir()

	if _, err := ReadTrace(tempDir, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	path := filepath.Join(tempDir, "bench", "bad.jsonl")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{\"run\":1}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTrace(tempDir, "bad"); err == nil {
		t.Error("expected decode error")
	}
}
