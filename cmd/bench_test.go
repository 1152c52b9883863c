package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/store"
)

// benchSessions returns the session IDs of every trace in the data directory.
func benchSessions(t *testing.T, dataDir string) []string {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dataDir, "bench", "*.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	sessions := make([]string, len(paths))
	for i, p := range paths {
		sessions[i] = strings.TrimSuffix(filepath.Base(p), ".jsonl")
	}
	return sessions
}

func TestBenchCommand_Trace(t *testing.T) {
	c := useTestConfig(t, "scalar")
	setFlag(t, &benchRuns, 2)
	setFlag(t, &benchWorkers, 1)
	setFlag(t, &benchTrace, true)
	setFlag(t, &benchAll, false)

	if err := runBench(nil, nil); err != nil {
		t.Fatalf("runBench failed: %v", err)
	}

	sessions := benchSessions(t, c.DataDir)
	if len(sessions) != 1 {
		t.Fatalf("Expected one trace session, got %d", len(sessions))
	}
	entries, err := store.ReadTrace(c.DataDir, sessions[0])
	if err != nil {
		t.Fatalf("ReadTrace failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected one trace entry per run, got %d", len(entries))
	}

	for i, e := range entries {
		if e.Run != i+1 {
			t.Errorf("entry %d: expected run %d, got %d", i, i+1, e.Run)
		}
		if e.Backend != "scalar" || e.Workers != 1 {
			t.Errorf("entry %d: unexpected backend/workers %s/%d", i, e.Backend, e.Workers)
		}
		if e.Best > e.Elapsed {
			t.Errorf("entry %d: best %v exceeds elapsed %v", i, e.Best, e.Elapsed)
		}
	}
	if entries[1].Best > entries[0].Best {
		t.Error("Best run time should never increase")
	}
}

func TestBenchCommand_AllBackends(t *testing.T) {
	c := useTestConfig(t, "scalar")
	setFlag(t, &benchRuns, 1)
	setFlag(t, &benchWorkers, 2)
	setFlag(t, &benchTrace, true)
	setFlag(t, &benchAll, true)

	if err := runBench(nil, nil); err != nil {
		t.Fatalf("runBench failed: %v", err)
	}

	sessions := benchSessions(t, c.DataDir)
	if len(sessions) != 1 {
		t.Fatalf("Expected one trace session, got %d", len(sessions))
	}
	entries, err := store.ReadTrace(c.DataDir, sessions[0])
	if err != nil {
		t.Fatal(err)
	}

	backends := simd.SupportedBackends()
	if len(entries) != len(backends) {
		t.Fatalf("Expected %d entries, got %d", len(backends), len(entries))
	}
	for i, b := range backends {
		if entries[i].Backend != b.String() {
			t.Errorf("entry %d: expected backend %s, got %s", i, b, entries[i].Backend)
		}
	}
}

func TestBenchCommand_NoTrace(t *testing.T) {
	c := useTestConfig(t, "scalar")
	setFlag(t, &benchRuns, 1)
	setFlag(t, &benchTrace, false)
	setFlag(t, &benchAll, false)

	if err := runBench(nil, nil); err != nil {
		t.Fatalf("runBench failed: %v", err)
	}
	if sessions := benchSessions(t, c.DataDir); len(sessions) != 0 {
		t.Errorf("Expected no trace without --trace, got %v", sessions)
	}
}

func TestBenchCommand_InvalidRuns(t *testing.T) {
	useTestConfig(t, "scalar")
	setFlag(t, &benchRuns, 0)

	if err := runBench(nil, nil); err == nil {
		t.Error("Expected error for --runs 0")
	}
}
