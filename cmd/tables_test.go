package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/etc1dxt/internal/store"
	"github.com/cwbudde/etc1dxt/internal/table"
)

func ids(infos []store.TableInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.ID
	}
	return out
}

func TestSelectTablesForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.TableInfo{
		{ID: "t1", Timestamp: now.AddDate(0, 0, -10)}, // 10 days old
		{ID: "t2", Timestamp: now.AddDate(0, 0, -5)},  // 5 days old
		{ID: "t3", Timestamp: now.AddDate(0, 0, -1)},  // 1 day old
		{ID: "t4", Timestamp: now.AddDate(0, 0, -30)}, // 30 days old
	}

	// Delete tables older than 7 days
	toDelete := selectTablesForDeletion(infos, 0, 7, now)

	got := ids(toDelete)
	if len(got) != 2 || got[0] != "t4" || got[1] != "t1" {
		t.Errorf("Expected [t4 t1] to be selected, got %v", got)
	}
}

func TestSelectTablesForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.TableInfo{
		{ID: "t1", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "t2", Timestamp: now.AddDate(0, 0, -5)},
		{ID: "t3", Timestamp: now.AddDate(0, 0, -1)},
		{ID: "t4", Timestamp: now.AddDate(0, 0, -30)},
	}

	// Keep only the newest 2
	toDelete := selectTablesForDeletion(infos, 2, 0, now)

	got := ids(toDelete)
	if len(got) != 2 || got[0] != "t4" || got[1] != "t1" {
		t.Errorf("Expected oldest [t4 t1] to be selected, got %v", got)
	}

	if len(selectTablesForDeletion(infos, 10, 0, now)) != 0 {
		t.Error("Expected nothing to delete when keep-last exceeds the count")
	}
}

func TestSelectTablesForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.TableInfo{
		{ID: "t1", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "t2", Timestamp: now.AddDate(0, 0, -5)},
		{ID: "t3", Timestamp: now.AddDate(0, 0, -1)},
		{ID: "t4", Timestamp: now.AddDate(0, 0, -30)},
		{ID: "t5", Timestamp: now.AddDate(0, 0, -2)},
	}

	// Older than 7 days selects t4 and t1; keeping 2 also selects t2.
	// Each record appears once.
	toDelete := selectTablesForDeletion(infos, 2, 7, now)

	got := ids(toDelete)
	want := []string{"t4", "t1", "t2"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("Hello, World!")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}

	if size < int64(len(content)) {
		t.Errorf("Expected size >= %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %s", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("shortID = %s", got)
	}
}

func TestTablesListCommand_NoTables(t *testing.T) {
	useTestConfig(t, "scalar")

	if err := runListTables(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestTablesListCommand_WithTables(t *testing.T) {
	c := useTestConfig(t, "scalar")

	fsStore, err := store.NewFSStore(c.DataDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	layout := c.Layout()
	record := store.NewTableRecord("listed", "scalar", layout, make([]table.Solution, layout.Len()), time.Second)
	if err := fsStore.SaveTable(record); err != nil {
		t.Fatalf("Failed to save table: %v", err)
	}

	if err := runListTables(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestTablesCleanCommand_NoFlags(t *testing.T) {
	useTestConfig(t, "scalar")
	setFlag(t, &keepLast, 0)
	setFlag(t, &olderThanDays, 0)

	if err := runCleanTables(nil, nil); err == nil {
		t.Error("Expected error when no retention flag is given")
	}
}

func TestTablesCleanCommand_KeepLast(t *testing.T) {
	c := useTestConfig(t, "scalar")
	setFlag(t, &keepLast, 1)
	setFlag(t, &olderThanDays, 0)
	setFlag(t, &forceClean, true)

	fsStore, err := store.NewFSStore(c.DataDir)
	if err != nil {
		t.Fatal(err)
	}

	layout := c.Layout()
	base := time.Now().Add(-time.Hour)
	var newest string
	for i := 0; i < 3; i++ {
		record := store.NewTableRecord("", "scalar", layout, make([]table.Solution, layout.Len()), 0)
		record.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := fsStore.SaveTable(record); err != nil {
			t.Fatal(err)
		}
		newest = record.ID
	}

	if err := runCleanTables(nil, nil); err != nil {
		t.Fatalf("clean failed: %v", err)
	}

	infos, err := fsStore.ListTables()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].ID != newest {
		t.Errorf("Expected only the newest table to remain, got %v", ids(infos))
	}
}
