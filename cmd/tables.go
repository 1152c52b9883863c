package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/etc1dxt/internal/store"
)

var (
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Manage stored tables",
	Long: `Manage tables saved with generate --save, including listing and
cleaning old records. Stored tables can be compared with verify --id.`,
}

var listTablesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored tables",
	Long:  `Display all stored tables with ID, name, backend, entry count, build time and file size.`,
	RunE:  runListTables,
}

var cleanTablesCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old tables",
	Long: `Delete stored tables based on retention policy.
You can keep only the newest N tables or delete tables older than N days.`,
	RunE: runCleanTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)

	tablesCmd.AddCommand(listTablesCmd)
	tablesCmd.AddCommand(cleanTablesCmd)

	cleanTablesCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N tables (0 = keep all)")
	cleanTablesCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete tables older than N days (0 = no age limit)")
	cleanTablesCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListTables(cmd *cobra.Command, args []string) error {
	fsStore, err := store.NewFSStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to create table store: %w", err)
	}

	infos, err := fsStore.ListTables()
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No tables found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBACKEND\tENTRIES\tELAPSED\tTIMESTAMP\tSIZE")
	fmt.Fprintln(w, "--\t----\t-------\t-------\t-------\t---------\t----")

	for _, info := range infos {
		size, err := getDirSize(filepath.Join(cfg.DataDir, "tables", info.ID))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		name := info.Name
		if name == "" {
			name = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%s\t%s\n",
			shortID(info.ID),
			name,
			info.Backend,
			info.Entries,
			info.Elapsed.Round(time.Millisecond),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal tables: %d\n", len(infos))
	return nil
}

func runCleanTables(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	fsStore, err := store.NewFSStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to create table store: %w", err)
	}

	infos, err := fsStore.ListTables()
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No tables to clean.")
		return nil
	}

	toDelete := selectTablesForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Println("No tables match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d table(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (%s, %s)\n",
			shortID(info.ID),
			info.Backend,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := fsStore.DeleteTable(info.ID); err != nil {
			slog.Error("Failed to delete table", "id", info.ID, "error", err)
			failed++
		} else {
			slog.Info("Deleted table", "id", info.ID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d table(s), %d failed.\n", deleted, failed)
	return nil
}

// selectTablesForDeletion applies the retention policy: everything older
// than olderThanDays, plus the oldest records beyond the newest keepLast.
// The result is ordered oldest first and holds each record once.
func selectTablesForDeletion(infos []store.TableInfo, keepLast, olderThanDays int, now time.Time) []store.TableInfo {
	sorted := make([]store.TableInfo, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	excess := 0
	if keepLast > 0 && len(sorted) > keepLast {
		excess = len(sorted) - keepLast
	}

	var cutoff time.Time
	if olderThanDays > 0 {
		cutoff = now.AddDate(0, 0, -olderThanDays)
	}

	var toDelete []store.TableInfo
	for i, info := range sorted {
		if i < excess || (olderThanDays > 0 && info.Timestamp.Before(cutoff)) {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
