package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/etc1dxt/internal/config"
	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/table"
)

var (
	logLevel    string
	configPath  string
	backendName string
	dataDir     string
	logger      *slog.Logger

	// cfg is the effective configuration: file values with flags applied.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "etc1dxt",
	Short: "Generate the ETC1 to DXT1 green re-encoding table",
	Long: `etc1dxt builds the lookup table that maps every ETC1 differential
sub-block green, intensity and selector pattern to the 6-bit DXT1 endpoint
pair with the lowest squared error, using a vector search with scalar,
128-bit and 256-bit lane backends.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(logLevel)
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (selector tables, backend, workers, data dir)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "auto", "Vector backend: auto, scalar, v128, v256")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory for stored tables and bench traces")
}

func setupLogger(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: l}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// loadConfig reads --config when given and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) error {
	c := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		c = loaded
		slog.Debug("Loaded config", "path", configPath, "ranges", len(c.Ranges), "mappings", len(c.Mappings))
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		c.Backend = backendName
	}
	if flags.Changed("data-dir") {
		c.DataDir = dataDir
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	return nil
}

// resolveWorkers prefers a command's --workers flag over the config value.
func resolveWorkers(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return cfg.Workers
}

// signalContext is cancelled on interrupt so long builds stop between rows.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// generateTable builds a full table on the worker pool and times it.
func generateTable(ctx context.Context, layout table.Layout, backend simd.Backend, workers int) ([]table.Solution, time.Duration, error) {
	dst := make([]table.Solution, layout.Len())
	start := time.Now()
	if err := table.BuildParallel(ctx, dst, layout, backend, workers); err != nil {
		return nil, 0, fmt.Errorf("failed to build table: %w", err)
	}
	return dst, time.Since(start), nil
}
