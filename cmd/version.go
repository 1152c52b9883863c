package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cwbudde/etc1dxt/internal/simd"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("etc1dxt version %s (%s/%s, backend %s, cpu %s)\n", version, runtime.GOOS, runtime.GOARCH, simd.ActiveBackend, simd.CPUBackend)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
