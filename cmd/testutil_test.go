package main

import (
	"testing"

	"github.com/cwbudde/etc1dxt/internal/config"
	"github.com/cwbudde/etc1dxt/internal/table"
)

// useTestConfig installs a small single-combination layout with its own data
// directory for the duration of the test.
func useTestConfig(t *testing.T, backend string) *config.Config {
	t.Helper()

	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = &config.Config{
		Backend:  backend,
		Workers:  2,
		DataDir:  t.TempDir(),
		Ranges:   []table.SelectorRange{{Low: 0, High: 3}},
		Mappings: []table.SelectorMapping{{0, 0, 1, 1}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return cfg
}

// setFlag assigns a package-level flag variable and restores it after the test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	saved := *p
	*p = v
	t.Cleanup(func() { *p = saved })
}
