package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwbudde/etc1dxt/internal/table"
)

// summarize returns the sum and the maximum of the per-entry errors.
func summarize(solutions []table.Solution) (total uint64, maxErr uint16) {
	for _, s := range solutions {
		total += uint64(s.Err)
		if s.Err > maxErr {
			maxErr = s.Err
		}
	}
	return total, maxErr
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
