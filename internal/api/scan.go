package api

import (
	"log/slog"
	"net/http"
	"time"

	"go.propserve.dev/internal/scanner"
)

// ScanHandler exposes an on-demand violation scan, bypassing the scheduler.
// Dedupe in the delivery log makes a manual trigger safe alongside the
// scheduled scans.
type ScanHandler struct {
	scanner *scanner.Scanner
}

// NewScanHandler creates a new scan handler
func NewScanHandler(s *scanner.Scanner) *ScanHandler {
	return &ScanHandler{scanner: s}
}

// Trigger handles POST /api/scan
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.Scan(r.Context(), time.Now())
	if err != nil {
		slog.Error("Manual scan failed", "error", err)
		WriteInternalError(w, "scan failed")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
