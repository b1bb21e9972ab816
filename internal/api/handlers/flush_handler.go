package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"slugr/internal/engine/visits"
	"slugr/internal/pkg/httperr"
)

// FlushHandler lets an external scheduler trigger a visit flush over HTTP.
// Each request is one bounded flusher run.
type FlushHandler struct {
	flusher    *visits.Flusher
	runTimeout time.Duration
}

func NewFlushHandler(flusher *visits.Flusher, runTimeout time.Duration) *FlushHandler {
	if runTimeout <= 0 {
		runTimeout = 50 * time.Second
	}
	return &FlushHandler{flusher: flusher, runTimeout: runTimeout}
}

func (h *FlushHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	report, err := h.flusher.Run(ctx)
	if err != nil {
		httperr.Write(w, http.StatusServiceUnavailable, httperr.CodeUnavailable, "Flush failed: "+err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
