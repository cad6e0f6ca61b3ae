package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"seadrift/internal/archive"
)

const (
	defaultStatsRange = 24 * time.Hour
	maxStatsRange     = 366 * 24 * time.Hour
)

type ArchiveQuerier interface {
	Stats(ctx context.Context, from, to time.Time) (archive.Stats, error)
}

type ArchiveHandler struct {
	archive ArchiveQuerier
	logger  *slog.Logger
}

// NewArchiveHandler serves archive statistics. a may be nil when archiving
// is disabled.
func NewArchiveHandler(a ArchiveQuerier, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{archive: a, logger: logger.With("component", "archive_handler")}
}

// GetStats aggregates archived assessments between from and to (RFC 3339).
// to defaults to now and from to 24 hours before to. Ranges wider than a
// year are rejected.
func (h *ArchiveHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "archive disabled")
		return
	}

	to := time.Now().UTC()
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to parameter: expected RFC 3339")
			return
		}
		to = t
	}
	from := to.Add(-defaultStatsRange)
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from parameter: expected RFC 3339")
			return
		}
		from = t
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "from must not be after to")
		return
	}
	if to.Sub(from) > maxStatsRange {
		respondError(w, http.StatusBadRequest, "range must not exceed 366 days")
		return
	}

	stats, err := h.archive.Stats(r.Context(), from, to)
	if err != nil {
		h.logger.Error("archive stats failed", "error", err)
		respondError(w, http.StatusInternalServerError, "archive query failed")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
