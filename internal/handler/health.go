package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"seadrift/internal/store"
)

type ReadinessProbe interface {
	IsReady() bool
}

// Pinger checks that a backing service answers
type Pinger interface {
	Ping(ctx context.Context) error
}

const cachePingTimeout = 2 * time.Second

type HealthHandler struct {
	probe ReadinessProbe
	store *store.Store
	cache Pinger
}

func NewHealthHandler(probe ReadinessProbe, s *store.Store) *HealthHandler {
	return &HealthHandler{
		probe: probe,
		store: s,
	}
}

// WithCache makes readiness depend on the cache answering a ping. A nil p
// leaves readiness to the tracker alone.
func (h *HealthHandler) WithCache(p Pinger) *HealthHandler {
	h.cache = p
	return h
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready         bool      `json:"ready"`
	Cache         string    `json:"cache,omitempty"`
	IncidentCount int       `json:"incidentCount"`
	ServerTime    time.Time `json:"serverTime"`
}

// Readyz reports 503 until the tracker has finished its first recompute,
// and while a configured cache does not answer.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.probe.IsReady()
	var cacheStatus string
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), cachePingTimeout)
		err := h.cache.Ping(ctx)
		cancel()
		cacheStatus = "ok"
		if err != nil {
			cacheStatus = "unreachable"
			ready = false
		}
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:         ready,
		Cache:         cacheStatus,
		IncidentCount: h.store.Count(),
		ServerTime:    time.Now(),
	})
}
