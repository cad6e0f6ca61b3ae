package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"seadrift/internal/assess"
	"seadrift/internal/domain"
	"seadrift/internal/store"
)

// maxBodyBytes caps request bodies on the JSON endpoints
const maxBodyBytes = 1 << 20

type Tracker interface {
	Track(ctx context.Context, inc domain.Incident) (*domain.TrackedIncident, error)
	Untrack(ctx context.Context, id string) error
}

// LatestSource returns the last published assessment of an incident,
// possibly one tracked by another replica.
type LatestSource interface {
	Latest(ctx context.Context, id string) (*domain.Assessment, bool, error)
}

// HTTPHandler serves the tracked-incident endpoints
type HTTPHandler struct {
	store   *store.Store
	tracker Tracker
	latest  LatestSource
}

func NewHTTPHandler(s *store.Store, t Tracker) *HTTPHandler {
	return &HTTPHandler{store: s, tracker: t}
}

// WithLatest makes GetIncident fall back to l for incidents this process
// does not track. A nil l disables the fallback.
func (h *HTTPHandler) WithLatest(l LatestSource) *HTTPHandler {
	h.latest = l
	return h
}

type IncidentsResponse struct {
	Incidents  []*domain.TrackedIncident `json:"incidents"`
	Count      int                       `json:"count"`
	ServerTime time.Time                 `json:"serverTime"`
}

func (h *HTTPHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{}

	if modeStr := r.URL.Query().Get("mode"); modeStr != "" {
		mode := domain.LocationMode(modeStr)
		if mode != domain.ModeInland && mode != domain.ModeMarine {
			respondError(w, http.StatusBadRequest, "invalid mode parameter: must be inland or marine")
			return
		}
		opts.Mode = &mode
	}

	if bboxStr := r.URL.Query().Get("bbox"); bboxStr != "" {
		parts := strings.Split(bboxStr, ",")
		if len(parts) != 4 {
			respondError(w, http.StatusBadRequest, "invalid bbox format: expected minLat,minLng,maxLat,maxLng")
			return
		}
		bbox, err := parseBBox(parts)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid bbox values: "+err.Error())
			return
		}
		opts.BBox = bbox
	}

	incidents := h.store.List(opts)

	respondJSON(w, http.StatusOK, IncidentsResponse{
		Incidents:  incidents,
		Count:      len(incidents),
		ServerTime: time.Now(),
	})
}

func (h *HTTPHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing incident id")
		return
	}

	if incident, ok := h.store.Get(id); ok {
		respondJSON(w, http.StatusOK, incident)
		return
	}

	if h.latest != nil {
		a, found, err := h.latest.Latest(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusBadGateway, "assessment cache unavailable")
			return
		}
		if found {
			w.Header().Set("X-Seadrift-Source", "cache")
			respondJSON(w, http.StatusOK, &domain.TrackedIncident{
				Incident:  a.Incident,
				Mode:      a.Mode,
				Latest:    a,
				UpdatedAt: a.ComputedAt,
			})
			return
		}
	}

	respondError(w, http.StatusNotFound, "incident not found")
}

func (h *HTTPHandler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var inc domain.Incident
	if err := decodeJSON(w, r, &inc); err != nil {
		respondDecodeError(w, err)
		return
	}

	tracked, err := h.tracker.Track(r.Context(), inc)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/incidents/"+tracked.Incident.ID)
	respondJSON(w, http.StatusCreated, tracked)
}

func (h *HTTPHandler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing incident id")
		return
	}

	if err := h.tracker.Untrack(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseBBox(parts []string) (*domain.BoundingBox, error) {
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	bb := &domain.BoundingBox{
		MinLat: vals[0], MinLng: vals[1],
		MaxLat: vals[2], MaxLng: vals[3],
	}
	if bb.MinLat > bb.MaxLat || bb.MinLng > bb.MaxLng {
		return nil, errors.New("min must not exceed max")
	}
	return bb, nil
}

func parseCoordinate(r *http.Request) (domain.Coordinate, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("invalid lat parameter: %w", err)
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("invalid lng parameter: %w", err)
	}
	return domain.Coordinate{Lat: lat, Lng: lng}, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

// respondDomainError maps sentinel errors from the core and the store to
// HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assess.ErrInvalidCoordinate),
		errors.Is(err, assess.ErrNegativeElapsed),
		errors.Is(err, assess.ErrElapsedTooLarge),
		errors.Is(err, domain.ErrUnknownProfile):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrExists):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
