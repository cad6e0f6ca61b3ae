package handler

import (
	"log/slog"
	"net/http"
	"time"

	"seadrift/internal/assess"
	"seadrift/internal/domain"
)

// AssessHandler serves one-shot assessments that are not tracked
type AssessHandler struct {
	assessor *assess.Assessor
	logger   *slog.Logger
}

func NewAssessHandler(a *assess.Assessor, logger *slog.Logger) *AssessHandler {
	return &AssessHandler{assessor: a, logger: logger.With("component", "assess_handler")}
}

// AssessRequest is the body of POST /v1/assess. Wind and current are
// optional on-scene observations.
type AssessRequest struct {
	domain.Incident
	Wind    *domain.WindVector    `json:"wind,omitempty"`
	Current *domain.CurrentVector `json:"current,omitempty"`
}

func (h *AssessHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	start := time.Now()
	result, err := h.assessor.Assess(r.Context(), assess.Request{
		Incident: req.Incident,
		Wind:     req.Wind,
		Current:  req.Current,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.logger.Debug("assessment computed",
		"mode", result.Mode,
		"radius_nm", result.SearchArea.RadiusNm,
		"fallback_weather", result.Weather.Fallback,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	respondJSON(w, http.StatusOK, result)
}

type ConditionsResponse struct {
	Position   domain.Coordinate    `json:"position"`
	Weather    domain.Weather       `json:"weather"`
	Current    domain.CurrentVector `json:"current"`
	Conditions domain.Conditions    `json:"conditions"`
}

func (h *AssessHandler) Conditions(w http.ResponseWriter, r *http.Request) {
	pos, err := parseCoordinate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	weather, current, cond, err := h.assessor.Conditions(r.Context(), pos)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ConditionsResponse{
		Position:   pos,
		Weather:    weather,
		Current:    current,
		Conditions: cond,
	})
}

type ProfileResponse struct {
	Name          domain.DriftProfile `json:"name"`
	Description   string              `json:"description"`
	CurrentFactor float64             `json:"currentFactor"`
	WindFactor    float64             `json:"windFactor"`
}

func (h *AssessHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	engine := h.assessor.Engine()
	profiles := make([]ProfileResponse, 0, len(domain.Profiles))
	for _, p := range domain.Profiles {
		l := engine.Leeway(p)
		profiles = append(profiles, ProfileResponse{
			Name:          p,
			Description:   l.Description,
			CurrentFactor: l.CurrentFactor,
			WindFactor:    l.WindFactor,
		})
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	respondJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}
