package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

const maxIncidentLimit = 1000

// ProviderInfo describes one polled source.
type ProviderInfo struct {
	ID     models.Provider `json:"id"`
	Name   string          `json:"name"`
	URL    string          `json:"url,omitempty"`
	Custom bool            `json:"custom"`
}

// statusHandler handles GET /v1/status
func (h *Handler) statusHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	h.writeJSONResponse(w, http.StatusOK, snap)
}

// incidentsHandler handles GET /v1/incidents
func (h *Handler) incidentsHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseIncidentQuery(r)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	incidents := q.Filter(snap.Incidents)

	response := map[string]interface{}{
		"data":         incidents,
		"count":        len(incidents),
		"generated_at": snap.GeneratedAt,
		"timestamp":    time.Now().UTC(),
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	h.writeJSONResponse(w, http.StatusOK, response)
}

// providerStatusHandler handles GET /v1/providers/{provider}/status
func (h *Handler) providerStatusHandler(w http.ResponseWriter, r *http.Request) {
	provider := models.NormalizeProvider(chi.URLParam(r, "provider"))
	if provider == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "provider is required")
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	summary, err := lookupProvider(snap, provider)
	if errors.Is(err, apperrors.ErrUnknownProvider) {
		h.writeErrorResponse(w, r, http.StatusNotFound, err.Error())
		return
	}

	incidents := models.IncidentQuery{Providers: []models.Provider{provider}}.Filter(snap.Incidents)

	response := map[string]interface{}{
		"summary":   summary,
		"incidents": incidents,
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	h.writeJSONResponse(w, http.StatusOK, response)
}

func lookupProvider(snap models.Snapshot, provider models.Provider) (models.ServiceStatusSummary, error) {
	summary, ok := snap.Summary(provider)
	if !ok {
		return models.ServiceStatusSummary{}, fmt.Errorf("%w %q", apperrors.ErrUnknownProvider, provider)
	}
	return summary, nil
}

// providersHandler handles GET /v1/providers
func (h *Handler) providersHandler(w http.ResponseWriter, r *http.Request) {
	var out []ProviderInfo
	if h.agg != nil {
		for _, src := range h.agg.Sources() {
			info := ProviderInfo{
				ID:     src.Provider(),
				Name:   src.Name(),
				Custom: !src.Provider().IsBuiltin(),
			}
			if u, ok := src.(interface{ URL() string }); ok {
				info.URL = u.URL()
			}
			out = append(out, info)
		}
	}
	if out == nil {
		out = []ProviderInfo{}
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"data":  out,
		"count": len(out),
	})
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (models.Snapshot, bool) {
	snap, err := h.status.Current(r.Context())
	if err != nil {
		logger.WithContext(r.Context()).Error("Failed to load status snapshot", "error", err)
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "status temporarily unavailable")
		return models.Snapshot{}, false
	}
	if snap.Summaries == nil {
		snap.Summaries = []models.ServiceStatusSummary{}
	}
	if snap.Incidents == nil {
		snap.Incidents = []models.NormalizedIncident{}
	}
	return snap, true
}

// parseIncidentQuery parses query parameters into IncidentQuery. Repeated
// parameters and comma separated values are both accepted.
func parseIncidentQuery(r *http.Request) (models.IncidentQuery, error) {
	q := models.IncidentQuery{}
	values := r.URL.Query()

	if limitStr := values.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return q, fmt.Errorf("invalid limit: %s", limitStr)
		}
		if limit < 0 || limit > maxIncidentLimit {
			return q, fmt.Errorf("limit must be between 0 and %d", maxIncidentLimit)
		}
		q.Limit = limit
	}

	if sinceStr := values.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return q, fmt.Errorf("invalid since format: %s", sinceStr)
		}
		q.Since = since
	}

	for _, p := range splitList(values["provider"]) {
		q.Providers = append(q.Providers, models.NormalizeProvider(p))
	}

	for _, s := range splitList(values["severity"]) {
		sev := models.Severity(strings.ToLower(s))
		if !sev.Valid() {
			return q, fmt.Errorf("invalid severity: %s", s)
		}
		q.Severities = append(q.Severities, sev)
	}

	for _, e := range splitList(values["event_type"]) {
		et := models.EventType(strings.ToLower(e))
		if !et.Valid() {
			return q, fmt.Errorf("invalid event_type: %s", e)
		}
		q.EventTypes = append(q.EventTypes, et)
	}

	return q, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
