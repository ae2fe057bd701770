package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/geoscope"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/severity"
)

const maxAnalyzeText = 10000

// CustomFeedRequest registers a user-supplied feed.
type CustomFeedRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// CustomFeedResponse is the evaluated feed.
type CustomFeedResponse struct {
	Provider  models.Provider             `json:"provider"`
	Name      string                      `json:"name"`
	URL       string                      `json:"url"`
	Incidents []models.NormalizedIncident `json:"incidents"`
}

// AnalyzeRequest is free text to score.
type AnalyzeRequest struct {
	Text            string          `json:"text"`
	Service         models.Provider `json:"service,omitempty"`
	Timestamp       *time.Time      `json:"timestamp,omitempty"`
	GeographicScope geoscope.Scope  `json:"geographic_scope,omitempty"`
	UserReports     int             `json:"user_reports,omitempty"`
}

// AnalyzeResponse pairs the classification with the severity analysis.
type AnalyzeResponse struct {
	EventType models.EventType  `json:"event_type"`
	Analysis  severity.Analysis `json:"analysis"`
}

// registerFeedHandler handles POST /v1/feeds/custom
func (h *Handler) registerFeedHandler(w http.ResponseWriter, r *http.Request) {
	if h.agg == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "aggregator not configured")
		return
	}

	var req CustomFeedRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	u, err := validateFeedURL(req.URL)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, ErrorResponse{Message: err.Error(), Field: "url"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = u.Hostname()
	}

	src := h.agg.NewCustomSource(name, u.String())
	incidents, err := h.agg.Evaluate(r.Context(), src)
	if err != nil {
		logger.WithContext(r.Context()).Warn("Custom feed evaluation failed", "url", u.String(), "error", err)
		var perr apperrors.ParseError
		if errors.As(err, &perr) {
			h.writeErrorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeErrorResponse(w, r, http.StatusBadGateway, err.Error())
		return
	}
	h.agg.Register(src)

	h.writeJSONResponse(w, http.StatusCreated, CustomFeedResponse{
		Provider:  src.Provider(),
		Name:      src.Name(),
		URL:       src.URL(),
		Incidents: incidents,
	})
}

// analyzeHandler handles POST /v1/analyze
func (h *Handler) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.writeError(w, r, http.StatusBadRequest, ErrorResponse{Message: "text is required", Field: "text"})
		return
	}
	if len(text) > maxAnalyzeText {
		h.writeError(w, r, http.StatusBadRequest, ErrorResponse{Message: "text is too long", Field: "text"})
		return
	}
	if req.GeographicScope != "" && !req.GeographicScope.Valid() {
		h.writeError(w, r, http.StatusBadRequest, ErrorResponse{Message: "must be global, regional or local", Field: "geographic_scope"})
		return
	}

	in := severity.Context{
		Service:         models.NormalizeProvider(string(req.Service)),
		GeographicScope: req.GeographicScope,
		UserReports:     req.UserReports,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	h.writeJSONResponse(w, http.StatusOK, AnalyzeResponse{
		EventType: h.classifier.Classify(text, ""),
		Analysis:  h.analyzer.Analyze(text, in),
	})
}

func validateFeedURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New("url is not valid")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("url must use http or https")
	}
	if u.Host == "" {
		return nil, errors.New("url must be absolute")
	}
	return u, nil
}
