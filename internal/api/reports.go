package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	middlewares "github.com/rajasatyajit/StatusWatch/internal/middleware"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// submitReportHandler handles POST /v1/reports
func (h *Handler) submitReportHandler(w http.ResponseWriter, r *http.Request) {
	var sub models.ReportSubmission
	if !h.decodeJSON(w, r, &sub) {
		return
	}

	receipt, err := h.reports.Submit(r.Context(), middlewares.ClientIP(r), sub)
	if err != nil {
		h.writeReportError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, receipt)
}

// listReportsHandler handles GET /v1/reports
func (h *Handler) listReportsHandler(w http.ResponseWriter, r *http.Request) {
	q := models.ReportQuery{ServiceName: strings.TrimSpace(r.URL.Query().Get("service"))}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			h.writeErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("invalid since format: %s", sinceStr))
			return
		}
		q.Since = since
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			h.writeErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit: %s", limitStr))
			return
		}
		q.Limit = limit
	}

	reports, err := h.reports.Recent(r.Context(), q)
	if err != nil {
		logger.WithContext(r.Context()).Error("Failed to list reports", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"data":      reports,
		"count":     len(reports),
		"timestamp": time.Now().UTC(),
	})
}

// cleanupHandler handles POST /v1/admin/cleanup
func (h *Handler) cleanupHandler(w http.ResponseWriter, r *http.Request) {
	if h.cleaner == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "cleanup not configured")
		return
	}

	deleted, err := h.cleaner.RunOnce(r.Context())
	if err != nil {
		logger.WithContext(r.Context()).Error("Cleanup failed", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"deleted":   deleted,
		"retention": h.cleaner.Retention().String(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	var verr apperrors.ValidationError
	if errors.As(err, &verr) {
		h.writeError(w, r, http.StatusBadRequest, ErrorResponse{Message: verr.Message, Field: verr.Field})
		return
	}

	var rerr apperrors.RateLimitError
	if errors.As(err, &rerr) {
		w.Header().Set("Retry-After", middlewares.RetryAfterSeconds(rerr.RetryAfter))
		h.writeErrorResponse(w, r, http.StatusTooManyRequests, "one report per service per client is allowed in this window")
		return
	}

	logger.WithContext(r.Context()).Error("Failed to submit report", "error", err)
	h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
}
