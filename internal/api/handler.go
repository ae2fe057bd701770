package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rajasatyajit/StatusWatch/internal/classifier"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	middlewares "github.com/rajasatyajit/StatusWatch/internal/middleware"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/pipeline"
	"github.com/rajasatyajit/StatusWatch/internal/severity"
)

const maxBodyBytes = 64 << 10

// StatusSource serves the latest aggregation snapshot.
type StatusSource interface {
	Current(ctx context.Context) (models.Snapshot, error)
}

// ReportService accepts and lists user reports.
type ReportService interface {
	Submit(ctx context.Context, clientID string, sub models.ReportSubmission) (models.ReportReceipt, error)
	Recent(ctx context.Context, q models.ReportQuery) ([]models.UserReport, error)
}

// Cleaner deletes expired reports on demand.
type Cleaner interface {
	RunOnce(ctx context.Context) (int64, error)
	Retention() time.Duration
}

// HealthChecker reports backing store health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps wires the handler to the rest of the service.
type Deps struct {
	Status     StatusSource
	Aggregator *pipeline.Aggregator
	Reports    ReportService
	Cleaner    Cleaner
	Store      HealthChecker
	Analyzer   *severity.Analyzer
}

// Handler handles HTTP requests for the API
type Handler struct {
	status      StatusSource
	agg         *pipeline.Aggregator
	reports     ReportService
	cleaner     Cleaner
	store       HealthChecker
	analyzer    *severity.Analyzer
	classifier  *classifier.Classifier
	version     string
	buildTime   string
	gitCommit   string
	startTime   time.Time
	adminSecret string
}

// NewHandler creates a new API handler
func NewHandler(deps Deps, adminSecret, version, buildTime, gitCommit string) *Handler {
	analyzer := deps.Analyzer
	if analyzer == nil {
		analyzer = severity.New()
	}
	return &Handler{
		status:      deps.Status,
		agg:         deps.Aggregator,
		reports:     deps.Reports,
		cleaner:     deps.Cleaner,
		store:       deps.Store,
		analyzer:    analyzer,
		classifier:  classifier.New(),
		version:     version,
		buildTime:   buildTime,
		gitCommit:   gitCommit,
		startTime:   time.Now(),
		adminSecret: adminSecret,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		// Health check endpoints
		r.Get("/health", h.healthHandler)
		r.Get("/health/ready", h.readinessHandler)
		r.Get("/health/live", h.livenessHandler)

		// Status endpoints
		r.Get("/status", h.statusHandler)
		r.Get("/incidents", h.incidentsHandler)
		r.Get("/providers", h.providersHandler)
		r.Get("/providers/{provider}/status", h.providerStatusHandler)

		// User reports
		r.Post("/reports", h.submitReportHandler)
		r.Get("/reports", h.listReportsHandler)

		// Custom feeds and ad-hoc analysis
		r.Post("/feeds/custom", h.registerFeedHandler)
		r.Post("/analyze", h.analyzeHandler)

		// System info
		r.Get("/version", h.versionHandler)

		// Admin routes (protected by shared secret middleware)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.AdminSecret(h.adminSecret))
			r.Post("/cleanup", h.cleanupHandler)
		})
	})

	// Root health check
	r.Get("/health", h.healthHandler)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// readinessHandler checks if the application is ready to serve traffic
func (h *Handler) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{
		"store": "ok",
	}

	statusCode := http.StatusOK

	if h.store != nil {
		if err := h.store.Health(ctx); err != nil {
			checks["store"] = "error: " + err.Error()
			statusCode = http.StatusServiceUnavailable
		}
	}

	response := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	}
	if statusCode != http.StatusOK {
		response["status"] = "not ready"
	}

	h.writeJSONResponse(w, statusCode, response)
}

// livenessHandler checks if the application is alive
func (h *Handler) livenessHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// decodeJSON reads a size-limited JSON body into v.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	h.writeError(w, r, statusCode, ErrorResponse{Message: message})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, statusCode int, resp ErrorResponse) {
	resp.Error = http.StatusText(statusCode)
	resp.Timestamp = time.Now().UTC()
	resp.RequestID = chimw.GetReqID(r.Context())
	if resp.RequestID == "" {
		resp.RequestID = r.Header.Get("X-Request-ID")
	}

	h.writeJSONResponse(w, statusCode, resp)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Field     string    `json:"field,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
