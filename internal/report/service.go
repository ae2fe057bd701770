package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/metrics"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/ratelimit"
	"github.com/rajasatyajit/StatusWatch/pkg/utils"
)

// Stored field caps after sanitizing.
const (
	maxServiceName = 100
	maxDescription = 1000
	maxStatus      = 50

	defaultLimit = 100
	maxLimit     = 500
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Store persists reports.
type Store interface {
	InsertReport(ctx context.Context, r models.UserReport) error
	Recent(ctx context.Context, q models.ReportQuery) ([]models.UserReport, error)
}

// Config controls submission limits and listing defaults.
type Config struct {
	RateWindow   time.Duration
	RecentWindow time.Duration
}

// Service accepts and lists user reports.
type Service struct {
	store   Store
	limiter ratelimit.Limiter
	cfg     Config
	now     func() time.Time
}

// NewService creates a report service. A nil limiter disables rate limiting.
func NewService(store Store, limiter ratelimit.Limiter, cfg Config) *Service {
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Hour
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 24 * time.Hour
	}
	return &Service{
		store:   store,
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Submit validates, sanitizes, rate limits and stores one report. clientID
// identifies the submitter (usually the client IP) and is only kept as a
// fingerprint.
func (s *Service) Submit(ctx context.Context, clientID string, sub models.ReportSubmission) (models.ReportReceipt, error) {
	sub.ServiceName = strings.TrimSpace(sub.ServiceName)
	sub.Description = strings.TrimSpace(sub.Description)
	sub.UserEmail = strings.TrimSpace(sub.UserEmail)
	sub.Status = strings.TrimSpace(sub.Status)

	if err := validateSubmission(sub); err != nil {
		metrics.RecordReportSubmission("invalid")
		return models.ReportReceipt{}, err
	}

	r := models.UserReport{
		ServiceName: utils.SanitizeText(sub.ServiceName, maxServiceName),
		Description: utils.SanitizeText(sub.Description, maxDescription),
		UserEmail:   sub.UserEmail,
		Status:      utils.SanitizeText(sub.Status, maxStatus),
		Metadata:    sub.Metadata,
		ClientHash:  utils.Fingerprint(clientID),
	}
	if r.ServiceName == "" {
		metrics.RecordReportSubmission("invalid")
		return models.ReportReceipt{}, apperrors.ValidationError{Field: "service_name", Message: "is required"}
	}
	if r.Description == "" {
		metrics.RecordReportSubmission("invalid")
		return models.ReportReceipt{}, apperrors.ValidationError{Field: "description", Message: "is required"}
	}

	if err := s.checkRate(ctx, r); err != nil {
		metrics.RecordReportSubmission("rate_limited")
		return models.ReportReceipt{}, err
	}

	r.ID = uuid.NewString()
	r.ReportedAt = s.now().UTC()

	if err := s.store.InsertReport(ctx, r); err != nil {
		metrics.RecordReportSubmission("error")
		return models.ReportReceipt{}, apperrors.DatabaseError{Operation: "insert report", Err: err}
	}

	metrics.RecordReportSubmission("accepted")
	logger.WithContext(ctx).Info("Report submitted",
		"report_id", r.ID,
		"service", r.ServiceName,
	)

	return models.ReportReceipt{ID: r.ID, ReportedAt: r.ReportedAt}, nil
}

// Recent lists reports. A zero Since means the recent window; Limit is
// defaulted and capped.
func (s *Service) Recent(ctx context.Context, q models.ReportQuery) ([]models.UserReport, error) {
	if q.Since.IsZero() {
		q.Since = s.now().Add(-s.cfg.RecentWindow)
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.ServiceName = strings.TrimSpace(q.ServiceName)

	reports, err := s.store.Recent(ctx, q)
	if err != nil {
		return nil, apperrors.DatabaseError{Operation: "list reports", Err: err}
	}
	return reports, nil
}

// checkRate allows one submission per client and service within the rate
// window. Limiter failures are logged and the submission is let through.
func (s *Service) checkRate(ctx context.Context, r models.UserReport) error {
	if s.limiter == nil {
		return nil
	}
	key := "report:" + r.ClientHash + "|" + strings.ToLower(r.ServiceName)

	d, err := s.limiter.Allow(ctx, key, 1, s.cfg.RateWindow)
	if err != nil {
		logger.WithContext(ctx).Warn("Report rate limiter unavailable", "error", err)
		return nil
	}
	if !d.Allowed {
		return apperrors.RateLimitError{Key: key, RetryAfter: d.RetryAfter}
	}
	return nil
}

func validateSubmission(sub models.ReportSubmission) error {
	if err := validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.ValidationError{Field: fe.Field(), Message: message(fe)}
		}
		return fmt.Errorf("validate report: %w", err)
	}
	if len(sub.Metadata) > 0 && !json.Valid(sub.Metadata) {
		return apperrors.ValidationError{Field: "metadata", Message: "must be valid JSON"}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
