package models

import (
	"encoding/json"
	"strings"
	"time"
)

// UserReport is a user-submitted problem report.
type UserReport struct {
	ID          string          `json:"id" db:"id"`
	ServiceName string          `json:"service_name" db:"service_name"`
	Description string          `json:"description" db:"description"`
	UserEmail   string          `json:"user_email,omitempty" db:"user_email"`
	Status      string          `json:"status,omitempty" db:"status"`
	Metadata    json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	ClientHash  string          `json:"-" db:"client_hash"`
	ReportedAt  time.Time       `json:"reported_at" db:"reported_at"`
}

// ReportSubmission is the payload accepted from clients.
type ReportSubmission struct {
	ServiceName string          `json:"service_name" validate:"required,max=200"`
	Description string          `json:"description" validate:"required,max=5000"`
	UserEmail   string          `json:"user_email,omitempty" validate:"omitempty,email,max=254"`
	Status      string          `json:"status,omitempty" validate:"omitempty,max=200"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// ReportReceipt is returned after a successful submission.
type ReportReceipt struct {
	ID         string    `json:"id"`
	ReportedAt time.Time `json:"reported_at"`
}

// ReportQuery filters stored reports.
type ReportQuery struct {
	ServiceName string    `json:"service_name"`
	Since       time.Time `json:"since"`
	Limit       int       `json:"limit"`
}

// Matches checks if a report matches the query criteria
func (q ReportQuery) Matches(r UserReport) bool {
	if q.ServiceName != "" && !strings.EqualFold(q.ServiceName, r.ServiceName) {
		return false
	}
	if !q.Since.IsZero() && r.ReportedAt.Before(q.Since) {
		return false
	}
	return true
}
