package models

import (
	"strings"
	"time"
)

// Provider identifies a status feed source. Anything outside the built-in set
// is a custom provider.
type Provider string

const (
	ProviderCloudflare Provider = "cloudflare"
	ProviderOkta       Provider = "okta"
	ProviderZscaler    Provider = "zscaler"
	ProviderSendGrid   Provider = "sendgrid"
	ProviderSlack      Provider = "slack"
	ProviderDatadog    Provider = "datadog"
	ProviderAWS        Provider = "aws"
)

// BuiltinProviders lists the providers shipped with the default catalog.
var BuiltinProviders = []Provider{
	ProviderCloudflare,
	ProviderOkta,
	ProviderZscaler,
	ProviderSendGrid,
	ProviderSlack,
	ProviderDatadog,
	ProviderAWS,
}

// IsBuiltin reports whether p is one of the built-in providers.
func (p Provider) IsBuiltin() bool {
	for _, b := range BuiltinProviders {
		if p == b {
			return true
		}
	}
	return false
}

// NormalizeProvider lower-cases and trims a provider name.
func NormalizeProvider(s string) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(s)))
}

type EventType string

const (
	EventIncident    EventType = "incident"
	EventResolved    EventType = "resolved"
	EventMaintenance EventType = "maintenance"
	EventDegradation EventType = "degradation"
	EventOutage      EventType = "outage"
	EventUpdate      EventType = "update"
)

func (e EventType) Valid() bool {
	switch e {
	case EventIncident, EventResolved, EventMaintenance, EventDegradation, EventOutage, EventUpdate:
		return true
	}
	return false
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityInfo     Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor, SeverityInfo:
		return true
	}
	return false
}

// IncidentSource tells feed-derived incidents apart from user reports.
type IncidentSource string

const (
	SourceFeed       IncidentSource = "feed"
	SourceUserReport IncidentSource = "user_report"
)

// RawFeedItem is one entry extracted from a feed before normalization.
// PublishedAt is the raw date string and may be empty or unparseable.
type RawFeedItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at"`
	Description string `json:"description"`
}

// NormalizedIncident is the canonical status event served by the API.
type NormalizedIncident struct {
	ID              string         `json:"id"`
	Provider        Provider       `json:"provider"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	ReportedAt      time.Time      `json:"reported_at"`
	Link            string         `json:"link,omitempty"`
	EventType       EventType      `json:"event_type"`
	Severity        Severity       `json:"severity"`
	Confidence      int            `json:"confidence"`
	DateParseFailed bool           `json:"date_parse_failed,omitempty"`
	Source          IncidentSource `json:"source"`
	FetchedAt       time.Time      `json:"fetched_at"`
}

type ServiceStatus string

const (
	StatusOperational ServiceStatus = "Operational"
	StatusDegraded    ServiceStatus = "Degraded Performance"
	StatusMaintenance ServiceStatus = "Under Maintenance"
	StatusIssues      ServiceStatus = "Issues Detected"
)

// Rank orders statuses from healthy to unhealthy.
func (s ServiceStatus) Rank() int {
	switch s {
	case StatusIssues:
		return 3
	case StatusDegraded:
		return 2
	case StatusMaintenance:
		return 1
	}
	return 0
}

// ServiceStatusSummary is the per-provider rollup of recent incidents.
type ServiceStatusSummary struct {
	Provider       Provider      `json:"provider"`
	Name           string        `json:"name"`
	Status         ServiceStatus `json:"status"`
	IncidentCount  int           `json:"incident_count"`
	LastIncidentAt *time.Time    `json:"last_incident_at,omitempty"`
	CheckedAt      time.Time     `json:"checked_at"`

	// FetchFailed marks a summary whose feed could not be read this pass.
	// Its status is a placeholder, not an observation.
	FetchFailed bool `json:"-"`
}

// Snapshot is the result of one aggregation pass.
type Snapshot struct {
	Summaries   []ServiceStatusSummary `json:"summaries"`
	Incidents   []NormalizedIncident   `json:"incidents"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Summary returns the summary for p, if present.
func (s Snapshot) Summary(p Provider) (ServiceStatusSummary, bool) {
	for _, sum := range s.Summaries {
		if sum.Provider == p {
			return sum, true
		}
	}
	return ServiceStatusSummary{}, false
}

// IncidentQuery represents query parameters for filtering incidents
type IncidentQuery struct {
	Providers  []Provider  `json:"providers"`
	Severities []Severity  `json:"severities"`
	EventTypes []EventType `json:"event_types"`
	Since      time.Time   `json:"since"`
	Limit      int         `json:"limit"`
}

// Matches checks if an incident matches the query criteria
func (q IncidentQuery) Matches(inc NormalizedIncident) bool {
	if len(q.Providers) > 0 && !contains(q.Providers, inc.Provider) {
		return false
	}
	if len(q.Severities) > 0 && !contains(q.Severities, inc.Severity) {
		return false
	}
	if len(q.EventTypes) > 0 && !contains(q.EventTypes, inc.EventType) {
		return false
	}
	if !q.Since.IsZero() && inc.ReportedAt.Before(q.Since) {
		return false
	}
	return true
}

// Filter applies the query to incidents, preserving order.
func (q IncidentQuery) Filter(incidents []NormalizedIncident) []NormalizedIncident {
	out := make([]NormalizedIncident, 0, len(incidents))
	for _, inc := range incidents {
		if !q.Matches(inc) {
			continue
		}
		out = append(out, inc)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

func contains[T comparable](slice []T, item T) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
