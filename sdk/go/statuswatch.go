// Package sdk is a small client for the StatusWatch HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Client struct {
	BaseURL     string
	AdminSecret string
	HTTP        *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{BaseURL: baseURL, HTTP: http.DefaultClient}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Field      string `json:"field"`
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("statuswatch: %d: %s: %s", e.StatusCode, e.Field, e.Message)
	}
	return fmt.Sprintf("statuswatch: %d: %s", e.StatusCode, e.Message)
}

type Incident struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ReportedAt  time.Time `json:"reported_at"`
	Link        string    `json:"link,omitempty"`
	EventType   string    `json:"event_type"`
	Severity    string    `json:"severity"`
	Confidence  int       `json:"confidence"`
	Source      string    `json:"source"`
}

type Summary struct {
	Provider       string     `json:"provider"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	IncidentCount  int        `json:"incident_count"`
	LastIncidentAt *time.Time `json:"last_incident_at,omitempty"`
	CheckedAt      time.Time  `json:"checked_at"`
}

type Snapshot struct {
	Summaries   []Summary  `json:"summaries"`
	Incidents   []Incident `json:"incidents"`
	GeneratedAt time.Time  `json:"generated_at"`
}

type ProviderStatus struct {
	Summary   Summary    `json:"summary"`
	Incidents []Incident `json:"incidents"`
}

// IncidentFilter narrows Incidents. Zero values are omitted.
type IncidentFilter struct {
	Providers  []string
	Severities []string
	EventTypes []string
	Since      time.Time
	Limit      int
}

type Report struct {
	ServiceName string          `json:"service_name"`
	Description string          `json:"description"`
	UserEmail   string          `json:"user_email,omitempty"`
	Status      string          `json:"status,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type ReportReceipt struct {
	ID         string    `json:"id"`
	ReportedAt time.Time `json:"reported_at"`
}

type StoredReport struct {
	Report
	ID         string    `json:"id"`
	ReportedAt time.Time `json:"reported_at"`
}

type CustomFeed struct {
	Provider  string     `json:"provider"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Incidents []Incident `json:"incidents"`
}

func (c *Client) Status(ctx context.Context) (*Snapshot, error) {
	var out Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Incidents(ctx context.Context, f IncidentFilter) ([]Incident, error) {
	q := url.Values{}
	for _, p := range f.Providers {
		q.Add("provider", p)
	}
	for _, s := range f.Severities {
		q.Add("severity", s)
	}
	for _, e := range f.EventTypes {
		q.Add("event_type", e)
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var out struct {
		Data []Incident `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/incidents", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ProviderStatus(ctx context.Context, provider string) (*ProviderStatus, error) {
	var out ProviderStatus
	if err := c.do(ctx, http.MethodGet, "/v1/providers/"+url.PathEscape(provider)+"/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitReport files a user report. A rate-limited submission returns an
// *APIError with StatusCode 429 and RetryAfter set.
func (c *Client) SubmitReport(ctx context.Context, r Report) (*ReportReceipt, error) {
	var out ReportReceipt
	if err := c.do(ctx, http.MethodPost, "/v1/reports", nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reports(ctx context.Context, service string) ([]StoredReport, error) {
	q := url.Values{}
	if service != "" {
		q.Set("service", service)
	}
	var out struct {
		Data []StoredReport `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/reports", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) RegisterFeed(ctx context.Context, name, feedURL string) (*CustomFeed, error) {
	body := map[string]string{"name": name, "url": feedURL}
	var out CustomFeed
	if err := c.do(ctx, http.MethodPost, "/v1/feeds/custom", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cleanup triggers report retention cleanup. AdminSecret must be set.
func (c *Client) Cleanup(ctx context.Context) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/admin/cleanup", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out interface{}) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminSecret != "" {
		req.Header.Set("X-Admin-Secret", c.AdminSecret)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
