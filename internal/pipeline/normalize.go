package pipeline

import (
	"strings"
	"time"

	"github.com/rajasatyajit/StatusWatch/internal/classifier"
	"github.com/rajasatyajit/StatusWatch/internal/feed"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/severity"
	"github.com/rajasatyajit/StatusWatch/pkg/utils"
)

// Classifier maps item text to an event type
type Classifier interface {
	Classify(title, description string) models.EventType
}

// Analyzer scores item text for severity
type Analyzer interface {
	Analyze(text string, in severity.Context) severity.Analysis
}

// Normalizer turns raw feed items and user reports into incidents.
type Normalizer struct {
	classifier Classifier
	analyzer   Analyzer
}

// NewNormalizer creates a normalizer. Nil arguments fall back to the default
// classifier and analyzer.
func NewNormalizer(c Classifier, a Analyzer) *Normalizer {
	if c == nil {
		c = classifier.New()
	}
	if a == nil {
		a = severity.New()
	}
	return &Normalizer{classifier: c, analyzer: a}
}

// Normalize classifies and scores items from one provider. reports is the
// number of recent user reports for the provider. Items with an unparseable
// date are kept with the fetch time and DateParseFailed set.
func (n *Normalizer) Normalize(provider models.Provider, items []models.RawFeedItem, reports int, fetchedAt time.Time) []models.NormalizedIncident {
	out := make([]models.NormalizedIncident, 0, len(items))
	for _, item := range items {
		reportedAt, err := feed.ParseDate(item.PublishedAt)
		dateFailed := err != nil
		if dateFailed {
			reportedAt = fetchedAt
		}

		inc := models.NormalizedIncident{
			ID:              utils.HashParts(string(provider), item.Link, item.PublishedAt, item.Title),
			Provider:        provider,
			Title:           item.Title,
			Description:     item.Description,
			ReportedAt:      reportedAt.UTC(),
			Link:            item.Link,
			DateParseFailed: dateFailed,
			Source:          models.SourceFeed,
			FetchedAt:       fetchedAt.UTC(),
		}

		var ts time.Time
		if !dateFailed {
			ts = reportedAt
		}
		n.score(&inc, provider, ts, reports)
		out = append(out, inc)
	}
	return out
}

// FromReport converts a user report into an incident attributed to provider.
func (n *Normalizer) FromReport(provider models.Provider, r models.UserReport, reports int) models.NormalizedIncident {
	desc := r.Description
	if r.Status != "" && !strings.Contains(strings.ToLower(desc), strings.ToLower(r.Status)) {
		desc = strings.TrimSpace(desc + " (" + r.Status + ")")
	}

	inc := models.NormalizedIncident{
		ID:          "report-" + r.ID,
		Provider:    provider,
		Title:       "User report: " + r.ServiceName,
		Description: desc,
		ReportedAt:  r.ReportedAt.UTC(),
		Source:      models.SourceUserReport,
		FetchedAt:   r.ReportedAt.UTC(),
	}
	n.score(&inc, provider, r.ReportedAt, reports)
	return inc
}

func (n *Normalizer) score(inc *models.NormalizedIncident, provider models.Provider, ts time.Time, reports int) {
	inc.EventType = n.classifier.Classify(inc.Title, inc.Description)

	analysis := n.analyzer.Analyze(inc.Title+" "+inc.Description, severity.Context{
		Service:     provider,
		Timestamp:   ts,
		UserReports: reports,
	})
	inc.Severity = analysis.Severity
	inc.Confidence = analysis.Confidence

	// Announcements that trip no indicator are informational.
	if !analysis.ThresholdMet() && (inc.EventType == models.EventMaintenance || inc.EventType == models.EventUpdate) {
		inc.Severity = models.SeverityInfo
	}
}
