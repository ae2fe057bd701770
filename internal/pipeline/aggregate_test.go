package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/providers"
)

var fixedNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestAggregate_TwoItemScenario(t *testing.T) {
	logger.Init("error", "text")

	src := &MockSource{
		provider: "acme",
		name:     "Acme Cloud",
		items: []models.RawFeedItem{
			{Title: "Investigating elevated error rate", Link: "https://status.acme.test/a", PublishedAt: "2024-03-07T10:00:00Z"},
			{Title: "Scheduled maintenance window Friday", Link: "https://status.acme.test/b", PublishedAt: "2024-03-06T10:00:00Z"},
		},
	}
	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(), WithClock(fixedClock))
	agg.Register(src)

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Incidents, 2)

	first, second := snap.Incidents[0], snap.Incidents[1]
	assert.Equal(t, models.EventIncident, first.EventType)
	assert.Equal(t, models.SeverityMajor, first.Severity)
	assert.Equal(t, models.EventMaintenance, second.EventType)
	assert.Equal(t, models.SeverityInfo, second.Severity)
	assert.Equal(t, models.SourceFeed, first.Source)

	require.Len(t, snap.Summaries, 1)
	summary := snap.Summaries[0]
	assert.Equal(t, models.StatusIssues, summary.Status)
	assert.Equal(t, "Acme Cloud", summary.Name)
	assert.Equal(t, 2, summary.IncidentCount)
	require.NotNil(t, summary.LastIncidentAt)
	assert.True(t, summary.LastIncidentAt.Equal(time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, fixedNow, snap.GeneratedAt)
}

func TestAggregate_PartialFailureIsolation(t *testing.T) {
	logger.Init("error", "text")

	healthy := &MockSource{
		provider: "healthy",
		items: []models.RawFeedItem{
			{Title: "Partial outage affecting API", Link: "https://healthy.test/1", PublishedAt: "2024-03-09T09:00:00Z"},
		},
	}
	broken := &MockSource{provider: "broken", err: errors.New("connection refused")}

	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(), WithClock(fixedClock))
	agg.Register(broken)
	agg.Register(healthy)

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Incidents, 1)
	assert.Equal(t, models.Provider("healthy"), snap.Incidents[0].Provider)

	brokenSummary, ok := snap.Summary("broken")
	require.True(t, ok)
	assert.Equal(t, models.StatusOperational, brokenSummary.Status)
	assert.Zero(t, brokenSummary.IncidentCount)
	assert.Nil(t, brokenSummary.LastIncidentAt)

	healthySummary, ok := snap.Summary("healthy")
	require.True(t, ok)
	assert.Equal(t, models.StatusIssues, healthySummary.Status)
}

func TestAggregate_OutageAmongResolvedIsIssues(t *testing.T) {
	logger.Init("error", "text")

	items := []models.RawFeedItem{
		{Title: "Service outage in API", Link: "https://x.test/0", PublishedAt: "2024-03-09T11:00:00Z"},
	}
	for i, day := range []string{"05", "06", "07", "08"} {
		items = append(items, models.RawFeedItem{
			Title:       "Login errors resolved",
			Link:        "https://x.test/r" + day,
			PublishedAt: "2024-03-" + day + "T11:00:00Z",
			Description: "Issue " + string(rune('a'+i)) + " fixed",
		})
	}

	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(), WithClock(fixedClock))
	agg.Register(&MockSource{provider: "x", items: items})

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)

	summary, ok := snap.Summary("x")
	require.True(t, ok)
	assert.Equal(t, models.StatusIssues, summary.Status)
}

func TestAggregate_DedupAndSort(t *testing.T) {
	logger.Init("error", "text")

	a := &MockSource{
		provider: "a",
		items: []models.RawFeedItem{
			{Title: "Old", Link: "https://shared.test/1", PublishedAt: "2024-03-01T00:00:00Z"},
			{Title: "Newest", Link: "https://a.test/2", PublishedAt: "2024-03-09T00:00:00Z"},
			{Title: "Newest", Link: "https://a.test/2", PublishedAt: "2024-03-09T00:00:00Z"},
		},
	}
	b := &MockSource{
		provider: "b",
		items: []models.RawFeedItem{
			{Title: "Same link, newer", Link: "https://shared.test/1", PublishedAt: "2024-03-05T00:00:00Z"},
			{Title: "Middle", Link: "https://b.test/3", PublishedAt: "2024-03-04T00:00:00Z"},
		},
	}

	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(), WithClock(fixedClock))
	agg.Register(a)
	agg.Register(b)

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)

	var titles []string
	for _, inc := range snap.Incidents {
		titles = append(titles, inc.Title)
	}
	assert.Equal(t, []string{"Newest", "Same link, newer", "Middle", "Old"}, titles)

	for i := 1; i < len(snap.Incidents); i++ {
		assert.False(t, snap.Incidents[i].ReportedAt.After(snap.Incidents[i-1].ReportedAt))
	}
}

func TestAggregate_SharedLinkKeepsDistinctIncidents(t *testing.T) {
	logger.Init("error", "text")

	// Every item points at the same status page.
	src := &MockSource{
		provider: "aws",
		items: []models.RawFeedItem{
			{Title: "Service is operating normally: resolved", Link: "https://status.aws.test/", PublishedAt: "2024-03-09T12:00:00Z"},
			{Title: "Complete outage of EC2", Link: "https://status.aws.test/", PublishedAt: "2024-03-09T10:00:00Z"},
			{Title: "Investigating increased error rates", Link: "https://status.aws.test/", PublishedAt: "2024-03-09T09:00:00Z"},
		},
	}
	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(), WithClock(fixedClock))
	agg.Register(src)

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Incidents, 3)

	summary, ok := snap.Summary("aws")
	require.True(t, ok)
	assert.Equal(t, models.StatusIssues, summary.Status)
	assert.Equal(t, 3, summary.IncidentCount)
}

func TestAggregate_FailedSourceIsFlagged(t *testing.T) {
	logger.Init("error", "text")

	agg := newTestAggregator(
		&MockSource{provider: "up"},
		&MockSource{provider: "down", err: errors.New("timeout")},
	)

	snap, failures, err := agg.aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, failures.Errors, 1)

	var perr apperrors.PipelineError
	require.ErrorAs(t, failures.Errors[0], &perr)
	assert.Equal(t, "down", perr.Source)

	down, _ := snap.Summary("down")
	assert.True(t, down.FetchFailed)
	assert.Equal(t, models.StatusOperational, down.Status)
	up, _ := snap.Summary("up")
	assert.False(t, up.FetchFailed)
}

func TestAggregate_CapsMergedReports(t *testing.T) {
	logger.Init("error", "text")

	var reports []models.UserReport
	for i := 0; i < maxMergedReports+20; i++ {
		reports = append(reports, models.UserReport{
			ID:          fmt.Sprintf("r%d", i),
			ServiceName: "Acme",
			Description: "cannot log in",
			ReportedAt:  fixedNow.Add(-time.Duration(i) * time.Second),
		})
	}
	mock := &MockReports{reports: reports}
	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(),
		WithClock(fixedClock),
		WithReports(mock, 24*time.Hour),
	)

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxMergedReports, mock.lastQuery.Limit)
	assert.Len(t, snap.Incidents, maxMergedReports)
}

func TestAggregate_InvalidDateUsesFetchTime(t *testing.T) {
	logger.Init("error", "text")

	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(), WithClock(fixedClock))
	agg.Register(&MockSource{
		provider: "acme",
		items:    []models.RawFeedItem{{Title: "Minor delays", PublishedAt: "sometime last week"}},
	})

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Incidents, 1)

	inc := snap.Incidents[0]
	assert.True(t, inc.DateParseFailed)
	assert.Equal(t, fixedNow, inc.ReportedAt)
	assert.Equal(t, fixedNow, inc.FetchedAt)
}

func TestAggregate_MergesUserReports(t *testing.T) {
	logger.Init("error", "text")

	reports := &MockReports{reports: []models.UserReport{
		{ID: "r1", ServiceName: "Slack", Description: "Messages are not sending", Status: "down", ReportedAt: fixedNow.Add(-time.Hour)},
		{ID: "r2", ServiceName: "Internal wiki", Description: "Slow pages", ReportedAt: fixedNow.Add(-2 * time.Hour)},
		{ID: "old", ServiceName: "Slack", Description: "Too old", ReportedAt: fixedNow.Add(-48 * time.Hour)},
	}}

	// Disabled entries still match report service names.
	catalog := &providers.Catalog{Providers: []providers.Provider{
		{ID: models.ProviderSlack, Name: "Slack", URL: "https://slack-status.test/feed", Disabled: true},
	}}
	agg := NewAggregator(catalog, nil, testConfig(),
		WithClock(fixedClock),
		WithReports(reports, 24*time.Hour),
	)
	agg.Register(&MockSource{provider: models.ProviderSlack, name: "Slack"})

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)

	var fromReports []models.NormalizedIncident
	for _, inc := range snap.Incidents {
		if inc.Source == models.SourceUserReport {
			fromReports = append(fromReports, inc)
		}
	}
	require.Len(t, fromReports, 2)
	assert.Equal(t, "report-r1", fromReports[0].ID)
	assert.Equal(t, models.ProviderSlack, fromReports[0].Provider)
	assert.Equal(t, "Messages are not sending (down)", fromReports[0].Description)
	assert.Equal(t, models.Provider("internal-wiki"), fromReports[1].Provider)

	// Reports do not drive status on their own.
	summary, ok := snap.Summary(models.ProviderSlack)
	require.True(t, ok)
	assert.Equal(t, models.StatusOperational, summary.Status)
	assert.Zero(t, summary.IncidentCount)
}

func TestAggregate_ReportStoreFailureIsIgnored(t *testing.T) {
	logger.Init("error", "text")

	agg := NewAggregator(&providers.Catalog{}, nil, testConfig(),
		WithClock(fixedClock),
		WithReports(&MockReports{err: errors.New("db down")}, time.Hour),
	)
	agg.Register(&MockSource{provider: "acme"})

	snap, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Summaries, 1)
	assert.NotNil(t, snap.Incidents)
	assert.Empty(t, snap.Incidents)
}

func TestAggregate_CancelledContext(t *testing.T) {
	logger.Init("error", "text")

	agg := newTestAggregator(&MockSource{provider: "acme"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Aggregate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate(t *testing.T) {
	logger.Init("error", "text")

	agg := newTestAggregator()
	src := &MockSource{
		provider: "custom",
		items: []models.RawFeedItem{
			{Title: "Degraded performance in EU", Link: "https://c.test/1", PublishedAt: "2024-03-01T00:00:00Z"},
			{Title: "Degraded performance in EU", Link: "https://c.test/1", PublishedAt: "2024-03-01T00:00:00Z"},
		},
	}

	incidents, err := agg.Evaluate(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, models.EventDegradation, incidents[0].EventType)

	_, err = agg.Evaluate(context.Background(), &MockSource{provider: "bad", err: errors.New("boom")})
	var perr apperrors.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad", perr.Source)
	assert.Equal(t, "fetch", perr.Stage)

	_, err = agg.Evaluate(context.Background(), &MockSource{provider: "garbled", err: apperrors.ParseError{Format: "xml", Err: errors.New("unexpected EOF")}})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "parse", perr.Stage)
	var parseErr apperrors.ParseError
	assert.ErrorAs(t, err, &parseErr)

	// Evaluate does not register the source.
	assert.Empty(t, agg.Sources())
}

func TestRegister_ReplacesSameProvider(t *testing.T) {
	logger.Init("error", "text")

	agg := newTestAggregator()
	agg.Register(&MockSource{provider: "acme", name: "first"})
	agg.Register(&MockSource{provider: "acme", name: "second"})

	sources := agg.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, "second", sources[0].Name())
}

func TestSources_IncludesEnabledCatalog(t *testing.T) {
	agg := NewAggregator(providers.Default(), nil, testConfig())
	assert.Len(t, agg.Sources(), len(models.BuiltinProviders))

	agg.Register(agg.NewCustomSource("My Status", "https://status.example.com/feed"))
	sources := agg.Sources()
	require.Len(t, sources, len(models.BuiltinProviders)+1)
	assert.Equal(t, models.Provider("my-status"), sources[len(sources)-1].Provider())
}

func TestSummarize(t *testing.T) {
	inc := func(e models.EventType, s models.Severity) models.NormalizedIncident {
		return models.NormalizedIncident{EventType: e, Severity: s}
	}

	tests := []struct {
		name      string
		incidents []models.NormalizedIncident
		want      models.ServiceStatus
	}{
		{"No incidents", nil, models.StatusOperational},
		{"Only resolved", []models.NormalizedIncident{inc(models.EventResolved, models.SeverityMinor)}, models.StatusOperational},
		{"Outage", []models.NormalizedIncident{inc(models.EventOutage, models.SeverityMinor)}, models.StatusIssues},
		{"Critical severity", []models.NormalizedIncident{inc(models.EventUpdate, models.SeverityCritical)}, models.StatusIssues},
		{"Degradation", []models.NormalizedIncident{inc(models.EventDegradation, models.SeverityMinor)}, models.StatusDegraded},
		{"Major severity", []models.NormalizedIncident{inc(models.EventResolved, models.SeverityMajor)}, models.StatusDegraded},
		{"Maintenance", []models.NormalizedIncident{inc(models.EventMaintenance, models.SeverityInfo)}, models.StatusMaintenance},
		{"Degradation beats maintenance", []models.NormalizedIncident{
			inc(models.EventMaintenance, models.SeverityInfo),
			inc(models.EventDegradation, models.SeverityMinor),
		}, models.StatusDegraded},
		{"Outside window is ignored", []models.NormalizedIncident{
			inc(models.EventResolved, models.SeverityMinor),
			inc(models.EventResolved, models.SeverityMinor),
			inc(models.EventResolved, models.SeverityMinor),
			inc(models.EventResolved, models.SeverityMinor),
			inc(models.EventResolved, models.SeverityMinor),
			inc(models.EventOutage, models.SeverityCritical),
		}, models.StatusOperational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.incidents, 5))
		})
	}
}
