//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/rajasatyajit/StatusWatch/config"
	"github.com/rajasatyajit/StatusWatch/internal/cleanup"
	"github.com/rajasatyajit/StatusWatch/internal/database"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/ratelimit"
	"github.com/rajasatyajit/StatusWatch/internal/report"
	"github.com/rajasatyajit/StatusWatch/internal/store"
)

// startPostgres runs a throwaway Postgres and returns its DSN.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	requireContainers(t)

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: postgresRequest(),
		Started:          true,
	})
	require.NoError(t, err, "start container")
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return postgresDSN(host, port.Port())
}

func TestPostgresStore_WithContainer(t *testing.T) {
	logger.Init("error", "text")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	require.NoError(t, database.Migrate(dsn))
	// Applying twice is a no-op
	require.NoError(t, database.Migrate(dsn))

	db, err := database.New(ctx, config.DatabaseConfig{
		URL:             dsn,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	})
	require.NoError(t, err)
	defer db.Close()

	st := store.New(db)
	require.IsType(t, &store.PostgresStore{}, st)
	require.NoError(t, st.Health(ctx))

	now := time.Now().UTC().Truncate(time.Microsecond)
	reports := []models.UserReport{
		{ID: "0b6f1f4e-8a51-4a39-9f0e-9c1c5f0a0001", ServiceName: "Slack", Description: "messages delayed", ReportedAt: now.Add(-time.Minute), Metadata: []byte(`{"region":"eu"}`)},
		{ID: "0b6f1f4e-8a51-4a39-9f0e-9c1c5f0a0002", ServiceName: "Okta", Description: "login failing", UserEmail: "ops@example.com", ReportedAt: now.Add(-2 * time.Minute)},
		{ID: "0b6f1f4e-8a51-4a39-9f0e-9c1c5f0a0003", ServiceName: "slack", Description: "old report", ReportedAt: now.Add(-10 * 24 * time.Hour)},
	}
	for _, r := range reports {
		require.NoError(t, st.InsertReport(ctx, r))
	}

	got, err := st.Recent(ctx, models.ReportQuery{ServiceName: "SLACK"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, reports[0].ID, got[0].ID)
	assert.JSONEq(t, `{"region":"eu"}`, string(got[0].Metadata))
	assert.True(t, got[0].ReportedAt.Equal(reports[0].ReportedAt))

	got, err = st.Recent(ctx, models.ReportQuery{Since: now.Add(-time.Hour), Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, reports[0].ID, got[0].ID)

	job := cleanup.New(st, 8*24*time.Hour, time.Hour)
	deleted, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Idempotent
	deleted, err = job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	svc := report.NewService(st, ratelimit.NewMemory(), report.Config{RateWindow: time.Hour})
	receipt, err := svc.Submit(ctx, "198.51.100.1", models.ReportSubmission{ServiceName: "Datadog", Description: "<b>dashboards</b> blank"})
	require.NoError(t, err)

	got, err = st.Recent(ctx, models.ReportQuery{ServiceName: "datadog"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, receipt.ID, got[0].ID)
	assert.NotContains(t, got[0].Description, "<")
}
