package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/rajasatyajit/StatusWatch/internal/logger"
)

// Store deletes expired reports.
type Store interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job removes user reports older than the retention window.
type Job struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// New creates a cleanup job.
func New(store Store, retention, interval time.Duration) *Job {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Job{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Retention returns the configured retention window.
func (j *Job) Retention() time.Duration {
	return j.retention
}

// RunOnce deletes expired reports and returns how many were removed.
func (j *Job) RunOnce(ctx context.Context) (int64, error) {
	if j.retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", j.retention)
	}
	cutoff := j.now().UTC().Add(-j.retention)

	n, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup reports: %w", err)
	}

	logger.Info("Report cleanup completed",
		"deleted", n,
		"cutoff", cutoff,
	)
	return n, nil
}

// Start runs the job in the background every interval until ctx is done.
func (j *Job) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := j.RunOnce(ctx); err != nil {
					logger.Error("Report cleanup failed", "error", err)
				}
			}
		}
	}()
}
