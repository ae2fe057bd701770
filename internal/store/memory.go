package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// InMemoryStore implements Store using in-memory storage
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string]models.UserReport
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[string]models.UserReport),
	}
}

// InsertReport stores a report in memory
func (s *InMemoryStore) InsertReport(ctx context.Context, r models.UserReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[r.ID] = r
	return nil
}

// Recent returns reports matching q, newest first
func (s *InMemoryStore) Recent(ctx context.Context, q models.ReportQuery) ([]models.UserReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.UserReport{}
	for _, r := range s.reports {
		if q.Matches(r) {
			result = append(result, r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ReportedAt.Equal(result[j].ReportedAt) {
			return result[i].ReportedAt.After(result[j].ReportedAt)
		}
		return result[i].ID < result[j].ID
	})

	if q.Limit > 0 && q.Limit < len(result) {
		result = result[:q.Limit]
	}

	return result, nil
}

// DeleteOlderThan removes reports submitted before cutoff
func (s *InMemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.reports {
		if r.ReportedAt.Before(cutoff) {
			delete(s.reports, id)
			n++
		}
	}
	return n, nil
}

// Health always returns nil for in-memory store
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}
