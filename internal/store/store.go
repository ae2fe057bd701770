package store

import (
	"context"
	"time"

	pgx "github.com/jackc/pgx/v5"

	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// Store defines the interface for user report storage
type Store interface {
	InsertReport(ctx context.Context, r models.UserReport) error
	Recent(ctx context.Context, q models.ReportQuery) ([]models.UserReport, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Health(ctx context.Context) error
}

// Database interface for dependency injection
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Health(ctx context.Context) error
	IsConfigured() bool
}

// New creates a new store instance
func New(db Database) Store {
	if db != nil && db.IsConfigured() {
		return NewPostgresStore(db)
	}
	// Fallback to in-memory store if no database
	return NewInMemoryStore()
}
