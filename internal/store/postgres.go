package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertReport writes a single report row
func (s *PostgresStore) InsertReport(ctx context.Context, r models.UserReport) error {
	query := `
		INSERT INTO user_reports (
			id, service_name, description, user_email, status, metadata, client_hash, reported_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	var metadata any
	if len(r.Metadata) > 0 {
		metadata = string(r.Metadata)
	}

	_, err := s.db.Exec(ctx, query,
		r.ID, r.ServiceName, r.Description, r.UserEmail, r.Status,
		metadata, r.ClientHash, r.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}
	return nil
}

// Recent retrieves reports based on query parameters, newest first
func (s *PostgresStore) Recent(ctx context.Context, q models.ReportQuery) ([]models.UserReport, error) {
	query := `
		SELECT id::text, service_name, description, user_email, status,
			   COALESCE(metadata::text, ''), client_hash, reported_at
		FROM user_reports
		WHERE 1=1
	`

	var args []interface{}
	argIndex := 1

	if q.ServiceName != "" {
		query += fmt.Sprintf(" AND lower(service_name) = lower($%d)", argIndex)
		args = append(args, q.ServiceName)
		argIndex++
	}

	if !q.Since.IsZero() {
		query += fmt.Sprintf(" AND reported_at >= $%d", argIndex)
		args = append(args, q.Since)
		argIndex++
	}

	query += " ORDER BY reported_at DESC, id"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.UserReport{}
	for rows.Next() {
		var (
			r        models.UserReport
			metadata string
		)
		err := rows.Scan(
			&r.ID, &r.ServiceName, &r.Description, &r.UserEmail, &r.Status,
			&metadata, &r.ClientHash, &r.ReportedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if metadata != "" {
			r.Metadata = json.RawMessage(metadata)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}

// DeleteOlderThan removes reports submitted before cutoff in one statement.
// Running it twice is harmless.
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.db.Exec(ctx, `DELETE FROM user_reports WHERE reported_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete reports: %w", err)
	}
	return n, nil
}

// Health checks the database connection
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}
