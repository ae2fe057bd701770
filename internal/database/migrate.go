package database

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/rajasatyajit/StatusWatch/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate opens a connection to databaseURL and applies all pending
// migrations.
func Migrate(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("database url is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("Database migrations applied")
	return nil
}
