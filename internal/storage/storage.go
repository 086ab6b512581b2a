package storage

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open connects to Postgres and brings the schema up to date.
func Open(dsn string) (*gorm.DB, error) {
	const op = "storage.Open"

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

func runMigrations(db *gorm.DB) error {
	const op = "storage.migrations"

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
