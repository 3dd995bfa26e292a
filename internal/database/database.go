package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type DB struct {
	*sql.DB
}

func New(databasePath string) (*DB, error) {
	db, err := sql.Open("sqlite3", databasePath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close() // Ignore close error, we're already returning ping error
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Migrate() error {
	return db.MigrateDir("migrations")
}

// MigrateDir runs the goose migrations from an explicit directory, for
// callers that don't run from the repository root.
func (db *DB) MigrateDir(dir string) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
