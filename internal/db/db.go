// Package db provides the SQLite connection and schema for the gammad history.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Applied settings - append-only history of every setting written to the display
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS applied_settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			screen INTEGER NOT NULL DEFAULT -1,
			temperature INTEGER NOT NULL,
			brightness REAL NOT NULL,
			target INTEGER,
			phase TEXT,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_applied_ts ON applied_settings(timestamp);
		CREATE INDEX IF NOT EXISTS idx_applied_run ON applied_settings(run_id, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to create applied_settings table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
