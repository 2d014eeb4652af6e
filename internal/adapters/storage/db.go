// Package storage opens and prepares the portal's local SQLite database.
// The portal keeps almost nothing locally: the backend owns all business
// state, and the only thing persisted here is the session table mapping a
// portal cookie to its backend token so logins survive a restart.
package storage

import (
	"database/sql"
	"fmt"
)

// Open opens the SQLite database at path with the pragmas the portal needs
// (WAL journal, busy timeout, foreign keys) and verifies connectivity.
// POST: Returned DB is ready for concurrent use
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

// InitDB creates the portal schema.
// PRE: db is a valid database connection
// POST: All tables exist
func InitDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS portal_session (
		id TEXT PRIMARY KEY,
		backend_token TEXT NOT NULL,
		owner_number TEXT NOT NULL,
		owner_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
