package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves a Session by its ID.
// PRE: id is non-empty
// POST: Returns the session or an error if not found
func (s *SQLiteStore) Get(ctx context.Context, id string) (Session, error) {
	query := "SELECT id, backend_token, owner_number, owner_name, created_at FROM portal_session WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	var entity Session
	var createdAt string
	err := row.Scan(&entity.ID, &entity.BackendToken, &entity.OwnerNumber, &entity.OwnerName, &createdAt)
	if err == sql.ErrNoRows {
		return Session{}, fmt.Errorf("session not found: %w", err)
	}
	if err != nil {
		return Session{}, err
	}
	entity.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	return entity, nil
}

// Save persists a Session to the database.
// PRE: entity has a non-empty ID and token
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity Session) error {
	query := `INSERT INTO portal_session (id, backend_token, owner_number, owner_name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			backend_token=excluded.backend_token,
			owner_number=excluded.owner_number,
			owner_name=excluded.owner_name`
	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.BackendToken,
		entity.OwnerNumber,
		entity.OwnerName,
		entity.CreatedAt.Format(timeLayout),
	)
	return err
}

// Delete removes a Session from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM portal_session WHERE id = ?", id)
	return err
}

// DeleteExpired removes sessions older than the session lifetime.
// POST: No session created before now-Lifetime remains
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-Lifetime).Format(timeLayout)
	_, err := s.db.ExecContext(ctx, "DELETE FROM portal_session WHERE created_at < ?", cutoff)
	return err
}
