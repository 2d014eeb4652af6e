// Package twin is a self-contained stand-in for the hosted Go-Pods backend.
// It speaks the same single-endpoint action protocol the portal consumes,
// backed by its own SQLite database, so the portal can be developed and
// tested end to end without the real service.
package twin

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"ownerportal/internal/domain/owner"
	"ownerportal/internal/domain/viewing"
)

// Owner is one owner record as the backend holds it, password hash included.
type Owner struct {
	OwnerNumber  string
	Name         string
	JoinedYear   int
	IsActive     bool
	PasswordHash string
	RewardPoints float64
}

// Store persists twin state in SQLite. Tokens are memory-only: a twin
// restart logs everyone out, which mirrors the hosted service closely
// enough for development.
type Store struct {
	db *sql.DB

	mu     sync.Mutex
	tokens map[string]string // token -> owner number
}

// NewStore wraps an opened database and creates the twin schema.
func NewStore(db *sql.DB) (*Store, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS owner (
		owner_number TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		joined_year INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		password_hash TEXT NOT NULL,
		reward_points REAL NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS viewing (
		viewing_id TEXT PRIMARY KEY,
		owner_number TEXT NOT NULL REFERENCES owner(owner_number),
		viewing_date TEXT NOT NULL,
		viewer_name TEXT NOT NULL,
		viewer_email TEXT NOT NULL DEFAULT '',
		viewer_phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		points_allocated REAL,
		notes TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		feedback TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS reward_order (
		order_id TEXT PRIMARY KEY,
		owner_number TEXT NOT NULL REFERENCES owner(owner_number),
		payload TEXT NOT NULL,
		points REAL NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create twin schema: %w", err)
	}
	return &Store{db: db, tokens: make(map[string]string)}, nil
}

// IssueToken binds a fresh token to an owner.
func (s *Store) IssueToken(token, ownerNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = ownerNumber
}

// ResolveToken returns the owner number a token belongs to.
func (s *Store) ResolveToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	num, ok := s.tokens[token]
	return num, ok
}

// RevokeToken drops a token.
func (s *Store) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// GetOwner loads one owner by number.
func (s *Store) GetOwner(ctx context.Context, ownerNumber string) (Owner, error) {
	var o Owner
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_number, name, joined_year, is_active, password_hash, reward_points
		 FROM owner WHERE owner_number = ?`, ownerNumber,
	).Scan(&o.OwnerNumber, &o.Name, &o.JoinedYear, &active, &o.PasswordHash, &o.RewardPoints)
	if err != nil {
		return Owner{}, err
	}
	o.IsActive = active != 0
	return o, nil
}

// SaveOwner inserts or replaces an owner record.
func (s *Store) SaveOwner(ctx context.Context, o Owner) error {
	active := 0
	if o.IsActive {
		active = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO owner (owner_number, name, joined_year, is_active, password_hash, reward_points)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(owner_number) DO UPDATE SET
			name = excluded.name,
			joined_year = excluded.joined_year,
			is_active = excluded.is_active,
			password_hash = excluded.password_hash,
			reward_points = excluded.reward_points`,
		o.OwnerNumber, o.Name, o.JoinedYear, active, o.PasswordHash, o.RewardPoints)
	if err != nil {
		return fmt.Errorf("save owner: %w", err)
	}
	return nil
}

// SetActive flips the viewing-availability flag.
func (s *Store) SetActive(ctx context.Context, ownerNumber string, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE owner SET is_active = ? WHERE owner_number = ?`, flag, ownerNumber)
	return err
}

// SetPasswordHash replaces an owner's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, ownerNumber, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE owner SET password_hash = ? WHERE owner_number = ?`, hash, ownerNumber)
	return err
}

// AdjustPoints moves an owner's balance by delta and returns the new figure.
func (s *Store) AdjustPoints(ctx context.Context, ownerNumber string, delta float64) (float64, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE owner SET reward_points = reward_points + ? WHERE owner_number = ?`, delta, ownerNumber)
	if err != nil {
		return 0, err
	}
	var points float64
	err = s.db.QueryRowContext(ctx,
		`SELECT reward_points FROM owner WHERE owner_number = ?`, ownerNumber).Scan(&points)
	return points, err
}

// Profile assembles the portal-facing profile for an owner.
func (s *Store) Profile(ctx context.Context, ownerNumber string) (owner.Profile, error) {
	o, err := s.GetOwner(ctx, ownerNumber)
	if err != nil {
		return owner.Profile{}, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM viewing WHERE owner_number = ?`, ownerNumber).Scan(&count); err != nil {
		return owner.Profile{}, err
	}
	return owner.Profile{
		OwnerNumber: o.OwnerNumber,
		Name:        o.Name,
		JoinedYear:  o.JoinedYear,
		IsActive:    o.IsActive,
		Totals: owner.Totals{
			Viewings:     count,
			RewardPoints: o.RewardPoints,
		},
	}, nil
}

// Viewings lists an owner's viewings, newest date first.
func (s *Store) Viewings(ctx context.Context, ownerNumber string) ([]viewing.Viewing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT viewing_id, viewing_date, viewer_name, status, points_allocated
		 FROM viewing WHERE owner_number = ? ORDER BY viewing_date DESC, viewing_id`, ownerNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []viewing.Viewing
	for rows.Next() {
		var v viewing.Viewing
		var points sql.NullFloat64
		if err := rows.Scan(&v.ViewingID, &v.ViewingDate, &v.ViewerName, &v.Status, &points); err != nil {
			return nil, err
		}
		if points.Valid {
			p := points.Float64
			v.PointsAllocated = &p
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetViewing loads one viewing, scoped to its owner.
func (s *Store) GetViewing(ctx context.Context, ownerNumber, viewingID string) (viewing.Viewing, error) {
	var v viewing.Viewing
	var points sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT viewing_id, viewing_date, viewer_name, status, points_allocated
		 FROM viewing WHERE owner_number = ? AND viewing_id = ?`, ownerNumber, viewingID,
	).Scan(&v.ViewingID, &v.ViewingDate, &v.ViewerName, &v.Status, &points)
	if err != nil {
		return viewing.Viewing{}, err
	}
	if points.Valid {
		p := points.Float64
		v.PointsAllocated = &p
	}
	return v, nil
}

// InsertViewing creates a viewing row.
func (s *Store) InsertViewing(ctx context.Context, ownerNumber string, v viewing.Viewing, email, phone, notes, source string) error {
	var points any
	if v.PointsAllocated != nil {
		points = *v.PointsAllocated
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO viewing (viewing_id, owner_number, viewing_date, viewer_name, viewer_email, viewer_phone, status, points_allocated, notes, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ViewingID, ownerNumber, v.ViewingDate, v.ViewerName, email, phone, v.Status, points, notes, source)
	if err != nil {
		return fmt.Errorf("insert viewing: %w", err)
	}
	return nil
}

// SetViewingDate changes a viewing's date.
func (s *Store) SetViewingDate(ctx context.Context, ownerNumber, viewingID, dateISO string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE viewing SET viewing_date = ? WHERE owner_number = ? AND viewing_id = ?`,
		dateISO, ownerNumber, viewingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CompleteViewing moves an ARRANGED viewing to VIEWED with its allocation.
func (s *Store) CompleteViewing(ctx context.Context, ownerNumber, viewingID string, points float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE viewing SET status = ?, points_allocated = ?
		 WHERE owner_number = ? AND viewing_id = ? AND status = ?`,
		viewing.StatusViewed, points, ownerNumber, viewingID, viewing.StatusArranged)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetFeedback stores owner feedback against a viewing.
func (s *Store) SetFeedback(ctx context.Context, ownerNumber, viewingID, feedback string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE viewing SET feedback = ? WHERE owner_number = ? AND viewing_id = ?`,
		feedback, ownerNumber, viewingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertOrder records a redemption order.
func (s *Store) InsertOrder(ctx context.Context, orderID, ownerNumber, payload string, points float64, createdAt string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reward_order (order_id, owner_number, payload, points, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		orderID, ownerNumber, payload, points, createdAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}
