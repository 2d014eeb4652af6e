package session

import (
	"context"
	"time"
)

// Lifetime is how long a portal session stays valid after creation.
const Lifetime = 24 * time.Hour

// Session maps a portal cookie ID to its backend token. It is created at
// login and cleared at logout; the token is the only cross-call shared
// mutable resource in the portal.
type Session struct {
	ID           string
	BackendToken string
	OwnerNumber  string
	OwnerName    string
	CreatedAt    time.Time
}

// IsExpired returns true once the session has outlived Lifetime.
// INVARIANT: Session fields are not mutated
func (s Session) IsExpired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > Lifetime
}

// Store persists Session state.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, value Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}
