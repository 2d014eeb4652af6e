package session_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"ownerportal/internal/adapters/storage"
	"ownerportal/internal/adapters/storage/session"
)

func newTestStore(t *testing.T) *session.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return session.NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndGet tests the round trip of a session row.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	sess := session.Session{
		ID:           "sess-1",
		BackendToken: "tok-abc",
		OwnerNumber:  "123",
		OwnerName:    "Pat Smith",
		CreatedAt:    created,
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.BackendToken != "tok-abc" || got.OwnerNumber != "123" || got.OwnerName != "Pat Smith" {
		t.Errorf("got %+v, want saved fields", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}
}

// TestSQLiteStore_SaveReplacesToken tests upsert semantics on re-login.
func TestSQLiteStore_SaveReplacesToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := session.Session{ID: "sess-1", BackendToken: "old", OwnerNumber: "123", CreatedAt: time.Now()}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sess.BackendToken = "new"
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.BackendToken != "new" {
		t.Errorf("token = %q, want new", got.BackendToken)
	}
}

// TestSQLiteStore_Delete tests logout removal.
func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, session.Session{ID: "sess-1", BackendToken: "t", OwnerNumber: "1", CreatedAt: time.Now()})
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); err == nil {
		t.Error("expected not-found after delete")
	}
}

// TestSQLiteStore_DeleteExpired tests the 24h sweep.
func TestSQLiteStore_DeleteExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	store.Save(ctx, session.Session{ID: "old", BackendToken: "t", OwnerNumber: "1", CreatedAt: now.Add(-25 * time.Hour)})
	store.Save(ctx, session.Session{ID: "fresh", BackendToken: "t", OwnerNumber: "2", CreatedAt: now.Add(-time.Hour)})

	if err := store.DeleteExpired(ctx, now); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if _, err := store.Get(ctx, "old"); err == nil {
		t.Error("expired session should be removed")
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}

// TestSession_IsExpired tests the lifetime boundary.
func TestSession_IsExpired(t *testing.T) {
	now := time.Now()
	fresh := session.Session{CreatedAt: now.Add(-23 * time.Hour)}
	if fresh.IsExpired(now) {
		t.Error("23h-old session should not be expired")
	}
	stale := session.Session{CreatedAt: now.Add(-25 * time.Hour)}
	if !stale.IsExpired(now) {
		t.Error("25h-old session should be expired")
	}
}
