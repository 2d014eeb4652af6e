package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ownerportal/internal/adapters/backend"
	"ownerportal/internal/adapters/storage/session"
)

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	OwnerNumber string
	Password    string
}

// LoginResult carries the portal session created for a successful login.
type LoginResult struct {
	Session session.Session
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Backend      backend.API
	SessionStore session.Store
}

var ErrMissingCredentials = errors.New("Please enter your owner number and password.")

// ExecuteLogin authenticates against the backend and creates a portal
// session holding the backend token.
// PRE: Owner number and password provided
// POST: On success a session row exists and is returned for the cookie
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	ownerNumber := strings.TrimSpace(input.OwnerNumber)
	password := strings.TrimSpace(input.Password)
	if ownerNumber == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	resp, err := deps.Backend.Login(ctx, ownerNumber, password)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "owner_number", ownerNumber, "error", err.Error())
		return LoginResult{}, err
	}

	// The profile loads straight after authentication so the session can
	// carry the owner's display name. A failure here is not fatal; the
	// dashboard fetch will surface it.
	ownerName := ""
	if profile, err := deps.Backend.Me(ctx, resp.Token); err != nil {
		slog.Info("auth_event", "event", "login_profile_failed", "owner_number", ownerNumber, "error", err.Error())
	} else {
		ownerName = profile.Name
	}

	sess := session.Session{
		ID:           uuid.New().String(),
		BackendToken: resp.Token,
		OwnerNumber:  ownerNumber,
		OwnerName:    ownerName,
		CreatedAt:    time.Now(),
	}
	if err := deps.SessionStore.Save(ctx, sess); err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "owner_number", ownerNumber)
	return LoginResult{Session: sess}, nil
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Backend      backend.API
	SessionStore session.Store
}

// ExecuteLogout invalidates the backend token and removes the portal
// session. The local session is cleared even if the backend call fails.
// POST: Session row is gone
func ExecuteLogout(ctx context.Context, sess session.Session, deps LogoutDeps) {
	if err := deps.Backend.Logout(ctx, sess.BackendToken); err != nil {
		slog.Info("auth_event", "event", "logout_backend_failed", "owner_number", sess.OwnerNumber, "error", err.Error())
	}
	if err := deps.SessionStore.Delete(ctx, sess.ID); err != nil {
		slog.Error("auth_event", "event", "logout_delete_failed", "session_id", sess.ID, "error", err.Error())
	}
	slog.Info("auth_event", "event", "logout", "owner_number", sess.OwnerNumber)
}
