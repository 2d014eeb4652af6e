package orchestrators

import (
	"context"
	"errors"

	"ownerportal/internal/adapters/backend"
	"ownerportal/internal/domain/owner"
	"ownerportal/internal/domain/viewing"
)

// ErrSessionExpired signals the stored backend token was rejected; the
// caller must clear the portal session and show the login screen.
var ErrSessionExpired = errors.New("Session expired—please log in.")

// DashboardResult carries everything the dashboard screen renders.
type DashboardResult struct {
	Profile  owner.Profile
	Viewings []viewing.Viewing
}

// DashboardDeps holds dependencies for LoadDashboard.
type DashboardDeps struct {
	Backend backend.API
}

// ExecuteLoadDashboard fetches the owner profile and viewings list. A
// profile rejection maps to ErrSessionExpired; a viewings failure is
// returned alongside the profile so the screen can render with an inline
// table error.
// POST: Profile is fresh from the backend on success
func ExecuteLoadDashboard(ctx context.Context, token string, deps DashboardDeps) (DashboardResult, error) {
	profile, err := deps.Backend.Me(ctx, token)
	if err != nil {
		return DashboardResult{}, ErrSessionExpired
	}

	viewings, err := deps.Backend.Viewings(ctx, token)
	if err != nil {
		return DashboardResult{Profile: profile}, err
	}
	return DashboardResult{Profile: profile, Viewings: viewings}, nil
}

// RefreshProfileDeps holds dependencies for RefreshProfile.
type RefreshProfileDeps struct {
	Backend backend.API
}

// ExecuteRefreshProfile re-fetches the authoritative profile after a
// mutating action. Point totals are never computed locally.
func ExecuteRefreshProfile(ctx context.Context, token string, deps RefreshProfileDeps) (owner.Profile, error) {
	return deps.Backend.Me(ctx, token)
}
