package orchestrators_test

import (
	"context"
	"errors"
	"testing"

	"ownerportal/internal/application/orchestrators"
	"ownerportal/internal/domain/owner"
	"ownerportal/internal/domain/viewing"
)

// TestExecuteLoadDashboard_Success returns profile and viewings together.
func TestExecuteLoadDashboard_Success(t *testing.T) {
	be := &mockBackend{
		profile: owner.Profile{
			OwnerNumber: "123",
			Name:        "Pat",
			Totals:      owner.Totals{Viewings: 4, RewardPoints: 12.5},
		},
		viewings: []viewing.Viewing{
			{ViewingID: "v1", Status: viewing.StatusArranged},
		},
	}

	result, err := orchestrators.ExecuteLoadDashboard(context.Background(), "tok", orchestrators.DashboardDeps{Backend: be})
	if err != nil {
		t.Fatalf("ExecuteLoadDashboard: %v", err)
	}
	if result.Profile.AvailablePoints() != 12.5 {
		t.Errorf("points = %v, want 12.5", result.Profile.AvailablePoints())
	}
	if len(result.Viewings) != 1 {
		t.Errorf("viewings = %d, want 1", len(result.Viewings))
	}
}

// TestExecuteLoadDashboard_ExpiredToken maps a profile rejection to
// ErrSessionExpired so the caller returns to the login screen.
func TestExecuteLoadDashboard_ExpiredToken(t *testing.T) {
	be := &mockBackend{profileErr: errors.New("Invalid token")}

	_, err := orchestrators.ExecuteLoadDashboard(context.Background(), "stale", orchestrators.DashboardDeps{Backend: be})
	if !errors.Is(err, orchestrators.ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

// TestExecuteLoadDashboard_ViewingsFailure still returns the profile so the
// screen renders with an inline table error.
func TestExecuteLoadDashboard_ViewingsFailure(t *testing.T) {
	be := &mockBackend{
		profile:     owner.Profile{OwnerNumber: "123"},
		viewingsErr: errBackendDown,
	}

	result, err := orchestrators.ExecuteLoadDashboard(context.Background(), "tok", orchestrators.DashboardDeps{Backend: be})
	if err == nil {
		t.Fatal("expected viewings error")
	}
	if result.Profile.OwnerNumber != "123" {
		t.Error("profile should be returned alongside the viewings error")
	}
}
