package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"ownerportal/internal/adapters/backend"
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	Backend backend.API
}

var ErrPasswordFieldsInvalid = errors.New("Please fill all fields and ensure passwords match.")

// ExecuteChangePassword validates the form locally then asks the backend to
// replace the password. The backend verifies the current password itself.
// PRE: All three fields present; new passwords match
func ExecuteChangePassword(ctx context.Context, token string, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.CurrentPassword == "" || input.NewPassword == "" || input.NewPassword != input.ConfirmPassword {
		return ErrPasswordFieldsInvalid
	}
	if err := deps.Backend.ChangePassword(ctx, token, input.CurrentPassword, input.NewPassword); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "password_changed")
	return nil
}

// SetActiveDeps holds dependencies for SetActive.
type SetActiveDeps struct {
	Backend backend.API
}

// ExecuteSetActive toggles whether the owner receives viewing requests.
// POST: Backend holds the new flag; caller re-renders from a fresh profile
func ExecuteSetActive(ctx context.Context, token string, active bool, deps SetActiveDeps) error {
	if err := deps.Backend.SetActive(ctx, token, active); err != nil {
		return err
	}
	slog.Info("profile_event", "event", "active_toggled", "active", active)
	return nil
}
