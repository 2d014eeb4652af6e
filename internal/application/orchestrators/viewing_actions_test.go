package orchestrators_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ownerportal/internal/application/orchestrators"
)

// TestExecuteLogImpromptuViewing_Validation rejects incomplete forms without
// a backend round-trip.
func TestExecuteLogImpromptuViewing_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input orchestrators.ImpromptuViewingInput
	}{
		{name: "no date", input: orchestrators.ImpromptuViewingInput{ViewerName: "Pat", ViewerEmail: "p@x.com"}},
		{name: "no name", input: orchestrators.ImpromptuViewingInput{DateISO: "2026-08-01", ViewerEmail: "p@x.com"}},
		{name: "no contact method", input: orchestrators.ImpromptuViewingInput{DateISO: "2026-08-01", ViewerName: "Pat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &mockBackend{}
			err := orchestrators.ExecuteLogImpromptuViewing(context.Background(), tt.input, orchestrators.ImpromptuViewingDeps{Backend: be})
			if !errors.Is(err, orchestrators.ErrImpromptuFieldsMissing) {
				t.Errorf("err = %v, want ErrImpromptuFieldsMissing", err)
			}
			if be.called("createviewingrequest") {
				t.Error("backend must not be called for an invalid form")
			}
		})
	}
}

// TestExecuteLogImpromptuViewing_NotesComposition verifies the location
// prefix and note joining.
func TestExecuteLogImpromptuViewing_NotesComposition(t *testing.T) {
	be := &mockBackend{}
	input := orchestrators.ImpromptuViewingInput{
		OwnerNumber: "123",
		DateISO:     "2026-08-01",
		ViewerName:  "Pat",
		ViewerPhone: "0123",
		Location:    "CAMC Chatsworth Park",
		Notes:       "Friends of the family",
	}
	if err := orchestrators.ExecuteLogImpromptuViewing(context.Background(), input, orchestrators.ImpromptuViewingDeps{Backend: be}); err != nil {
		t.Fatalf("ExecuteLogImpromptuViewing: %v", err)
	}

	if len(be.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(be.requests))
	}
	req := be.requests[0]
	if req.Notes != "Impromptu at: CAMC Chatsworth Park | Friends of the family" {
		t.Errorf("notes = %q, want location prefix joined with | ", req.Notes)
	}
	if req.Source != "impromptu" {
		t.Errorf("source = %q, want impromptu", req.Source)
	}

	// Missing location falls back to (unspecified).
	be2 := &mockBackend{}
	input.Location = ""
	input.Notes = ""
	orchestrators.ExecuteLogImpromptuViewing(context.Background(), input, orchestrators.ImpromptuViewingDeps{Backend: be2})
	if got := be2.requests[0].Notes; !strings.HasPrefix(got, "Impromptu at: (unspecified)") {
		t.Errorf("notes = %q, want (unspecified) fallback", got)
	}
}

// TestExecuteUpdateViewingDate requires a date before calling out.
func TestExecuteUpdateViewingDate(t *testing.T) {
	be := &mockBackend{}
	err := orchestrators.ExecuteUpdateViewingDate(context.Background(), "tok", "v1", " ", orchestrators.UpdateViewingDateDeps{Backend: be})
	if !errors.Is(err, orchestrators.ErrDateRequired) {
		t.Errorf("err = %v, want ErrDateRequired", err)
	}

	if err := orchestrators.ExecuteUpdateViewingDate(context.Background(), "tok", "v1", "2026-09-01", orchestrators.UpdateViewingDateDeps{Backend: be}); err != nil {
		t.Errorf("ExecuteUpdateViewingDate: %v", err)
	}
	if !be.called("updateviewingdate") {
		t.Error("backend should be called with a valid date")
	}
}

// TestExecuteSendFeedback requires non-blank text.
func TestExecuteSendFeedback(t *testing.T) {
	be := &mockBackend{}
	err := orchestrators.ExecuteSendFeedback(context.Background(), "tok", "v1", "   ", orchestrators.OwnerFeedbackDeps{Backend: be})
	if !errors.Is(err, orchestrators.ErrFeedbackEmpty) {
		t.Errorf("err = %v, want ErrFeedbackEmpty", err)
	}
	if be.called("ownerfeedback") {
		t.Error("backend must not be called with empty feedback")
	}

	if err := orchestrators.ExecuteSendFeedback(context.Background(), "tok", "v1", " lovely viewers ", orchestrators.OwnerFeedbackDeps{Backend: be}); err != nil {
		t.Errorf("ExecuteSendFeedback: %v", err)
	}
}

// TestExecuteChangePassword validates the form locally first.
func TestExecuteChangePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   orchestrators.ChangePasswordInput
		wantErr bool
	}{
		{name: "valid", input: orchestrators.ChangePasswordInput{CurrentPassword: "old", NewPassword: "new", ConfirmPassword: "new"}},
		{name: "missing current", input: orchestrators.ChangePasswordInput{NewPassword: "new", ConfirmPassword: "new"}, wantErr: true},
		{name: "mismatch", input: orchestrators.ChangePasswordInput{CurrentPassword: "old", NewPassword: "new", ConfirmPassword: "other"}, wantErr: true},
		{name: "empty new", input: orchestrators.ChangePasswordInput{CurrentPassword: "old"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &mockBackend{}
			err := orchestrators.ExecuteChangePassword(context.Background(), "tok", tt.input, orchestrators.ChangePasswordDeps{Backend: be})
			if tt.wantErr {
				if !errors.Is(err, orchestrators.ErrPasswordFieldsInvalid) {
					t.Errorf("err = %v, want ErrPasswordFieldsInvalid", err)
				}
				if be.called("changepassword") {
					t.Error("backend must not be called for an invalid form")
				}
				return
			}
			if err != nil {
				t.Errorf("ExecuteChangePassword: %v", err)
			}
		})
	}
}
