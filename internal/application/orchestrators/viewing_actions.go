package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ownerportal/internal/adapters/backend"
)

// Validation errors shown inline, before any backend round-trip.
var (
	ErrImpromptuFieldsMissing = errors.New("Please provide a date, viewer name and at least one contact method.")
	ErrDateRequired           = errors.New("Please choose a date.")
	ErrFeedbackEmpty          = errors.New("Please enter some feedback.")
)

// ImpromptuViewingInput carries the owner-logged viewing details.
type ImpromptuViewingInput struct {
	OwnerNumber string
	DateISO     string
	Location    string
	ViewerName  string
	ViewerEmail string
	ViewerPhone string
	Notes       string
}

// ImpromptuViewingDeps holds dependencies for LogImpromptuViewing.
type ImpromptuViewingDeps struct {
	Backend backend.API
}

// ExecuteLogImpromptuViewing submits a viewing that happened outside the
// system. It lands as TBC for admin review; points are awarded later.
// PRE: Date, viewer name and at least one contact method are present
func ExecuteLogImpromptuViewing(ctx context.Context, input ImpromptuViewingInput, deps ImpromptuViewingDeps) error {
	dateISO := strings.TrimSpace(input.DateISO)
	name := strings.TrimSpace(input.ViewerName)
	email := strings.TrimSpace(input.ViewerEmail)
	phone := strings.TrimSpace(input.ViewerPhone)
	if dateISO == "" || name == "" || (email == "" && phone == "") {
		return ErrImpromptuFieldsMissing
	}

	location := strings.TrimSpace(input.Location)
	if location == "" {
		location = "(unspecified)"
	}
	notes := "Impromptu at: " + location
	if extra := strings.TrimSpace(input.Notes); extra != "" {
		notes += " | " + extra
	}

	err := deps.Backend.CreateViewingRequest(ctx, backend.ViewingRequest{
		OwnerNumber:   input.OwnerNumber,
		ViewerName:    name,
		ViewerEmail:   email,
		ViewerPhone:   phone,
		RequestedDate: dateISO,
		Notes:         notes,
		Source:        "impromptu",
	})
	if err != nil {
		return err
	}

	slog.Info("viewing_event", "event", "impromptu_logged", "owner_number", input.OwnerNumber)
	return nil
}

// UpdateViewingDateDeps holds dependencies for UpdateViewingDate.
type UpdateViewingDateDeps struct {
	Backend backend.API
}

// ExecuteUpdateViewingDate changes a viewing's date.
// PRE: dateISO is non-empty
func ExecuteUpdateViewingDate(ctx context.Context, token, viewingID, dateISO string, deps UpdateViewingDateDeps) error {
	if strings.TrimSpace(dateISO) == "" {
		return ErrDateRequired
	}
	if err := deps.Backend.UpdateViewingDate(ctx, token, viewingID, dateISO); err != nil {
		return err
	}
	slog.Info("viewing_event", "event", "date_changed", "viewing_id", viewingID, "date", dateISO)
	return nil
}

// OwnerFeedbackDeps holds dependencies for SendFeedback.
type OwnerFeedbackDeps struct {
	Backend backend.API
}

// ExecuteSendFeedback submits free-text feedback for a viewing.
// PRE: feedback is non-empty after trimming
func ExecuteSendFeedback(ctx context.Context, token, viewingID, feedback string, deps OwnerFeedbackDeps) error {
	text := strings.TrimSpace(feedback)
	if text == "" {
		return ErrFeedbackEmpty
	}
	if err := deps.Backend.OwnerFeedback(ctx, token, viewingID, text); err != nil {
		return err
	}
	slog.Info("viewing_event", "event", "feedback_sent", "viewing_id", viewingID)
	return nil
}
