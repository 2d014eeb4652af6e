package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"ownerportal/internal/adapters/backend"
	"ownerportal/internal/domain/owner"
	"ownerportal/internal/domain/viewing"
)

// CompleteViewingInput carries the viewing being marked complete.
type CompleteViewingInput struct {
	Viewing viewing.Viewing
}

// CompleteViewingResult is an explicit two-phase update: Optimistic is the
// local patch applied immediately (VIEWED, fixed 0.25 allocation) and
// Profile is the authoritative reconciliation fetched afterwards. When the
// backend disagrees with the optimistic figures, Profile wins.
type CompleteViewingResult struct {
	Optimistic viewing.Viewing
	Profile    owner.Profile
}

// CompleteViewingDeps holds dependencies for CompleteViewing.
type CompleteViewingDeps struct {
	Backend backend.API
}

var ErrNotArranged = errors.New("Only arranged viewings can be marked complete.")

// ExecuteCompleteViewing confirms an ARRANGED viewing with the backend,
// applies the optimistic patch, then reconciles against a fresh profile.
// PRE: Viewing status is ARRANGED
// POST: Backend holds the completion; Profile carries the real totals
func ExecuteCompleteViewing(ctx context.Context, token string, input CompleteViewingInput, deps CompleteViewingDeps) (CompleteViewingResult, error) {
	if !input.Viewing.CanComplete() {
		return CompleteViewingResult{}, ErrNotArranged
	}

	if err := deps.Backend.ConfirmViewing(ctx, token, input.Viewing.ViewingID); err != nil {
		return CompleteViewingResult{}, err
	}

	optimistic := input.Viewing
	optimistic.ApplyCompletion()

	// Reconcile: the backend's figures overwrite the optimistic ones. A
	// failed fetch still reports success with zero-value profile; the next
	// dashboard load will catch up.
	profile, err := deps.Backend.Me(ctx, token)
	if err != nil {
		slog.Warn("viewing_event", "event", "reconcile_failed", "viewing_id", input.Viewing.ViewingID, "error", err.Error())
		return CompleteViewingResult{Optimistic: optimistic}, nil
	}

	slog.Info("viewing_event", "event", "marked_complete", "viewing_id", input.Viewing.ViewingID)
	return CompleteViewingResult{Optimistic: optimistic, Profile: profile}, nil
}
