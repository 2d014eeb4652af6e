package orchestrators

import (
	"context"
	"log/slog"

	"ownerportal/internal/adapters/backend"
	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
)

// SubmitRedemptionInput carries the wizard state and the points figure the
// owner last saw. The budget is re-checked here against that figure before
// any network call, then the backend enforces its own.
type SubmitRedemptionInput struct {
	State           *redemption.State
	Catalog         reward.Catalog
	AvailablePoints float64
}

// SubmitRedemptionResult carries the backend-authoritative totals, rendered
// verbatim on the confirmation screen.
type SubmitRedemptionResult struct {
	PointsBefore float64
	PointsAfter  float64
}

// SubmitRedemptionDeps holds dependencies for SubmitRedemption.
type SubmitRedemptionDeps struct {
	Backend backend.API
}

// ExecuteSubmitRedemption validates the final budget, builds the order
// payload and submits it. On failure the wizard state is left untouched so
// the owner can retry or go back.
// PRE: State is at step 3
// POST: On success the order is placed; state is the caller's to discard
func ExecuteSubmitRedemption(ctx context.Context, token string, input SubmitRedemptionInput, deps SubmitRedemptionDeps) (SubmitRedemptionResult, error) {
	if err := input.State.ValidateSubmit(input.Catalog, input.AvailablePoints); err != nil {
		return SubmitRedemptionResult{}, err
	}

	order := input.State.BuildOrder(input.Catalog)
	resp, err := deps.Backend.Redeem(ctx, token, order)
	if err != nil {
		slog.Info("redeem_event", "event", "order_rejected", "error", err.Error())
		return SubmitRedemptionResult{}, err
	}

	slog.Info("redeem_event", "event", "order_placed",
		"lines", len(order.Items),
		"points_before", resp.PointsBefore,
		"points_after", resp.PointsAfter,
	)
	return SubmitRedemptionResult{PointsBefore: resp.PointsBefore, PointsAfter: resp.PointsAfter}, nil
}
