package backend

import (
	"context"

	"ownerportal/internal/domain/owner"
	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
	"ownerportal/internal/domain/viewing"
)

// API is the set of backend actions the portal consumes, with explicit
// request/response schemas per action. Implementations return a *CallError
// for any rejection (application-level or folded transport failure) so
// callers can show the message verbatim.
type API interface {
	Login(ctx context.Context, ownerNumber, password string) (LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (owner.Profile, error)
	Rewards(ctx context.Context, token string) (reward.Catalog, error)
	Viewings(ctx context.Context, token string) ([]viewing.Viewing, error)
	Redeem(ctx context.Context, token string, order redemption.Order) (RedeemResponse, error)
	SetActive(ctx context.Context, token string, active bool) error
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error
	CreateViewingRequest(ctx context.Context, req ViewingRequest) error
	UpdateViewingDate(ctx context.Context, token, viewingID, dateISO string) error
	ConfirmViewing(ctx context.Context, token, viewingID string) error
	OwnerFeedback(ctx context.Context, token, viewingID, feedback string) error
}

// LoginResponse is the payload of a successful login action.
type LoginResponse struct {
	Token string `json:"token" validate:"required"`
}

// RedeemResponse carries the backend-authoritative point totals around a
// redemption. The portal renders both verbatim rather than recomputing.
type RedeemResponse struct {
	PointsBefore float64 `json:"pointsBefore"`
	PointsAfter  float64 `json:"pointsAfter"`
}

// ViewingRequest is the createviewingrequest payload for impromptu viewings.
type ViewingRequest struct {
	OwnerNumber   string `json:"ownerNumber"`
	ViewerName    string `json:"viewerName"`
	ViewerEmail   string `json:"viewerEmail"`
	ViewerPhone   string `json:"viewerPhone"`
	RequestedDate string `json:"requestedDate"`
	Notes         string `json:"notes"`
	Source        string `json:"source"`
}

type meResponse struct {
	Profile owner.Profile `json:"profile"`
}

type rewardsResponse struct {
	Items []reward.CatalogItem `json:"items" validate:"dive"`
}

type viewingsResponse struct {
	Items []viewing.Viewing `json:"items" validate:"dive"`
}

// callErr wraps a failed Result for an action.
func callErr(action string, r Result) error {
	msg := r.Error
	if msg == "" {
		msg = "Request failed"
	}
	return &CallError{Action: action, Message: msg}
}

// Login authenticates an owner and returns the session token.
// POST: Token is non-empty on success
func (c *Client) Login(ctx context.Context, ownerNumber, password string) (LoginResponse, error) {
	r := c.Call(ctx, "login", map[string]any{"ownerNumber": ownerNumber, "password": password}, "")
	if !r.OK {
		return LoginResponse{}, callErr("login", r)
	}
	var resp LoginResponse
	if err := r.Decode(&resp); err != nil {
		return LoginResponse{}, &CallError{Action: "login", Message: "Server returned an unexpected login response"}
	}
	return resp, nil
}

// Logout invalidates the backend session token.
func (c *Client) Logout(ctx context.Context, token string) error {
	r := c.Call(ctx, "logout", nil, token)
	if !r.OK {
		return callErr("logout", r)
	}
	return nil
}

// Me fetches the owner profile, the authoritative source of point totals.
func (c *Client) Me(ctx context.Context, token string) (owner.Profile, error) {
	r := c.Call(ctx, "me", nil, token)
	if !r.OK {
		return owner.Profile{}, callErr("me", r)
	}
	var resp meResponse
	if err := r.Decode(&resp); err != nil {
		return owner.Profile{}, &CallError{Action: "me", Message: "Server returned an unexpected profile response"}
	}
	return resp.Profile, nil
}

// Rewards fetches the reward catalog in backend order.
func (c *Client) Rewards(ctx context.Context, token string) (reward.Catalog, error) {
	r := c.Call(ctx, "rewards", nil, token)
	if !r.OK {
		return reward.Catalog{}, callErr("rewards", r)
	}
	var resp rewardsResponse
	if err := r.Decode(&resp); err != nil {
		return reward.Catalog{}, &CallError{Action: "rewards", Message: "Server returned an unexpected catalog response"}
	}
	return reward.NewCatalog(resp.Items), nil
}

// Viewings fetches the owner's viewings.
func (c *Client) Viewings(ctx context.Context, token string) ([]viewing.Viewing, error) {
	r := c.Call(ctx, "viewings", nil, token)
	if !r.OK {
		return nil, callErr("viewings", r)
	}
	var resp viewingsResponse
	if err := r.Decode(&resp); err != nil {
		return nil, &CallError{Action: "viewings", Message: "Server returned an unexpected viewings response"}
	}
	return resp.Items, nil
}

// Redeem submits a redemption order and returns the before/after totals.
func (c *Client) Redeem(ctx context.Context, token string, order redemption.Order) (RedeemResponse, error) {
	payload := map[string]any{
		"items":            order.Items,
		"shipping":         order.Shipping,
		"collectAtFitting": order.CollectAtFitting,
		"workshop":         order.Workshop,
	}
	r := c.Call(ctx, "redeem", payload, token)
	if !r.OK {
		return RedeemResponse{}, callErr("redeem", r)
	}
	var resp RedeemResponse
	if err := r.Decode(&resp); err != nil {
		return RedeemResponse{}, &CallError{Action: "redeem", Message: "Server returned an unexpected order response"}
	}
	return resp, nil
}

// SetActive toggles whether the owner receives viewing requests.
func (c *Client) SetActive(ctx context.Context, token string, active bool) error {
	r := c.Call(ctx, "setactive", map[string]any{"active": active}, token)
	if !r.OK {
		return callErr("setactive", r)
	}
	return nil
}

// ChangePassword replaces the owner's password.
func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	r := c.Call(ctx, "changepassword", map[string]any{"oldPassword": oldPassword, "newPassword": newPassword}, token)
	if !r.OK {
		return callErr("changepassword", r)
	}
	return nil
}

// CreateViewingRequest logs an impromptu viewing for admin review. The
// action is unauthenticated on the backend, keyed by owner number.
func (c *Client) CreateViewingRequest(ctx context.Context, req ViewingRequest) error {
	payload := map[string]any{
		"ownerNumber":   req.OwnerNumber,
		"viewerName":    req.ViewerName,
		"viewerEmail":   req.ViewerEmail,
		"viewerPhone":   req.ViewerPhone,
		"requestedDate": req.RequestedDate,
		"notes":         req.Notes,
		"source":        req.Source,
	}
	r := c.Call(ctx, "createviewingrequest", payload, "")
	if !r.OK {
		return callErr("createviewingrequest", r)
	}
	return nil
}

// UpdateViewingDate changes a viewing's date.
func (c *Client) UpdateViewingDate(ctx context.Context, token, viewingID, dateISO string) error {
	r := c.Call(ctx, "updateviewingdate", map[string]any{"viewingId": viewingID, "dateISO": dateISO}, token)
	if !r.OK {
		return callErr("updateviewingdate", r)
	}
	return nil
}

// ConfirmViewing marks an ARRANGED viewing as completed by the owner.
func (c *Client) ConfirmViewing(ctx context.Context, token, viewingID string) error {
	r := c.Call(ctx, "confirmviewing", map[string]any{"viewingId": viewingID}, token)
	if !r.OK {
		return callErr("confirmviewing", r)
	}
	return nil
}

// OwnerFeedback submits free-text feedback for a viewing.
func (c *Client) OwnerFeedback(ctx context.Context, token, viewingID, feedback string) error {
	r := c.Call(ctx, "ownerfeedback", map[string]any{"viewingId": viewingID, "feedback": feedback}, token)
	if !r.OK {
		return callErr("ownerfeedback", r)
	}
	return nil
}
