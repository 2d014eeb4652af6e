package orchestrators_test

import (
	"context"
	"errors"

	"ownerportal/internal/adapters/backend"
	"ownerportal/internal/domain/owner"
	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
	"ownerportal/internal/domain/viewing"
)

// mockBackend implements backend.API with canned responses and call capture.
type mockBackend struct {
	loginToken string
	loginErr   error

	profile    owner.Profile
	profileErr error

	catalog  reward.Catalog
	viewings []viewing.Viewing

	viewingsErr error
	confirmErr  error
	redeemResp  backend.RedeemResponse
	redeemErr   error
	actionErr   error

	calls        []string
	redeemOrders []redemption.Order
	requests     []backend.ViewingRequest
}

func (m *mockBackend) record(name string) {
	m.calls = append(m.calls, name)
}

func (m *mockBackend) called(name string) bool {
	for _, c := range m.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (m *mockBackend) Login(_ context.Context, ownerNumber, password string) (backend.LoginResponse, error) {
	m.record("login")
	if m.loginErr != nil {
		return backend.LoginResponse{}, m.loginErr
	}
	return backend.LoginResponse{Token: m.loginToken}, nil
}

func (m *mockBackend) Logout(_ context.Context, token string) error {
	m.record("logout")
	return m.actionErr
}

func (m *mockBackend) Me(_ context.Context, token string) (owner.Profile, error) {
	m.record("me")
	if m.profileErr != nil {
		return owner.Profile{}, m.profileErr
	}
	return m.profile, nil
}

func (m *mockBackend) Rewards(_ context.Context, token string) (reward.Catalog, error) {
	m.record("rewards")
	return m.catalog, nil
}

func (m *mockBackend) Viewings(_ context.Context, token string) ([]viewing.Viewing, error) {
	m.record("viewings")
	if m.viewingsErr != nil {
		return nil, m.viewingsErr
	}
	return m.viewings, nil
}

func (m *mockBackend) Redeem(_ context.Context, token string, order redemption.Order) (backend.RedeemResponse, error) {
	m.record("redeem")
	m.redeemOrders = append(m.redeemOrders, order)
	if m.redeemErr != nil {
		return backend.RedeemResponse{}, m.redeemErr
	}
	return m.redeemResp, nil
}

func (m *mockBackend) SetActive(_ context.Context, token string, active bool) error {
	m.record("setactive")
	return m.actionErr
}

func (m *mockBackend) ChangePassword(_ context.Context, token, oldPassword, newPassword string) error {
	m.record("changepassword")
	return m.actionErr
}

func (m *mockBackend) CreateViewingRequest(_ context.Context, req backend.ViewingRequest) error {
	m.record("createviewingrequest")
	m.requests = append(m.requests, req)
	return m.actionErr
}

func (m *mockBackend) UpdateViewingDate(_ context.Context, token, viewingID, dateISO string) error {
	m.record("updateviewingdate")
	return m.actionErr
}

func (m *mockBackend) ConfirmViewing(_ context.Context, token, viewingID string) error {
	m.record("confirmviewing")
	return m.confirmErr
}

func (m *mockBackend) OwnerFeedback(_ context.Context, token, viewingID, feedback string) error {
	m.record("ownerfeedback")
	return m.actionErr
}

var errBackendDown = errors.New("Network error: connection refused")
