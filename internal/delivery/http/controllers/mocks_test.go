package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventra/internal/delivery/http/helpers"
	"eventra/internal/delivery/http/middleware"
	"eventra/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var testClient = domain.Actor{UserID: "u-1", Email: "rita@example.com", Role: domain.RoleClient}

// authed returns req carrying actor, as RequireAuth would.
func authed(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(middleware.SetActor(req.Context(), actor))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var resp helpers.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type mockBookingService struct {
	gotActor   domain.Actor
	gotEventID string
	gotParams  domain.PaginationParams
	join       *domain.JoinResult
	leave      *domain.LeaveResult
	event      *domain.Event
	list       []*domain.EventParticipant
	total      int
	err        error
}

func (m *mockBookingService) Join(_ context.Context, actor domain.Actor, eventID string) (*domain.JoinResult, error) {
	m.gotActor, m.gotEventID = actor, eventID
	return m.join, m.err
}

func (m *mockBookingService) Leave(_ context.Context, actor domain.Actor, eventID string) (*domain.LeaveResult, error) {
	m.gotActor, m.gotEventID = actor, eventID
	return m.leave, m.err
}

func (m *mockBookingService) CompleteEvent(_ context.Context, actor domain.Actor, eventID string) (*domain.Event, error) {
	m.gotActor, m.gotEventID = actor, eventID
	return m.event, m.err
}

func (m *mockBookingService) ListParticipants(_ context.Context, eventID string, params domain.PaginationParams) ([]*domain.EventParticipant, int, error) {
	m.gotEventID, m.gotParams = eventID, params
	return m.list, m.total, m.err
}

type mockReconciler struct {
	calls      []domain.CallbackOutcome
	gotTxn     string
	gotValID   string
	validation *domain.GatewayValidation
	err        error
}

func (m *mockReconciler) Reconcile(_ context.Context, txnID string, outcome domain.CallbackOutcome) (*domain.ReconcileResult, error) {
	m.gotTxn = txnID
	m.calls = append(m.calls, outcome)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ReconcileResult{TransactionID: txnID, Outcome: outcome}, nil
}

func (m *mockReconciler) ValidateNotification(_ context.Context, valID, txnID string) (*domain.GatewayValidation, error) {
	m.gotValID, m.gotTxn = valID, txnID
	return m.validation, m.err
}

type mockModeration struct {
	called string
	actor  domain.Actor
	event  *domain.Event
	err    error
}

func (m *mockModeration) Approve(_ context.Context, id string) (*domain.Event, error) {
	m.called = "approve:" + id
	return m.event, m.err
}

func (m *mockModeration) Reject(_ context.Context, id string) (*domain.Event, error) {
	m.called = "reject:" + id
	return m.event, m.err
}

func (m *mockModeration) Cancel(_ context.Context, actor domain.Actor, id string) (*domain.Event, error) {
	m.called, m.actor = "cancel:"+id, actor
	return m.event, m.err
}

type mockReviewService struct {
	gotTxn    string
	gotRating int
	gotText   string
	err       error
}

func (m *mockReviewService) CreateReview(_ context.Context, _ domain.Actor, txnID string, rating int, comment string) (*domain.Review, *domain.Host, error) {
	m.gotTxn, m.gotRating, m.gotText = txnID, rating, comment
	if m.err != nil {
		return nil, nil, m.err
	}
	return &domain.Review{ID: "rv-1", Rating: rating}, &domain.Host{ID: "host-1", RatingCount: 1}, nil
}

type mockAuthService struct {
	gotEmail string
	err      error
}

func (m *mockAuthService) Login(_ context.Context, email, _ string) (string, *domain.User, error) {
	m.gotEmail = email
	if m.err != nil {
		return "", nil, m.err
	}
	return "jwt-token", &domain.User{ID: "u-1", Email: email, Role: domain.RoleClient}, nil
}

func (m *mockAuthService) SeedAdmin(context.Context, string, string) error { return nil }

type mockAccountService struct {
	gotReg   domain.ClientRegistration
	gotActor domain.Actor
	err      error
}

func (m *mockAccountService) RegisterClient(_ context.Context, in domain.ClientRegistration) (*domain.Client, error) {
	m.gotReg = in
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Client{ID: "c-1", UserID: "u-1", Name: in.Name, Email: in.Email, Status: domain.UserActive}, nil
}

func (m *mockAccountService) ApplyForHost(_ context.Context, actor domain.Actor) (*domain.HostApplication, error) {
	m.gotActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &domain.HostApplication{ID: "app-1", UserID: actor.UserID, Status: domain.ApplicationPending}, nil
}

type mockHostService struct {
	calls    int
	gotActor domain.Actor
	gotDraft domain.EventDraft
	err      error
}

func (m *mockHostService) CreateEvent(_ context.Context, actor domain.Actor, d domain.EventDraft) (*domain.Event, error) {
	m.calls++
	m.gotActor, m.gotDraft = actor, d
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Event{ID: "ev-9", HostID: "host-1", Title: d.Title, Capacity: d.Capacity, Status: domain.EventPending, Date: d.Date, JoiningFee: d.JoiningFee}, nil
}

type mockAdminService struct {
	called string
	err    error
}

func (m *mockAdminService) ApproveHostApplication(_ context.Context, id string) (*domain.Host, error) {
	m.called = "approve:" + id
	return &domain.Host{ID: "host-2"}, m.err
}

func (m *mockAdminService) RejectHostApplication(_ context.Context, id string) (*domain.HostApplication, error) {
	m.called = "reject:" + id
	return &domain.HostApplication{ID: id, Status: domain.ApplicationRejected}, m.err
}

func (m *mockAdminService) SuspendUser(_ context.Context, id string) (*domain.User, error) {
	m.called = "suspend:" + id
	return &domain.User{ID: id, Status: domain.UserSuspended}, m.err
}

func (m *mockAdminService) UnsuspendUser(_ context.Context, id string) (*domain.User, error) {
	m.called = "unsuspend:" + id
	return &domain.User{ID: id, Status: domain.UserActive}, m.err
}
